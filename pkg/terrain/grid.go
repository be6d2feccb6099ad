package terrain

// Winding selects the triangle vertex order of generated indices
type Winding int

const (
	// CounterClockwise produces front faces pointing +Y
	CounterClockwise Winding = iota
	// Clockwise produces front faces pointing -Y
	Clockwise
)

// GridIndices builds the triangle list for a resolution x resolution vertex
// grid: two triangles per quad, 6*(resolution-1)^2 indices in total.
// Vertex (col, row) lives at row*resolution+col.
func GridIndices(resolution int, winding Winding) []uint32 {
	if resolution < 2 {
		return nil
	}

	quads := resolution - 1
	indices := make([]uint32, 0, 6*quads*quads)
	r := uint32(resolution)

	for row := uint32(0); row < r-1; row++ {
		for col := uint32(0); col < r-1; col++ {
			i := row*r + col
			if winding == Clockwise {
				indices = append(indices,
					i, i+1, i+r,
					i+r, i+1, i+r+1,
				)
				continue
			}
			indices = append(indices,
				i, i+r, i+1,
				i+r, i+r+1, i+1,
			)
		}
	}
	return indices
}
