package spawn

import (
	"fmt"

	"wonderland/internal/util"
)

// Cell is an integer coordinate on the spawn grid
type Cell struct {
	X, Z int32
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Key packs the cell into a unique 64-bit map key. Each coordinate is
// zig-zag encoded into 32 bits, so every int32 pair gets its own key.
func (c Cell) Key() int64 {
	return int64(uint64(zigzag(c.X))<<32 | uint64(zigzag(c.Z)))
}

// CellFromKey inverts Cell.Key
func CellFromKey(key int64) Cell {
	u := uint64(key)
	return Cell{X: unzigzag(uint32(u >> 32)), Z: unzigzag(uint32(u))}
}

func zigzag(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func unzigzag(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// worldToCell returns the cell containing world position (x, z)
func worldToCell(x, z, cellSize float32) Cell {
	return Cell{
		X: int32(util.FloorDiv(x, cellSize)),
		Z: int32(util.FloorDiv(z, cellSize)),
	}
}

// hashCell is an integer avalanche hash of a cell, a salt and a seed
func hashCell(c Cell, salt, seed uint32) uint32 {
	h := uint32(c.X)*374761393 + uint32(c.Z)*668265263 + salt*1013904223 + seed*2654435761
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return h
}

// unitFloat maps a hash to [0,1) using 24 of its bits, which float32
// represents exactly
func unitFloat(h uint32) float32 {
	return float32((h&0x7FFFFFFF)>>7) / (1 << 24)
}
