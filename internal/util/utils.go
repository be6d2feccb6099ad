package util

import (
	"os"
	"time"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type
type Number interface {
	constraints.Integer | constraints.Float
}

// Lerp performs linear interpolation between a and b with t in [0,1]
func Lerp[T constraints.Float](a, b, t T) T {
	return a + t*(b-a)
}

// Clamp restricts a value to be between min and max
func Clamp[T Number](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Max returns the larger of a and b
func Max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// IsInside checks if a point is inside a circular area
func IsInside[T constraints.Float](px, py, cx, cy, radius T) bool {
	dx := px - cx
	dy := py - cy
	return dx*dx+dy*dy <= radius*radius
}

// FloorDiv returns floor(a/b) as an int
func FloorDiv[T constraints.Float](a, b T) int {
	q := a / b
	i := int(q)
	if T(i) > q {
		i--
	}
	return i
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// RollingAverage keeps the mean of the last N samples
type RollingAverage struct {
	samples []float64
	next    int
	filled  bool
	sum     float64
}

// NewRollingAverage creates an average over windowSize samples
func NewRollingAverage(windowSize int) *RollingAverage {
	if windowSize < 1 {
		windowSize = 1
	}
	return &RollingAverage{samples: make([]float64, windowSize)}
}

// Add pushes a sample, evicting the oldest once the window is full
func (ra *RollingAverage) Add(v float64) {
	ra.sum -= ra.samples[ra.next]
	ra.samples[ra.next] = v
	ra.sum += v
	ra.next++
	if ra.next == len(ra.samples) {
		ra.next = 0
		ra.filled = true
	}
}

// Value returns the current mean, 0 when empty
func (ra *RollingAverage) Value() float64 {
	n := ra.next
	if ra.filled {
		n = len(ra.samples)
	}
	if n == 0 {
		return 0
	}
	return ra.sum / float64(n)
}

// Since returns the elapsed seconds since start
// Usage: defer log.Debugf("took %.3fs", util.Since(start))
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
