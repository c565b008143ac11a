// Package grid converts linear buffer indexes to 2D cell coordinates.
package grid

// GetGridCoords returns the column and row of index in a row-major grid
// that is cols cells wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetIndex is the inverse of GetGridCoords.
func GetIndex(x, y, cols int) int {
	return y*cols + x
}
