package domain

import "fmt"

// BoundingBox is a normalized [0,1] region on a page, per spec.md §3.
type BoundingBox struct {
	X0, Y0, X1, Y1 float64
	Page           int
}

// Validate enforces x0<x1 and y0<y1.
func (b BoundingBox) Validate() error {
	if b.X0 >= b.X1 || b.Y0 >= b.Y1 {
		return fmt.Errorf("domain: invalid bbox (%.4f,%.4f,%.4f,%.4f): require x0<x1 and y0<y1", b.X0, b.Y0, b.X1, b.Y1)
	}
	if b.X0 < 0 || b.Y0 < 0 || b.X1 > 1 || b.Y1 > 1 {
		return fmt.Errorf("domain: bbox coordinates must be normalized to [0,1]")
	}
	return nil
}

// Area returns the normalized area of the box; used to pick the "narrowest
// matching bbox" during citation attachment (C7 step 5).
func (b BoundingBox) Area() float64 {
	return (b.X1 - b.X0) * (b.Y1 - b.Y0)
}

// Contains reports whether other is fully inside b on the same page.
func (b BoundingBox) Contains(other BoundingBox) bool {
	return b.Page == other.Page && b.X0 <= other.X0 && b.Y0 <= other.Y0 && b.X1 >= other.X1 && b.Y1 >= other.Y1
}
