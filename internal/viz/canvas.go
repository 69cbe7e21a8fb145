package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set lights a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world XY coordinates onto canvas sub-pixels, top-down with
// world +y pointing up the screen.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
	subW, subH int
}

// NewViewport fits the given world points (with margin) onto a canvas of the
// given character size.
func NewViewport(points []r3.Vec, margin float64, canvasW, canvasH int) Viewport {
	vp := Viewport{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		subW: canvasW * 2, subH: canvasH * 4,
	}
	for _, p := range points {
		vp.MinX = math.Min(vp.MinX, p.X)
		vp.MaxX = math.Max(vp.MaxX, p.X)
		vp.MinY = math.Min(vp.MinY, p.Y)
		vp.MaxY = math.Max(vp.MaxY, p.Y)
	}
	if math.IsInf(vp.MinX, 1) {
		vp.MinX, vp.MaxX, vp.MinY, vp.MaxY = -1, 1, -1, 1
	}
	vp.MinX -= margin
	vp.MaxX += margin
	vp.MinY -= margin
	vp.MaxY += margin
	if vp.MaxX == vp.MinX {
		vp.MaxX = vp.MinX + 1
	}
	if vp.MaxY == vp.MinY {
		vp.MaxY = vp.MinY + 1
	}
	return vp
}

// Project converts a world point to sub-pixel coordinates.
func (vp Viewport) Project(p r3.Vec) (int, int) {
	fx := (p.X - vp.MinX) / (vp.MaxX - vp.MinX)
	fy := (p.Y - vp.MinY) / (vp.MaxY - vp.MinY)
	x := int(fx * float64(vp.subW-1))
	y := int((1 - fy) * float64(vp.subH-1))
	return x, y
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
