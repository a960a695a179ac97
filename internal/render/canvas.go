package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
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

const brailleBlank = 0x2800

// Canvas is a grid of braille cells, each 2x4 sub-pixels with one colour.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]color.RGBA
	Background    color.RGBA
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]color.RGBA, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]color.RGBA, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
			c.Colors[i][j] = color.RGBA{}
		}
	}
}

// Draw converts a raster of Width*2 x Height*4 pixels into braille cells.
// A dot is lit where geometry covered the pixel; the cell colour is the mean
// of its lit pixels.
func (c *Canvas) Draw(r *Raster) {
	c.Clear()
	c.Background = r.Background
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			var sr, sg, sb, n int
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := col*2+dx, row*4+dy
					if !r.Covered(x, y) {
						continue
					}
					c.Set(x, y)
					p := r.At(x, y)
					sr, sg, sb, n = sr+int(p.R), sg+int(p.G), sb+int(p.B), n+1
				}
			}
			if n > 0 {
				c.Colors[row][col] = color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 255}
			}
		}
	}
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// String renders the cells with true-colour foregrounds over the canvas
// background. Runs of equal colour share one style.
func (c *Canvas) String() string {
	var b strings.Builder
	bg := hex(c.Background)
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Colors[i][j] == c.Colors[i][start] {
				continue
			}
			style := lipgloss.NewStyle().Background(bg).Foreground(hex(c.Colors[i][start]))
			b.WriteString(style.Render(string(row[start:j])))
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Plain returns the braille pattern without colour.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}
