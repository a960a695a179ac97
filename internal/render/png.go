package render

import (
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/atmovis/internal/mesh"
)

// pointsPerInch makes one vg point one image pixel.
const pointsPerInch = 72

// Image rasterizes the frame onto a vgimg canvas at one point per pixel.
func (f *Frame) Image() *vgimg.Canvas {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(f.W), vg.Length(f.H)),
		vgimg.UseDPI(pointsPerInch),
		vgimg.UseBackgroundColor(f.Background),
	)
	h := vg.Length(f.H)
	for _, face := range f.Faces {
		var p vg.Path
		// vg's origin is the bottom-left corner.
		p.Move(vg.Point{X: vg.Length(face.P[0][0]), Y: h - vg.Length(face.P[0][1])})
		p.Line(vg.Point{X: vg.Length(face.P[1][0]), Y: h - vg.Length(face.P[1][1])})
		p.Line(vg.Point{X: vg.Length(face.P[2][0]), Y: h - vg.Length(face.P[2][1])})
		p.Close()
		col := face.Color
		col.A = uint8(face.Opacity * 255)
		c.SetColor(premultiply(col))
		c.Fill(p)
	}
	return c
}

func premultiply(c color.RGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{R: uint8(uint32(c.R) * a / 255), G: uint8(uint32(c.G) * a / 255), B: uint8(uint32(c.B) * a / 255), A: c.A}
}

// WritePNG encodes the frame as PNG.
func (f *Frame) WritePNG(w io.Writer) error {
	_, err := vgimg.PngCanvas{Canvas: f.Image()}.WriteTo(w)
	return err
}

// Screenshot renders the actors at w x h pixels and writes a PNG to path.
// A partially written file is removed.
func Screenshot(path string, actors []*mesh.Actor, cam *Camera, w, h int, bg color.RGBA) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Project(actors, cam, w, h, bg).WritePNG(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
