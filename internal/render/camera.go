package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/camera"
)

// Camera is a perspective look-at camera. Orbiting keeps the focal point
// fixed and moves the position around it.
type Camera struct {
	Position   r3.Vec
	FocalPoint r3.Vec
	ViewUp     r3.Vec
	Near, Far  float64
	Angle      float64 // vertical view angle, degrees
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
func arr(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func NewCamera(s camera.State) *Camera {
	c := &Camera{
		Position:   vec(s.Position),
		FocalPoint: vec(s.FocalPoint),
		ViewUp:     vec(s.ViewUp),
		Near:       s.ClippingRange[0],
		Far:        s.ClippingRange[1],
		Angle:      s.ViewAngle(),
	}
	c.orthogonalize()
	return c
}

// State returns the camera as a persistable record.
func (c *Camera) State() camera.State {
	angle := c.Angle
	return camera.State{
		Position:      arr(c.Position),
		FocalPoint:    arr(c.FocalPoint),
		ViewUp:        arr(c.ViewUp),
		ClippingRange: [2]float64{c.Near, c.Far},
		Angle:         &angle,
	}
}

// Direction is the unit vector from the position towards the focal point.
func (c *Camera) Direction() r3.Vec {
	return r3.Unit(r3.Sub(c.FocalPoint, c.Position))
}

func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.FocalPoint, c.Position))
}

// basis returns the right and up screen axes and the viewing direction.
func (c *Camera) basis() (right, up, dir r3.Vec) {
	dir = c.Direction()
	right = r3.Unit(r3.Cross(dir, c.ViewUp))
	up = r3.Cross(right, dir)
	return right, up, dir
}

// orthogonalize removes the component of ViewUp along the view direction.
func (c *Camera) orthogonalize() {
	dir := c.Direction()
	up := r3.Sub(c.ViewUp, r3.Scale(r3.Dot(c.ViewUp, dir), dir))
	if r3.Norm(up) < 1e-12 {
		return
	}
	c.ViewUp = r3.Unit(up)
}

// Azimuth rotates the position about the view-up vector centred at the
// focal point.
func (c *Camera) Azimuth(deg float64) {
	rot := r3.NewRotation(radians(deg), c.ViewUp)
	c.Position = r3.Add(c.FocalPoint, rot.Rotate(r3.Sub(c.Position, c.FocalPoint)))
}

// Elevation rotates the position about the screen's right axis centred at
// the focal point and keeps the view-up orthogonal.
func (c *Camera) Elevation(deg float64) {
	right, _, _ := c.basis()
	rot := r3.NewRotation(-radians(deg), right)
	c.Position = r3.Add(c.FocalPoint, rot.Rotate(r3.Sub(c.Position, c.FocalPoint)))
	c.ViewUp = rot.Rotate(c.ViewUp)
	c.orthogonalize()
}

// Dolly moves the position towards the focal point by factor; values above
// one move closer. The clipping range follows the distance.
func (c *Camera) Dolly(factor float64) {
	if factor <= 0 {
		return
	}
	d := c.Distance()
	nd := d / factor
	c.Position = r3.Sub(c.FocalPoint, r3.Scale(nd, c.Direction()))
	shift := d - nd
	c.Near = math.Max(c.Near-shift, 1e-3*nd)
	c.Far = math.Max(c.Far-shift, c.Near+1)
}

// Project maps world point p onto a w x h pixel screen, y pointing down.
// depth is the distance along the view direction; ok is false for points at
// or behind the eye.
func (c *Camera) Project(p r3.Vec, w, h float64) (x, y, depth float64, ok bool) {
	right, up, dir := c.basis()
	v := r3.Sub(p, c.Position)
	depth = r3.Dot(v, dir)
	if depth <= 1e-9 {
		return 0, 0, depth, false
	}
	f := (h / 2) / math.Tan(radians(c.Angle)/2)
	x = w/2 + r3.Dot(v, right)*f/depth
	y = h/2 - r3.Dot(v, up)*f/depth
	return x, y, depth, true
}

// Focus moves the focal point to p, translating the position with it so the
// view direction and distance are unchanged.
func (c *Camera) Focus(p r3.Vec) {
	shift := r3.Sub(p, c.FocalPoint)
	c.FocalPoint = p
	c.Position = r3.Add(c.Position, shift)
}
