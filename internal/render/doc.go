// Package render draws mesh actors through a perspective camera.
//
// Triangles are projected, flat shaded with a headlight and painted far to
// near. A [Frame] goes either to the terminal as a braille [Canvas] with one
// colour per cell, or to a PNG through gonum's vgimg backend.
package render
