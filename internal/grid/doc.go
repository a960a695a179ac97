// Package grid provides the structured-grid container shared by the
// extractors and the viewer.
//
// A [Grid] is fully described by its dimensions, origin and spacing plus one
// named float32 scalar array. Values are stored x fastest, then y, then z:
//
//	index = k*ny*nx + j*nx + i
//
// Two on-disk encodings are supported, selected by file extension:
//
//   - .vti: VTK XML ImageData (base64 binary or ascii DataArray)
//   - .nc:  netCDF classic, variable "scalars" with dims (z, y, x)
package grid
