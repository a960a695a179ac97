package grid

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	ExtVTI    = ".vti"
	ExtNetCDF = ".nc"
)

// Supported reports whether path has a grid file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtVTI, ExtNetCDF:
		return true
	}
	return false
}

// Read loads a grid file, choosing the decoder by extension.
func Read(path string) (*Grid, error) {
	var (
		g   *Grid
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtVTI:
		g, err = readVTI(path)
	case ExtNetCDF:
		g, err = ReadNetCDF(path)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, &FormatError{Path: path, Wrapped: err}
	}
	return g, nil
}

// Write stores g at path, choosing the encoder by extension. An existing
// file is replaced.
func Write(path string, g *Grid) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtVTI:
		err = writeVTI(path, g)
	case ExtNetCDF:
		os.Remove(path)
		err = WriteNetCDF(path, g)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return &FormatError{Path: path, Wrapped: err}
	}
	return nil
}

func readVTI(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeVTI(f)
}

func writeVTI(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeVTI(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
