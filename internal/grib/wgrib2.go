package grib

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
)

// Decoder reads the inventory and values of a local GRIB2 file.
type Decoder interface {
	Inventory(ctx context.Context, path string) ([]Message, error)
	Values(ctx context.Context, path string, m Message) ([]float32, error)
}

// Wgrib2 decodes through the wgrib2 executable.
type Wgrib2 struct {
	// Command is the executable to run. Defaults to "wgrib2" on PATH.
	Command string
	// TempDir receives the raw value dumps. Defaults to os.TempDir().
	TempDir string
}

func NewWgrib2(command string) *Wgrib2 {
	return &Wgrib2{Command: command}
}

func (w *Wgrib2) command() string {
	if w.Command == "" {
		return "wgrib2"
	}
	return w.Command
}

func (w *Wgrib2) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, w.command(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w (%s)", w.command(), strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", w.command(), strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

func (w *Wgrib2) Inventory(ctx context.Context, path string) ([]Message, error) {
	out, err := w.run(ctx, path, "-s", "-nxny")
	if err != nil {
		return nil, err
	}
	return ParseInventory(bytes.NewReader(out))
}

// Values dumps record m as headerless native float32 and decodes it.
func (w *Wgrib2) Values(ctx context.Context, path string, m Message) ([]float32, error) {
	tmp, err := os.CreateTemp(w.TempDir, "atmovis-*.bin")
	if err != nil {
		return nil, err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if _, err := w.run(ctx, path, "-d", m.Record, "-no_header", "-bin", tmpName); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, err
	}
	vals := DecodeFloats(raw)
	if m.Nx > 0 && m.Ny > 0 && len(vals) != m.Nx*m.Ny {
		return nil, fmt.Errorf("record %s: expected %d values for %dx%d grid, got %d", m.Record, m.Nx*m.Ny, m.Nx, m.Ny, len(vals))
	}
	return vals, nil
}

// DecodeFloats interprets raw as little-endian float32 values.
func DecodeFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out
}
