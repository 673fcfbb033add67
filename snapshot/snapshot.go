// Package snapshot saves and restores simulation state as zlib compressed
// gobs, so a run can be resumed where it stopped.
package snapshot

import (
	"compress/zlib"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/quillaja/nbody2d/physics"
)

/*
gob skips zero-value fields, so bodies at rest or on an axis are cheap.
accumulated forces are unexported and never written; they are recomputed
on the first step after a restore.
*/

// Filename is the conventional name of the snapshot for a step.
func Filename(step int) string {
	return fmt.Sprintf("%010d.data", step)
}

// Save writes f to w.
func Save(w io.Writer, f physics.Frame) error {
	zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(f); err != nil {
		zw.Close()
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return zw.Close()
}

// Load reads a frame written by Save.
func Load(r io.Reader) (physics.Frame, error) {
	var f physics.Frame
	zr, err := zlib.NewReader(r)
	if err != nil {
		return f, fmt.Errorf("snapshot: %w", err)
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(&f); err != nil {
		return f, fmt.Errorf("snapshot: decode: %w", err)
	}
	return f, nil
}

// SaveFile writes f to the file name, removing it again if encoding fails.
func SaveFile(name string, f physics.Frame) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Save(file, f); err != nil {
		file.Close()
		os.Remove(name)
		return err
	}
	return file.Close()
}

// LoadFile reads a frame from the file name.
func LoadFile(name string) (physics.Frame, error) {
	file, err := os.Open(name)
	if err != nil {
		return physics.Frame{}, err
	}
	defer file.Close()
	return Load(file)
}
