// Package writer persists a finished G-code document to disk, the thin
// seam between this core's in-memory export and the filesystem. Adapted
// from GoSlice's writer package onto handler.GCodeWriter.
package writer

import (
	"os"

	"github.com/aligator/slicecore/handler"
)

type writer struct {
	handler.Named
}

// Writer returns a GCodeWriter that writes the whole document to a single
// file, overwriting it if it already exists.
func Writer() handler.GCodeWriter {
	return &writer{Named: handler.Named{Name: "FileWriter"}}
}

func (w writer) Write(gcode string, filename string) error {
	buf, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer buf.Close()

	_, err = buf.WriteString(gcode)
	return err
}
