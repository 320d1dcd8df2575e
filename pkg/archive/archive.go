// Package archive packages a completed run into a single zip: the generated
// file tree plus the JSON artifacts from the other stages.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"sort"

	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/fileset"
)

// Write streams a zip of the file set and the named JSON artifacts.
// Artifact entries are written in sorted name order so output is stable.
func Write(w io.Writer, set *fileset.Set, artifacts map[string][]byte) error {
	zw := zip.NewWriter(w)

	for _, f := range set.Files {
		entry, err := zw.Create(f.Path)
		if err != nil {
			return fault.New(fault.KindIO, err)
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			return fault.New(fault.KindIO, err)
		}
	}

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry, err := zw.Create(name)
		if err != nil {
			return fault.New(fault.KindIO, err)
		}
		if _, err := entry.Write(artifacts[name]); err != nil {
			return fault.New(fault.KindIO, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fault.New(fault.KindIO, err)
	}
	return nil
}

// WriteFile writes the zip to path.
func WriteFile(path string, set *fileset.Set, artifacts map[string][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fault.New(fault.KindIO, err)
	}
	defer f.Close()

	if err := Write(f, set, artifacts); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fault.New(fault.KindIO, err)
	}
	return nil
}
