// Package temp makes hierarchical temporary directories.
// The local engine keeps one directory per session below its root and one
// per task below that of its session.
package temp

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

const DefaultPrefix = "pilotapi-tmp-"

// Create a new TempDir in directory dir with prefix string.
func NewTempDir(dir, prefix string) (*TempDir, error) {
	p, err := ioutil.TempDir(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &TempDir{Dir: p}, nil
}

// TempDir is a temporary directory, that may live under other temporary directories.
type TempDir struct {
	Dir string
}

// At uses the existing or new directory dir as a TempDir.
func At(dir string) (*TempDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &TempDir{Dir: abs}, nil
}

// Create a new directory with a fixed name (this lets us structure our temp files)
func (d *TempDir) FixedDir(name string) (*TempDir, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, os.PathSeparator) {
		return nil, fmt.Errorf("temp.TempDir.FixedDir: Invalid name %q", name)
	}
	p := filepath.Join(d.Dir, name)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, err
	}
	return &TempDir{p}, nil
}

// Create a new temporary file under d
func (d *TempDir) TempFile(prefix string) (*os.File, error) {
	return ioutil.TempFile(d.Dir, prefix)
}

// Remove deletes d and everything below it.
func (d *TempDir) Remove() error {
	return os.RemoveAll(d.Dir)
}

// TempDirDefault creates a TempDir rooted in the default temp dir
func TempDirDefault() (*TempDir, error) {
	tmpDir, err := ioutil.TempDir("", DefaultPrefix)
	if err != nil {
		return nil, fmt.Errorf("temp.TempDirDefault: couldn't ioutil.TempDir: %v", err)
	}
	return &TempDir{tmpDir}, nil
}
