package local

import (
	"os"
	"path/filepath"
	"sync"
)

// lazyFile creates its file on the first non-empty write, so a stream the
// task never writes to leaves nothing behind to stage.
type lazyFile struct {
	path string

	mu  sync.Mutex
	f   *os.File
	err error
}

func newLazyFile(path string) *lazyFile {
	return &lazyFile{path: path}
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil && l.err == nil {
		if l.err = os.MkdirAll(filepath.Dir(l.path), 0755); l.err == nil {
			l.f, l.err = os.Create(l.path)
		}
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.f.Write(p)
}

func (l *lazyFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
