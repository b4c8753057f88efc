package local

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/os/temp"
)

const (
	taskScheme   = "task:///"
	clientScheme = "client:///"
	fileScheme   = "file://"
)

// stageOutput applies the output staging directives of a finished task.
// Sources that the task never produced are skipped.
func stageOutput(directives []orchestrator.StagingDirective, tid, sandbox, clientDir string) error {
	for _, d := range directives {
		src, err := resolveURL(d.Source, tid, sandbox, sandbox, clientDir)
		if err != nil {
			return err
		}
		dst, err := resolveURL(d.Target, tid, clientDir, sandbox, clientDir)
		if err != nil {
			return err
		}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			log.WithFields(log.Fields{"taskID": tid, "source": d.Source}).Debug("Nothing to stage")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		switch d.Action {
		case orchestrator.Move:
			if err := os.Rename(src, dst); err == nil {
				continue
			}
			if err := copyFile(src, dst); err != nil {
				return err
			}
			if err := os.Remove(src); err != nil {
				return err
			}
		case orchestrator.Copy, orchestrator.Transfer, "":
			if err := copyFile(src, dst); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported staging action %q", d.Action)
		}
	}
	return nil
}

// resolveURL maps a staging URL onto the local filesystem. URLs without a
// scheme are relative to dflt. Paths may not escape their root.
func resolveURL(raw, tid, dflt, sandbox, clientDir string) (string, error) {
	u := strings.Replace(raw, orchestrator.TaskIDVar, tid, -1)
	root, rel := dflt, u
	switch {
	case strings.HasPrefix(u, taskScheme):
		root, rel = sandbox, strings.TrimPrefix(u, taskScheme)
	case strings.HasPrefix(u, clientScheme):
		root, rel = clientDir, strings.TrimPrefix(u, clientScheme)
	case strings.HasPrefix(u, fileScheme):
		p := strings.TrimPrefix(u, fileScheme)
		if !filepath.IsAbs(p) {
			return "", fmt.Errorf("file url %q is not absolute", raw)
		}
		return filepath.Clean(p), nil
	case strings.Contains(u, "://"):
		return "", fmt.Errorf("unsupported staging url %q", raw)
	}
	if rel == "" {
		return "", fmt.Errorf("empty path in staging url %q", raw)
	}
	p := filepath.Join(root, rel)
	if r, err := filepath.Rel(root, p); err != nil || r == ".." || strings.HasPrefix(r, "../") {
		return "", fmt.Errorf("staging url %q escapes %s", raw, root)
	}
	return p, nil
}

// copyFile writes dst through a temporary file so readers never see a partial copy.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := &temp.TempDir{Dir: filepath.Dir(dst)}
	tmp, err := dir.TempFile("." + filepath.Base(dst) + ".")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "copying %s", src)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
