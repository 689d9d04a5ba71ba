// Package publish writes qualified lead tables to their destinations: a
// Google Sheet, local CSV or XLSX files, or a Notion database.
package publish

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/pipeline"
)

// Targets accepted by publish.target.
const (
	TargetSheets = "sheets"
	TargetCSV    = "csv"
	TargetXLSX   = "xlsx"
	TargetNotion = "notion"
)

// Publisher is implemented by every destination.
type Publisher = pipeline.Publisher

// Targets lists the supported targets.
func Targets() []string {
	return []string{TargetSheets, TargetCSV, TargetXLSX, TargetNotion}
}

// writeAtomic creates path through a temporary sibling so readers never see
// a partial file.
func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "publish: create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "publish: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "publish: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "publish: rename to %s", path)
	}
	return nil
}
