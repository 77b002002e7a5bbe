package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-docfill/pkg/render"
)

// pendingOutput is an artifact being written to a temporary file in its
// final directory. Nothing appears at the final path until commit.
type pendingOutput struct {
	final string
	file  *os.File
}

// outputPath appends ext when path has no extension. A blank path stays
// blank so createOutput rejects it.
func outputPath(path, ext string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if filepath.Ext(path) == "" {
		return path + ext
	}
	return path
}

func createOutput(template, path string) (*pendingOutput, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &render.Error{Kind: render.KindOutputWriteError, Op: "output", Template: template, Err: errors.New("output path is required")}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &render.Error{Kind: render.KindOutputWriteError, Op: "output", Template: template, Path: path, Err: err}
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, &render.Error{Kind: render.KindOutputWriteError, Op: "output", Template: template, Path: path, Err: err}
	}
	return &pendingOutput{final: path, file: file}, nil
}

func (p *pendingOutput) Writer() io.Writer {
	return p.file
}

// commit flushes the temporary file and renames it into place.
func (p *pendingOutput) commit() error {
	tmp := p.file.Name()
	if err := p.file.Sync(); err != nil {
		p.discard()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := p.file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p.final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", p.final, err)
	}
	return nil
}

// discard removes the temporary file.
func (p *pendingOutput) discard() {
	_ = p.file.Close()
	_ = os.Remove(p.file.Name())
}
