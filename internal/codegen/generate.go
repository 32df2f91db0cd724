package codegen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNoRequests is returned when a package declares no request structs.
var ErrNoRequests = errors.New("no request structs found")

// Generator writes request implementations for a package directory.
type Generator struct {
	fs afero.Fs
}

// NewGenerator returns a Generator writing through fs. A nil fs means the
// OS filesystem.
func NewGenerator(fs afero.Fs) *Generator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Generator{fs: fs}
}

// Generate loads the package in dir and writes the rendered implementations
// to output, a file name relative to dir. It returns the written path.
func (g *Generator) Generate(dir, output string) (string, error) {
	file, err := Load(dir, filepath.Base(output))
	if err != nil {
		return "", err
	}
	if len(file.Requests) == 0 {
		return "", fmt.Errorf("%s: %w", dir, ErrNoRequests)
	}
	src, err := Render(file)
	if err != nil {
		return "", err
	}
	target := output
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, output)
	}
	if err := g.WriteFile(target, src); err != nil {
		return "", err
	}
	logger.Info("generated request implementations",
		zap.String("package", file.Package),
		zap.Int("requests", len(file.Requests)),
		zap.String("output", target))
	return target, nil
}

// WriteFile writes src to path, creating parent directories.
func (g *Generator) WriteFile(path string, src []byte) error {
	if err := g.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := afero.WriteFile(g.fs, path, src, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
