package openapi

import (
	"fmt"
	"slices"
	"strings"

	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/brizzai/reqbuilder/internal/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Adjuster provides route filtering, renames and description overrides
// based on YAML configuration.
type Adjuster struct {
	fs          afero.Fs
	adjustments *models.ImportAdjustments
}

// NewAdjuster creates an Adjuster reading files from fs. A nil fs means the
// OS filesystem.
func NewAdjuster(fs afero.Fs) *Adjuster {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Adjuster{
		fs:          fs,
		adjustments: &models.ImportAdjustments{},
	}
}

// Load loads adjustments from a YAML file. A missing file leaves the
// adjuster permissive.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	exists, err := afero.Exists(a.fs, filePath)
	if err != nil {
		return fmt.Errorf("stat adjustments file: %w", err)
	}
	if !exists {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}

	data, err := afero.ReadFile(a.fs, filePath)
	if err != nil {
		return fmt.Errorf("read adjustments file: %w", err)
	}

	var adjustments models.ImportAdjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return fmt.Errorf("parse adjustments file: %w", err)
	}
	a.adjustments = &adjustments
	return nil
}

// Selected reports whether the route/method should be imported. Without
// route selections everything is selected.
func (a *Adjuster) Selected(route, method string) bool {
	if a.adjustments == nil || len(a.adjustments.Routes) == 0 {
		return true
	}
	for _, selection := range a.adjustments.Routes {
		if selection.Path == route {
			return slices.ContainsFunc(selection.Methods, func(m string) bool {
				return strings.EqualFold(m, method)
			})
		}
	}
	return false
}

// Description returns the overridden description for a route/method, or
// originalDesc.
func (a *Adjuster) Description(route, method, originalDesc string) string {
	if a.adjustments == nil {
		return originalDesc
	}
	for _, desc := range a.adjustments.Descriptions {
		if desc.Path != route {
			continue
		}
		for _, update := range desc.Updates {
			if strings.EqualFold(update.Method, method) {
				return update.NewDescription
			}
		}
		break
	}
	return originalDesc
}

// TypeName returns the configured type name for a route/method, or
// defaultName.
func (a *Adjuster) TypeName(route, method, defaultName string) string {
	if a.adjustments == nil {
		return defaultName
	}
	for _, r := range a.adjustments.Renames {
		if r.Path == route && strings.EqualFold(r.Method, method) && r.TypeName != "" {
			return r.TypeName
		}
	}
	return defaultName
}
