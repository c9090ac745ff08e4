// Package config resolves cigen settings with koanf.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"go.trai.ch/cigen/internal/core/domain"
	"go.trai.ch/zerr"
)

const variablesKey = "variables"

// Loader implements ports.SettingsLoader.
//
// Sources are merged with the following priority (lowest to highest):
//  1. Defaults
//  2. Declared variables from the process environment
//  3. Settings files, in the order of domain.SettingsFiles
//  4. Explicit assignments
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load resolves the settings described by req.
func (l *Loader) Load(req domain.SettingsRequest) (*domain.Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(domain.DefaultSettings(), "koanf"), nil); err != nil {
		return nil, zerr.Wrap(err, "failed to load default settings")
	}

	if req.UseEnvironment && len(req.Variables) > 0 {
		if err := k.Load(environmentProvider(req.Variables), nil); err != nil {
			return nil, zerr.Wrap(err, "failed to load environment variables")
		}
	}

	for _, name := range domain.SettingsFiles {
		path := filepath.Join(req.Dir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to access settings file"), "path", path)
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to load settings file"), "path", path)
		}
	}

	if len(req.Assignments) > 0 {
		assigned := make(map[string]any, len(req.Assignments))
		for name, value := range req.Assignments {
			assigned[name] = value
		}
		if err := k.Load(confmap.Provider(map[string]any{variablesKey: assigned}, ""), nil); err != nil {
			return nil, zerr.Wrap(err, "failed to load variable assignments")
		}
	}

	var settings domain.Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, zerr.Wrap(err, "failed to decode settings")
	}

	if err := l.validate.Struct(settings); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidSettings, err.Error()), "dir", req.Dir)
	}

	return &settings, nil
}

// environmentProvider reads the given variable names from the process
// environment into the variables section.
func environmentProvider(names []string) *env.Env {
	return env.Provider("", ".", func(key string) string {
		if !slices.Contains(names, key) {
			return ""
		}
		return variablesKey + "." + key
	})
}
