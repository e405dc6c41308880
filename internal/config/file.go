package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the optional per-project configuration file, searched for
// upward from the working directory.
const FileName = "decoport.toml"

type fileConfig struct {
	Run     runSection     `toml:"run"`
	Archive archiveSection `toml:"archive"`
	Convert convertSection `toml:"convert"`
}

type runSection struct {
	Quiet       *bool `toml:"quiet"`
	Concurrency *int  `toml:"concurrency"`
}

type archiveSection struct {
	Enabled *bool   `toml:"enabled"`
	Path    *string `toml:"path"`
}

type convertSection struct {
	SourceVersion *string `toml:"source-version"`
	Linesep       *string `toml:"linesep"`
	Indentation   *string `toml:"indentation"`
	PEP8          *bool   `toml:"pep8"`
	NamePrefix    *string `toml:"name-prefix"`
}

func findConfigFile(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadFileLayer(startDir string) (fileConfig, error) {
	var cfg fileConfig
	path, ok, err := findConfigFile(startDir)
	if err != nil || !ok {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return fileConfig{}, &ArgumentError{Option: FileName,
			Detail: fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, nil
}
