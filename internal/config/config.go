// Package config builds the one immutable configuration value every
// component receives. Precedence per option: explicit CLI flag, then a
// DECOPORT_* environment variable, then an optional decoport.toml, then
// the built-in default.
package config

import (
	"fmt"
	"os"

	"decoport/internal/dialect"
	"decoport/internal/rewrite"
)

// Environment variable names.
const (
	EnvQuiet         = "DECOPORT_QUIET"
	EnvConcurrency   = "DECOPORT_CONCURRENCY"
	EnvDoArchive     = "DECOPORT_DO_ARCHIVE"
	EnvArchivePath   = "DECOPORT_ARCHIVE_PATH"
	EnvSourceVersion = "DECOPORT_SOURCE_VERSION"
	EnvLinesep       = "DECOPORT_LINESEP"
	EnvIndentation   = "DECOPORT_INDENTATION"
	EnvPEP8          = "DECOPORT_PEP8"
	EnvNamePrefix    = "DECOPORT_NAME_PREFIX"
)

// Option defaults.
const (
	DefaultArchivePath = "archive"
	DefaultDoArchive   = true
	DefaultPEP8        = true
)

// Config is the merged, immutable run configuration.
type Config struct {
	Quiet       bool
	Concurrency int // worker pool size, 0 = one per available CPU
	DryRun      bool

	DoArchive   bool
	ArchivePath string

	SourceVersion string
	Linesep       string // "", "\n", "\r\n", "\r"; empty = auto detect
	Indentation   string // "", spaces, "\t"; empty = auto detect
	PEP8          bool
	NamePrefix    string
}

// ArgumentError is a fatal configuration error; it aborts the run before
// any job starts.
type ArgumentError struct {
	Option string
	Detail string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Detail)
}

// Overrides carries the values explicitly set on the command line. A nil
// field means "not specified", letting the environment and file layers
// through.
type Overrides struct {
	Quiet         *bool
	Concurrency   *int
	DryRun        bool
	DoArchive     *bool
	ArchivePath   *string
	SourceVersion *string
	Linesep       *string
	Indentation   *string
	PEP8          *bool
	NamePrefix    *string
}

// Load merges all configuration layers and validates the result.
func Load(ov Overrides) (*Config, error) {
	file, err := loadFileLayer(".")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DryRun:      ov.DryRun,
		DoArchive:   DefaultDoArchive,
		ArchivePath: DefaultArchivePath,
		PEP8:        DefaultPEP8,
		NamePrefix:  rewrite.DefaultNamePrefix,
	}
	cfg.SourceVersion = dialect.DefaultSourceVersion

	if v, err := layerBool(ov.Quiet, EnvQuiet, file.Run.Quiet); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Quiet = *v
	}

	if v, err := layerInt(ov.Concurrency, EnvConcurrency, file.Run.Concurrency); err != nil {
		return nil, err
	} else if v != nil {
		cfg.Concurrency = *v
	}

	if v, err := layerBool(ov.DoArchive, EnvDoArchive, file.Archive.Enabled); err != nil {
		return nil, err
	} else if v != nil {
		cfg.DoArchive = *v
	}

	if v := layerString(ov.ArchivePath, EnvArchivePath, file.Archive.Path); v != nil {
		cfg.ArchivePath = *v
	}

	if v := layerString(ov.SourceVersion, EnvSourceVersion, file.Convert.SourceVersion); v != nil {
		cfg.SourceVersion = *v
	}

	if v := layerString(ov.Linesep, EnvLinesep, file.Convert.Linesep); v != nil {
		linesep, err := ParseLinesep(*v)
		if err != nil {
			return nil, err
		}
		cfg.Linesep = linesep
	}

	if v := layerString(ov.Indentation, EnvIndentation, file.Convert.Indentation); v != nil {
		indent, err := ParseIndentation(*v)
		if err != nil {
			return nil, err
		}
		cfg.Indentation = indent
	}

	if v, err := layerBool(ov.PEP8, EnvPEP8, file.Convert.PEP8); err != nil {
		return nil, err
	} else if v != nil {
		cfg.PEP8 = *v
	}

	if v := layerString(ov.NamePrefix, EnvNamePrefix, file.Convert.NamePrefix); v != nil {
		cfg.NamePrefix = *v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !dialect.SupportedSourceVersion(c.SourceVersion) {
		return &ArgumentError{Option: "source version",
			Detail: fmt.Sprintf("%q is not one of %v", c.SourceVersion, dialect.SourceVersions)}
	}
	if c.Concurrency < 0 {
		return &ArgumentError{Option: "concurrency", Detail: "must be a positive integer"}
	}
	if !validIdentifier(c.NamePrefix) {
		return &ArgumentError{Option: "name prefix",
			Detail: fmt.Sprintf("%q is not a valid identifier", c.NamePrefix)}
	}
	if len(c.NamePrefix) >= 2 && c.NamePrefix[:2] == "__" {
		return &ArgumentError{Option: "name prefix",
			Detail: "must not start with double underscore (class-private mangling)"}
	}
	if c.ArchivePath == "" {
		return &ArgumentError{Option: "archive path", Detail: "must not be empty"}
	}
	return nil
}

// layerBool resolves option precedence for boolean options.
func layerBool(explicit *bool, env string, file *bool) (*bool, error) {
	if explicit != nil {
		return explicit, nil
	}
	fromEnv, err := ParseBooleanState(os.Getenv(env))
	if err != nil {
		return nil, &ArgumentError{Option: env, Detail: err.Error()}
	}
	if fromEnv != nil {
		return fromEnv, nil
	}
	return file, nil
}

func layerInt(explicit *int, env string, file *int) (*int, error) {
	if explicit != nil {
		return explicit, nil
	}
	if raw := os.Getenv(env); raw != "" {
		n, err := ParsePositiveInteger(raw)
		if err != nil {
			return nil, &ArgumentError{Option: env, Detail: err.Error()}
		}
		return &n, nil
	}
	return file, nil
}

func layerString(explicit *string, env string, file *string) *string {
	if explicit != nil {
		return explicit
	}
	if raw := os.Getenv(env); raw != "" {
		return &raw
	}
	return file
}
