// Package config holds generator options and loads them from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/fulcrumgen/internal/model"
	"github.com/tordrt/fulcrumgen/internal/planner"
)

// Defaults used when an option is not set
const (
	DefaultIndentation = 2
	DefaultDirectory   = "./models"
	DefaultExtension   = "js"
)

var ErrInvalidOptions = errors.New("invalid options")

// Options configures model generation.
//
// The zero value is not ready for use; start from Default or LoadFile.
type Options struct {
	// Spaces indents with spaces when true and tabs when false.
	Spaces bool `yaml:"spaces"`

	// Indentation is the number of spaces per level. Ignored when Spaces is false.
	Indentation int `yaml:"indentation"`

	// Directory receives one file per table. Created if missing.
	Directory string `yaml:"directory"`

	// Additional entries are appended to every table's options block in order.
	Additional Additional `yaml:"additional"`

	// RecordLinks selects how multi-select record link fields are modelled.
	RecordLinks planner.RecordLinkMode `yaml:"record_links"`

	// GeometryHook adds a hook that fills the_geom from latitude and longitude.
	GeometryHook bool `yaml:"geometry_hook"`

	// Extension of generated files, without the dot.
	Extension string `yaml:"extension"`

	// BaseURL overrides the Fulcrum API root.
	BaseURL string `yaml:"base_url"`

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger `yaml:"-"`
}

// Default returns the default options
func Default() Options {
	return Options{
		Spaces:      true,
		Indentation: DefaultIndentation,
		Directory:   DefaultDirectory,
		RecordLinks: planner.RecordLinkJoin,
		Extension:   DefaultExtension,
	}
}

// LoadFile loads and parses a YAML options file from the given path
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data on top of the defaults
func Parse(data []byte) (Options, error) {
	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	applyDefaults(&opts)

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// applyDefaults fills in values left empty by a config file
func applyDefaults(opts *Options) {
	if opts.Directory == "" {
		opts.Directory = DefaultDirectory
	}
	if opts.RecordLinks == "" {
		opts.RecordLinks = planner.RecordLinkJoin
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
}

// Validate checks the options for values the generator cannot use
func (o Options) Validate() error {
	if o.Spaces && o.Indentation < 0 {
		return fmt.Errorf("%w: indentation must not be negative, got %d", ErrInvalidOptions, o.Indentation)
	}
	if o.RecordLinks != "" && !o.RecordLinks.Valid() {
		return fmt.Errorf("%w: record_links must be %q or %q, got %q",
			ErrInvalidOptions, planner.RecordLinkJoin, planner.RecordLinkTable, o.RecordLinks)
	}
	if o.Directory == "" {
		return fmt.Errorf("%w: directory is required", ErrInvalidOptions)
	}
	if o.Extension == "" {
		return fmt.Errorf("%w: extension is required", ErrInvalidOptions)
	}
	for _, opt := range o.Additional {
		switch opt.Key {
		case "":
			return fmt.Errorf("%w: additional option with empty key", ErrInvalidOptions)
		case "tableName":
			return fmt.Errorf("%w: additional option tableName is reserved", ErrInvalidOptions)
		}
	}
	return nil
}

// BuildOptions returns the model builder settings
func (o Options) BuildOptions() model.BuildOptions {
	return model.BuildOptions{
		Additional:   o.Additional.Options(),
		GeometryHook: o.GeometryHook,
	}
}

// Log returns the configured logger or one that discards everything
func (o Options) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}
