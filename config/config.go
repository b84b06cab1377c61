// Package config handles jasm.toml assembler configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/blacknovatech/jvmasm/classbuilder"
	"github.com/blacknovatech/jvmasm/classfile"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "jasm.toml"

// Output formats.
const (
	FormatClass = "class"
	FormatCBOR  = "cbor"
)

// Config represents a jasm.toml file.
type Config struct {
	Class     Class     `toml:"class"`
	Assembler Assembler `toml:"assembler"`
	Output    Output    `toml:"output"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// Class sets the version written into produced classes.
type Class struct {
	MajorVersion uint16 `toml:"major-version"`
	MinorVersion uint16 `toml:"minor-version"`
}

// Assembler selects the stack and locals accounting modes.
type Assembler struct {
	Stack  string `toml:"stack"`
	Locals string `toml:"locals"`
}

// Output configures where and how results are written.
type Output struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Class: Class{
			MajorVersion: classfile.MajorVersion,
			MinorVersion: classfile.MinorVersion,
		},
		Assembler: Assembler{
			Stack:  classbuilder.StackTracked.String(),
			Locals: classbuilder.LocalsHighWater.String(),
		},
		Output: Output{
			Format: FormatClass,
			Dir:    ".",
		},
	}
}

// Load parses the configuration file at path. Keys missing from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Parse reads a configuration from TOML text.
func Parse(data string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for jasm.toml. It returns the
// defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	switch c.Output.Format {
	case FormatClass, FormatCBOR:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Class.MajorVersion < 45 {
		return fmt.Errorf("major version %d predates the class file format", c.Class.MajorVersion)
	}
	return nil
}

// Options converts the configuration into class builder options.
func (c *Config) Options() (classbuilder.Options, error) {
	opts := classbuilder.DefaultOptions()
	opts.MajorVersion = c.Class.MajorVersion
	opts.MinorVersion = c.Class.MinorVersion

	var err error
	if opts.Stack, err = classbuilder.ParseStackMode(c.Assembler.Stack); err != nil {
		return opts, err
	}
	if opts.Locals, err = classbuilder.ParseLocalsMode(c.Assembler.Locals); err != nil {
		return opts, err
	}
	return opts, nil
}

// OutputPath is where the result for the class named className goes.
func (c *Config) OutputPath(className string) string {
	ext := ".class"
	if c.Output.Format == FormatCBOR {
		ext = ".cbor"
	}
	return filepath.Join(c.Output.Dir, filepath.FromSlash(className)+ext)
}
