// Package config loads the configuration of the hook library.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stealthrocket/iohook/internal/print/human"
)

const (
	defaultPath      = "~/.iohook/config.yaml"
	defaultTracePath = "~/.iohook/trace.zst"

	// PathEnv is the environment variable holding the configuration path.
	PathEnv = "IOHOOKCONFIG"
)

// Path is the path to the iohook configuration. When empty, the path is read
// from IOHOOKCONFIG and falls back to ~/.iohook/config.yaml.
var Path human.Path

// Location returns the configuration path that Open reads from.
func Location() human.Path {
	if Path != "" {
		return Path
	}
	if p := os.Getenv(PathEnv); p != "" {
		return human.Path(p)
	}
	return defaultPath
}

// Load opens and reads the configuration file.
func Load() (*Config, error) {
	r, path, err := Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	c, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Open opens the configuration file. When the file does not exist, the
// returned reader produces the default configuration.
func Open() (io.ReadCloser, string, error) {
	path, err := Location().Resolve()
	if err != nil {
		return nil, path, err
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
		b, _ := yaml.Marshal(Default())
		return io.NopCloser(bytes.NewReader(b)), path, nil
	}
	return f, path, nil
}

// Read reads, parses and validates configuration.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default is the default configuration: no devices, tracing to
// ~/.iohook/trace.zst when enabled, and socket entry points hooked.
func Default() *Config {
	c := new(Config)
	c.Trace.Output = NullableValue[human.Path](defaultTracePath)
	c.Sockets = true
	return c
}

// Config is iohook configuration.
type Config struct {
	UARTs []UART `json:"uarts"`
	Trace struct {
		Enable bool                 `json:"enable"`
		Output Nullable[human.Path] `json:"output"`
		Rate   float64              `json:"rate"`
		Dump   bool                 `json:"dump"`
	} `json:"trace"`
	Sockets bool `json:"sockets"`
}

// UART declares a virtual serial port. Input is delivered to the first reads
// of the program.
type UART struct {
	Port  int    `json:"port"`
	Input string `json:"input,omitempty" yaml:"input,omitempty"`
}

var (
	ErrPort = errors.New("invalid serial port number")
	ErrRate = errors.New("invalid trace rate")
)

// Validate checks that c can be applied.
func (c *Config) Validate() error {
	seen := make(map[int]bool, len(c.UARTs))
	for _, u := range c.UARTs {
		if u.Port <= 0 {
			return fmt.Errorf("%w: %d", ErrPort, u.Port)
		}
		if seen[u.Port] {
			return fmt.Errorf("%w: COM%d declared twice", ErrPort, u.Port)
		}
		seen[u.Port] = true
	}
	if c.Trace.Rate < 0 {
		return fmt.Errorf("%w: %g", ErrRate, c.Trace.Rate)
	}
	return nil
}

type Nullable[T any] struct {
	value T
	exist bool
}

func NullableValue[T any](v T) Nullable[T] {
	return Nullable[T]{value: v, exist: true}
}

func (v Nullable[T]) Value() (T, bool) {
	return v.value, v.exist
}

func (v Nullable[T]) MarshalJSON() ([]byte, error) {
	if !v.exist {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}

func (v Nullable[T]) MarshalYAML() (any, error) {
	if !v.exist {
		return nil, nil
	}
	return v.value, nil
}

func (v *Nullable[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		v.exist = false
		return nil
	} else if err := json.Unmarshal(b, &v.value); err != nil {
		v.exist = false
		return err
	} else {
		v.exist = true
		return nil
	}
}

func (v *Nullable[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" || node.Value == "~" || node.Value == "null" {
		v.exist = false
		return nil
	} else if err := node.Decode(&v.value); err != nil {
		v.exist = false
		return err
	} else {
		v.exist = true
		return nil
	}
}
