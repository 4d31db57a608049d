// Package config loads static enum and composite type definitions from YAML,
// for use when no database is available to introspect.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/pgcomposite"
	"github.com/syssam/pgcomposite/enum"
	"github.com/syssam/pgcomposite/oid"
)

type (
	// Config holds the static type definitions.
	Config struct {
		Enums      []Enum      `yaml:"enums,omitempty"`
		Composites []Composite `yaml:"composites,omitempty"`
	}

	// Enum declares an enum type and its ordered labels.
	Enum struct {
		Name   string   `yaml:"name"`
		Labels []string `yaml:"labels"`
	}

	// Composite declares a composite type. Delimiter defaults to ",".
	Composite struct {
		Name      string  `yaml:"name"`
		Delimiter string  `yaml:"delimiter,omitempty"`
		Fields    []Field `yaml:"fields"`
	}

	// Field is one attribute of a composite. Type is a builtin type name
	// or the name of a declared enum or composite.
	Field struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
)

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// Save encodes the config as YAML to path.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Validate reports every problem in the definitions.
func (c *Config) Validate() error {
	var errs []error
	builtins := oid.NewTypeMap()
	names := make(map[string]string)
	declare := func(kind, name string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("config: %s with no name", kind))
			return
		}
		if prev, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("config: %s %q already declared as %s", kind, name, prev))
			return
		}
		if _, ok := builtins.LookupName(name); ok {
			errs = append(errs, fmt.Errorf("config: %s %q shadows a builtin type", kind, name))
			return
		}
		names[name] = kind
	}
	for _, e := range c.Enums {
		declare("enum", e.Name)
		seen := make(map[string]struct{}, len(e.Labels))
		for _, l := range e.Labels {
			if _, ok := seen[l]; ok {
				errs = append(errs, fmt.Errorf("config: enum %q: duplicate label %q", e.Name, l))
			}
			seen[l] = struct{}{}
		}
	}
	for _, comp := range c.Composites {
		declare("composite", comp.Name)
		if comp.Delimiter != "" && len(comp.Delimiter) != 1 {
			errs = append(errs, fmt.Errorf("config: composite %q: delimiter %q must be a single byte", comp.Name, comp.Delimiter))
		}
		if len(comp.Fields) == 0 {
			errs = append(errs, fmt.Errorf("config: composite %q has no fields", comp.Name))
		}
		seen := make(map[string]struct{}, len(comp.Fields))
		for _, f := range comp.Fields {
			if f.Name == "" {
				errs = append(errs, fmt.Errorf("config: composite %q: field with no name", comp.Name))
				continue
			}
			if _, ok := seen[f.Name]; ok {
				errs = append(errs, fmt.Errorf("config: composite %q: duplicate field %q", comp.Name, f.Name))
			}
			seen[f.Name] = struct{}{}
		}
	}
	for _, comp := range c.Composites {
		for _, f := range comp.Fields {
			if _, ok := builtins.LookupName(f.Type); ok {
				continue
			}
			if _, ok := names[f.Type]; !ok {
				errs = append(errs, fmt.Errorf("config: composite %q: field %q has unknown type %q", comp.Name, f.Name, f.Type))
			}
		}
	}
	if len(errs) == 0 {
		if err := c.checkCycles(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) checkCycles() error {
	const (
		visiting = iota + 1
		done
	)
	byName := c.compositesByName()
	state := make(map[string]int, len(byName))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("config: composite %q nests itself (%v)", name, append(path, name))
		case done:
			return nil
		}
		state[name] = visiting
		for _, f := range byName[name].Fields {
			if _, ok := byName[f.Type]; ok {
				if err := visit(f.Type, append(path, name)); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}
	for _, comp := range c.Composites {
		if err := visit(comp.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) compositesByName() map[string]Composite {
	m := make(map[string]Composite, len(c.Composites))
	for _, comp := range c.Composites {
		m[comp.Name] = comp
	}
	return m
}

var _ enum.Source = (*Config)(nil)

// EnumLabels returns the declared labels of the enum name.
// It implements enum.Source.
func (c *Config) EnumLabels(_ context.Context, name string) ([]string, error) {
	for _, e := range c.Enums {
		if e.Name == name {
			return e.Labels, nil
		}
	}
	return nil, pgcomposite.NewNotFoundError("enum", name)
}

// Register adds the declared types to tm by name. Enum label sets are primed
// into cache, or enum.Default when cache is nil.
func (c *Config) Register(tm *oid.TypeMap, cache *enum.Cache) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if cache == nil {
		cache = enum.Default
	}
	for _, e := range c.Enums {
		if _, err := cache.Prime(e.Name, e.Labels); err != nil {
			return fmt.Errorf("config: register enum %s: %w", e.Name, err)
		}
		tm.RegisterName(e.Name, oid.NewEnum(enum.Define(e.Name, enum.WithCache(cache))))
	}
	byName := c.compositesByName()
	built := make(map[string]*oid.Composite, len(byName))
	var build func(name string) (*oid.Composite, error)
	build = func(name string) (*oid.Composite, error) {
		if b, ok := built[name]; ok {
			return b, nil
		}
		def := byName[name]
		fields := make([]oid.Field, len(def.Fields))
		for i, f := range def.Fields {
			if _, ok := byName[f.Type]; ok {
				h, err := build(f.Type)
				if err != nil {
					return nil, err
				}
				fields[i] = oid.Field{Name: f.Name, Handler: h}
				continue
			}
			h, _ := tm.LookupName(f.Type)
			fields[i] = oid.Field{Name: f.Name, Handler: h}
		}
		var opts []oid.CompositeOption
		if def.Delimiter != "" {
			opts = append(opts, oid.WithDelimiter(def.Delimiter[0]))
		}
		comp, err := oid.NewComposite(fields, opts...)
		if err != nil {
			return nil, fmt.Errorf("config: register composite %s: %w", name, err)
		}
		built[name] = comp
		tm.RegisterName(name, comp)
		return comp, nil
	}
	for _, comp := range c.Composites {
		if _, err := build(comp.Name); err != nil {
			return err
		}
	}
	return nil
}
