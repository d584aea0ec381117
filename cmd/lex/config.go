package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pthm/lex"
	"github.com/pthm/lex/lib/build"
	"github.com/pthm/lex/lib/generator"
)

const defaultConfig = "lex.yaml"

// Config is the contents of lex.yaml.
//
//	page:
//	  dir: ./pages
//	  name: Home
//	layout:
//	  dir: ./layouts
//	  name: Shell
//	outfile: dist/index.html
//	minify: true
//	write: true
//	input:
//	  start: 3
type Config struct {
	Page   ComponentRef  `yaml:"page"`
	Layout *ComponentRef `yaml:"layout,omitempty"`

	build.Options `yaml:",inline"`

	// Gen is where the build and client mains are generated.
	Gen   string         `yaml:"gen,omitempty"`
	Input map[string]any `yaml:"input,omitempty"`

	// root is the directory holding the config file; relative paths are
	// resolved against it.
	root string
}

// ComponentRef points at a component function by package directory.
type ComponentRef struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// loadConfig reads path. A missing file yields the defaults when optional
// is set.
func loadConfig(path string, optional bool) (*Config, error) {
	cfg := &Config{
		Options: build.DefaultOptions(),
		Gen:     ".lex",
		root:    filepath.Dir(path),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && optional {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// entry resolves the component references into generator form.
func (c *Config) entry() (generator.Entry, error) {
	if c.Page.Name == "" {
		return generator.Entry{}, errors.New("config: page.name is required")
	}
	page, err := c.ref(c.Page)
	if err != nil {
		return generator.Entry{}, err
	}
	e := generator.Entry{Page: page}
	if c.Layout != nil {
		layout, err := c.ref(*c.Layout)
		if err != nil {
			return generator.Entry{}, err
		}
		e.Layout = &layout
	}
	return e, nil
}

func (c *Config) ref(r ComponentRef) (generator.Ref, error) {
	dir := c.path(r.Dir)
	if dir == "" {
		dir = c.root
	}
	imp, err := generator.ResolveImport(dir)
	if err != nil {
		return generator.Ref{}, err
	}
	return generator.Ref{Import: imp, Name: r.Name, Dir: dir}, nil
}

func (c *Config) input() lex.Props {
	return lex.Props(c.Input)
}
