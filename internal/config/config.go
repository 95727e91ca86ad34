// Package config loads typeobj.yaml.
//
// The configuration names the inputs of an analysis run (the runtime class
// snapshot and every declaration source) and the declarative rules that
// add virtual bases to types.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/typeobj/internal/typeobject"
)

// Config represents the top-level typeobj.yaml configuration.
type Config struct {
	// HostVersion is the version of the analyzed program's runtime
	// (e.g. "3.12"). Defaults to typeobject.DefaultHostVersion.
	HostVersion string `yaml:"host_version,omitempty"`

	// Runtime is a class snapshot file (relative to typeobj.yaml).
	Runtime string `yaml:"runtime,omitempty"`

	// Stubs are stub file glob patterns (relative to typeobj.yaml).
	Stubs []string `yaml:"stubs,omitempty"`

	// StubIndex is an SQLite file caching the parsed stubs. "default"
	// selects DefaultStubIndex. Empty disables the index.
	StubIndex string `yaml:"stub_index,omitempty"`

	Protos *ProtoConfig `yaml:"protos,omitempty"`
	Go     *GoConfig    `yaml:"go,omitempty"`

	// AdditionalBaseProviders inject virtual bases.
	AdditionalBaseProviders []ProviderRule `yaml:"additional_base_providers,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// ProtoConfig declares .proto sources.
type ProtoConfig struct {
	Files       []string `yaml:"files"`
	ImportPaths []string `yaml:"import_paths,omitempty"`
}

// GoConfig declares Go package sources.
type GoConfig struct {
	// Dir selects the Go module (relative to typeobj.yaml). Defaults to ".".
	Dir               string   `yaml:"dir,omitempty"`
	Packages          []string `yaml:"packages"`
	IncludeUnexported bool     `yaml:"include_unexported,omitempty"`
}

// ProviderRule adds Bases to every type whose qualified name matches Match.
//
//	additional_base_providers:
//	  - match: app.models.*
//	    bases: [app.Serializable]
type ProviderRule struct {
	// Match is an exact qualified name or a path.Match glob.
	Match string `yaml:"match"`

	// Bases are the qualified names of the virtual bases.
	Bases []string `yaml:"bases"`

	// Super also applies the rule to super() proxies of matching types.
	Super bool `yaml:"super,omitempty"`
}

// LoadConfig reads and parses a typeobj.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses typeobj.yaml content from bytes. Unknown keys are
// rejected. The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for typeobj.yaml starting from dir and walking up
// to parent directories. Returns "" and a nil error if none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if c.HostVersion != "" && !semver.IsValid(canonicalVersion(c.HostVersion)) {
		return fmt.Errorf("%s: host_version %q is not a version", path, c.HostVersion)
	}
	if c.StubIndex != "" && len(c.Stubs) == 0 {
		return fmt.Errorf("%s: stub_index requires stubs", path)
	}
	for i, s := range c.Stubs {
		if _, err := filepath.Match(s, ""); err != nil {
			return fmt.Errorf("%s: stubs[%d]: bad pattern %q", path, i, s)
		}
	}
	if c.Protos != nil && len(c.Protos.Files) == 0 {
		return fmt.Errorf("%s: protos: files is required", path)
	}
	if c.Go != nil && len(c.Go.Packages) == 0 {
		return fmt.Errorf("%s: go: packages is required", path)
	}

	for i, r := range c.AdditionalBaseProviders {
		if r.Match == "" {
			return fmt.Errorf("%s: additional_base_providers[%d]: match is required", path, i)
		}
		if _, err := pathMatch(r.Match, ""); err != nil {
			return fmt.Errorf("%s: additional_base_providers[%d] (%s): bad pattern", path, i, r.Match)
		}
		if len(r.Bases) == 0 {
			return fmt.Errorf("%s: additional_base_providers[%d] (%s): bases is required", path, i, r.Match)
		}
		for j, b := range r.Bases {
			if b == "" {
				return fmt.Errorf("%s: additional_base_providers[%d].bases[%d] (%s): empty base", path, i, j, r.Match)
			}
			if b == r.Match {
				return fmt.Errorf("%s: additional_base_providers[%d].bases[%d] (%s): type cannot be its own base", path, i, j, r.Match)
			}
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.HostVersion == "" {
		c.HostVersion = typeobject.DefaultHostVersion
	}
	if c.StubIndex == "default" {
		c.StubIndex = DefaultStubIndex
	}
	if c.Go != nil && c.Go.Dir == "" {
		c.Go.Dir = "."
	}
}

func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Qualified names use dots, not slashes, so path.Match would let "*" cross
// module boundaries. Treat dots as separators instead.
func pathMatch(pattern, name string) (bool, error) {
	return path.Match(strings.ReplaceAll(pattern, ".", "/"), strings.ReplaceAll(name, ".", "/"))
}

// Matches reports whether the rule applies to the qualified name.
func (r ProviderRule) Matches(qualname string) bool {
	if r.Match == qualname {
		return true
	}
	ok, _ := pathMatch(r.Match, qualname)
	return ok
}

// BaseProviders compiles the provider rules. Base names are turned into
// keys with resolve.
func (c *Config) BaseProviders(resolve typeobject.KeyResolver) []typeobject.BaseProvider {
	if resolve == nil {
		resolve = typeobject.SyntheticOnly
	}
	providers := make([]typeobject.BaseProvider, 0, len(c.AdditionalBaseProviders))
	for _, rule := range c.AdditionalBaseProviders {
		bases := make([]typeobject.TypeKey, len(rule.Bases))
		for i, b := range rule.Bases {
			bases[i] = resolve(b)
		}
		providers = append(providers, rule.provider(bases))
	}
	return providers
}

func (r ProviderRule) provider(bases []typeobject.TypeKey) typeobject.BaseProvider {
	return func(key typeobject.TypeKey) []typeobject.TypeKey {
		name, ok := typeobject.KeyName(key)
		if sup, isSuper := key.(typeobject.Super); isSuper && r.Super {
			name, ok = typeobject.KeyName(typeobject.Of(sup.Type))
		}
		if !ok || !r.Matches(name) {
			return nil
		}
		return bases
	}
}
