// Package config holds the file layout and verification options of a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mfverify/checker"
	"mfverify/diff"
	"mfverify/matrix"
	"mfverify/query"
)

// Shares names the four share files of one snapshot, relative to DataRoot.
type Shares struct {
	P0U string `yaml:"p0_u"`
	P1U string `yaml:"p1_u"`
	P0V string `yaml:"p0_v"`
	P1V string `yaml:"p1_v"`
}

// Config holds the verification configuration.
type Config struct {
	DataRoot  string   `yaml:"data_root"`
	Initial   Shares   `yaml:"initial"`
	Final     Shares   `yaml:"final"`
	Queries   string   `yaml:"queries"`
	Params    string   `yaml:"params"`
	IndexBase string   `yaml:"index_base"` // auto, zero or one
	Tolerance string   `yaml:"tolerance"`  // exact, eps or a positive number
	Arith     string   `yaml:"arith"`      // wrap or checked
	Modes     []string `yaml:"modes"`
	Verbose   bool     `yaml:"verbose"`
}

func defaultShares(prefix string) Shares {
	return Shares{
		P0U: filepath.Join(prefix, "p0_shares", "p0_U.txt"),
		P1U: filepath.Join(prefix, "p1_shares", "p1_U.txt"),
		P0V: filepath.Join(prefix, "p0_shares", "p0_V.txt"),
		P1V: filepath.Join(prefix, "p1_shares", "p1_V.txt"),
	}
}

// Default returns the fixed layout under ./data with both modes enabled.
func Default() *Config {
	return &Config{
		DataRoot:  "data",
		Initial:   defaultShares(""),
		Final:     defaultShares("final"),
		Queries:   "queries.txt",
		Params:    "params.txt",
		IndexBase: "auto",
		Tolerance: "eps",
		Arith:     "wrap",
		Modes:     []string{"user", "item"},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that every path is set and every option parses.
func (c *Config) Validate() error {
	for name, p := range map[string]string{
		"initial.p0_u": c.Initial.P0U, "initial.p1_u": c.Initial.P1U,
		"initial.p0_v": c.Initial.P0V, "initial.p1_v": c.Initial.P1V,
		"final.p0_u": c.Final.P0U, "final.p1_u": c.Final.P1U,
		"final.p0_v": c.Final.P0V, "final.p1_v": c.Final.P1V,
		"queries": c.Queries,
	} {
		if p == "" {
			return fmt.Errorf("%s path must be set", name)
		}
	}
	if _, err := c.Base(); err != nil {
		return err
	}
	if _, err := c.Tol(); err != nil {
		return err
	}
	if _, err := c.ArithMode(); err != nil {
		return err
	}
	modes, err := c.RunModes()
	if err != nil {
		return err
	}
	if len(modes) == 0 {
		return fmt.Errorf("at least one mode must be enabled")
	}
	return nil
}

// Base parses IndexBase.
func (c *Config) Base() (query.Base, error) {
	return query.ParseBase(c.IndexBase)
}

// Tol parses Tolerance.
func (c *Config) Tol() (diff.Tolerance, error) {
	return diff.ParseTolerance(c.Tolerance)
}

// ArithMode parses Arith.
func (c *Config) ArithMode() (matrix.Arith, error) {
	return matrix.ParseArith(c.Arith)
}

// RunModes parses Modes, dropping duplicates.
func (c *Config) RunModes() ([]checker.Mode, error) {
	var out []checker.Mode
	seen := map[checker.Mode]bool{}
	for _, s := range c.Modes {
		m, err := checker.ParseMode(s)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataRoot, p)
}

func (c *Config) shares(s Shares) checker.ShareFiles {
	return checker.ShareFiles{
		P0U: c.path(s.P0U),
		P1U: c.path(s.P1U),
		P0V: c.path(s.P0V),
		P1V: c.path(s.P1V),
	}
}

// Layout resolves every path against DataRoot.
func (c *Config) Layout() checker.Layout {
	return checker.Layout{
		Initial: c.shares(c.Initial),
		Final:   c.shares(c.Final),
		Queries: c.path(c.Queries),
		Params:  c.path(c.Params),
	}
}
