// Package config implements spec.md §4.O: the toolkit's configuration
// surface, bound to spf13/viper over the CLI command's spf13/pflag flag
// set. Every flag has the spec-documented default, so a config file is
// always optional, never required.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults mirrors spec.md §3's "default 2²⁴" instruction budget and the
// engine's first-fit strategy selection.
const (
	DefaultBudget   = 1 << 24
	DefaultStrategy = "" // empty means first-fit, not a forced name
)

// Config is the resolved set of values every CLI subcommand consults.
type Config struct {
	KernelcachePath string
	Slide           uint64
	Budget          int
	Strategy        string
	LogFile         string
}

// BindFlags registers every configuration flag on fs with its
// spec-documented default, so Config can be populated regardless of
// whether a config file is present.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("kernelcache", "", "path to a kernelcache or Mach-O image")
	fs.Uint64("slide", 0, "kASLR slide to apply to symbol/gadget addresses")
	fs.Int("budget", DefaultBudget, "maximum instructions a bounded walk may execute")
	fs.String("strategy", DefaultStrategy, "force a specific JOP call strategy instead of first-fit")
	fs.String("log-file", "", "also write structured JSON logs to this file")
}

// Load builds a *viper.Viper bound to fs, optionally reading
// $HOME/.ktsimctl.yaml if present, and returns the resolved Config.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".ktsimctl")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	return &Config{
		KernelcachePath: v.GetString("kernelcache"),
		Slide:           v.GetUint64("slide"),
		Budget:          v.GetInt("budget"),
		Strategy:        v.GetString("strategy"),
		LogFile:         v.GetString("log-file"),
	}, nil
}
