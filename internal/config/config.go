// Package config loads the optional settings file shared by cmd/backchainctl
// and cmd/backchaind.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// CLI holds settings that apply to the interactive front end.
type CLI struct {
	// DisablePurgeFalseOnReset turns off the default behavior of purging
	// false-valued facts between interactive lines. Left at its zero value
	// (false), the purge happens by default even when no backchain.toml is
	// present.
	DisablePurgeFalseOnReset bool `toml:"disable_purge_false_on_reset"`
	PrettyPrintDefault       bool `toml:"pretty_print_default"`
}

// Server holds settings that apply to the HTTP service.
type Server struct {
	Listen      string `toml:"listen"`
	TokenSecret string `toml:"token_secret"`
	DB          string `toml:"db"`
}

// Config is the full decoded contents of a backchain.toml settings file.
type Config struct {
	CLI    CLI    `toml:"cli"`
	Server Server `toml:"server"`
}

// Load decodes the TOML file at path into a Config. If path does not exist,
// Load returns a zero-value Config and a nil error, the same way
// server/config.go's Database.Connect defaults to an in-memory store rather
// than treating an absent setting as fatal; any other read or decode failure
// is returned as-is.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
