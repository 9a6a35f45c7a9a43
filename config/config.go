// Package config loads optimizer profiles from YAML sources and
// resolves their transform-selector expressions.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/onigkit/onigkit/optimizer"
	"github.com/onigkit/onigkit/parser"
)

const (
	defaultPort     = 5734
	defaultLogLevel = "warn"
)

// Profile is one named optimizer configuration.
type Profile struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"desc,omitempty"`
	Flags       string       `yaml:"flags,omitempty"`
	Rules       parser.Rules `yaml:"rules,omitempty"`
	// Allow is a selector expression whitelisting transforms, e.g.
	// "use-shorthands + unwrap-classes".
	Allow string `yaml:"allow,omitempty"`
	// Override is a selector expression applied on top of the
	// defaults, e.g. "all - alternation-to-class".
	Override string `yaml:"override,omitempty"`
}

// OptimizerOptions resolves the profile into optimizer options.
func (p *Profile) OptimizerOptions() (*optimizer.Options, error) {
	opts := &optimizer.Options{
		Flags: p.Flags,
		Rules: p.Rules,
	}
	if p.Allow != "" {
		sel, err := ParseSelector(p.Allow)
		if err != nil {
			return nil, fmt.Errorf("invalid allow expression in profile '%s': %w", p.ID, err)
		}
		allow, err := sel.AllowList()
		if err != nil {
			return nil, fmt.Errorf("invalid allow expression in profile '%s': %w", p.ID, err)
		}
		opts.Allow = allow
	}
	if p.Override != "" {
		sel, err := ParseSelector(p.Override)
		if err != nil {
			return nil, fmt.Errorf("invalid override expression in profile '%s': %w", p.ID, err)
		}
		opts.Override = sel.OverrideMap()
	}
	return opts, nil
}

// Config is the root configuration containing multiple profiles.
type Config struct {
	Port     int       `yaml:"port,omitempty"`
	LogLevel string    `yaml:"loglevel,omitempty"`
	Profiles []Profile `yaml:"profiles,omitempty"`
}

// Profile returns the profile with the given ID.
func (c *Config) Profile(id string) (*Profile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// LoadFromSources loads configuration from a main config file plus
// individual profile files and merges them. Either source may be
// empty, but profile IDs must stay unique across all of them.
func LoadFromSources(configFile string, profileFiles []string) (*Config, error) {
	var result Config
	seenIDs := make(map[string]bool)

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configFile, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("EOF: config file '%s' is empty", configFile)
		}
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file '%s': %w", configFile, err)
		}
		for _, p := range result.Profiles {
			if seenIDs[p.ID] {
				return nil, fmt.Errorf("duplicate profile ID found: %s", p.ID)
			}
			seenIDs[p.ID] = true
		}
	}

	for _, file := range profileFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to read profile file")
			continue
		}
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to parse YAML profile file")
			continue
		}
		if seenIDs[p.ID] {
			log.Error().Str("file", file).Str("profile-id", p.ID).Msg("Duplicate profile ID found")
			continue
		}
		seenIDs[p.ID] = true
		result.Profiles = append(result.Profiles, p)
	}

	if err := validateProfiles(result.Profiles); err != nil {
		return nil, err
	}

	if result.Port == 0 {
		result.Port = defaultPort
	}
	if result.LogLevel == "" {
		result.LogLevel = defaultLogLevel
	}
	return &result, nil
}

func validateProfiles(profiles []Profile) error {
	for i, p := range profiles {
		if p.ID == "" {
			return fmt.Errorf("profile at index %d has no ID", i)
		}
		if _, err := p.OptimizerOptions(); err != nil {
			return err
		}
	}
	return nil
}
