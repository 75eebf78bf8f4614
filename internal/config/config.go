// Package config handles rigbridge configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/rigbridge/internal/logger"
	"github.com/Faultbox/rigbridge/pkg/rig"
)

// Config holds all rigbridge settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Retarget RetargetConfig `yaml:"retarget"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// RetargetConfig holds the defaults used when bones are moved between rigs.
type RetargetConfig struct {
	MetaLayer          int      `yaml:"meta_layer"`           // layer for copied subtrees, 0..31
	BoneScale          float32  `yaml:"bone_scale"`           // scale applied by single bone copies
	CopyPositionOffset float32  `yaml:"copy_position_offset"` // offset along the averaged bone axis
	NamePrefixes       []string `yaml:"name_prefixes"`        // stripped in order by lookups
	EqualityPrefixes   []string `yaml:"equality_prefixes"`    // ignored by name comparison
	MappingFile        string   `yaml:"mapping_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	r := rig.DefaultResolver()
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Retarget: RetargetConfig{
			MetaLayer:          3,
			BoneScale:          1,
			CopyPositionOffset: 0,
			NamePrefixes:       r.Lookup,
			EqualityPrefixes:   r.Equality,
		},
	}
}

// Resolver builds the bone name resolver from the configured prefixes.
func (r RetargetConfig) Resolver() rig.Resolver {
	return rig.Resolver{
		Lookup:   append([]string(nil), r.NamePrefixes...),
		Equality: append([]string(nil), r.EqualityPrefixes...),
	}
}

// Validate reports every setting that is out of range.
func (c *Config) Validate() error {
	var err error
	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	if c.Retarget.MetaLayer < 0 || c.Retarget.MetaLayer > 31 {
		err = multierr.Append(err, fmt.Errorf("retarget.meta_layer: %d is outside 0..31", c.Retarget.MetaLayer))
	}
	if c.Retarget.BoneScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("retarget.bone_scale: must be positive, got %v", c.Retarget.BoneScale))
	}
	for i, p := range c.Retarget.NamePrefixes {
		if p == "" {
			err = multierr.Append(err, fmt.Errorf("retarget.name_prefixes[%d]: empty prefix", i))
		}
	}
	for i, p := range c.Retarget.EqualityPrefixes {
		if p == "" {
			err = multierr.Append(err, fmt.Errorf("retarget.equality_prefixes[%d]: empty prefix", i))
		}
	}
	return err
}
