package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if cfg.Retarget.MetaLayer != 3 {
		t.Errorf("expected meta layer 3, got %d", cfg.Retarget.MetaLayer)
	}
	if cfg.Retarget.BoneScale != 1 {
		t.Errorf("expected bone scale 1, got %f", cfg.Retarget.BoneScale)
	}
	if want := []string{"CC_Base_", "RL_"}; !reflect.DeepEqual(cfg.Retarget.NamePrefixes, want) {
		t.Errorf("expected name prefixes %v, got %v", want, cfg.Retarget.NamePrefixes)
	}
	if want := []string{"RL_", "CC_Base_"}; !reflect.DeepEqual(cfg.Retarget.EqualityPrefixes, want) {
		t.Errorf("expected equality prefixes %v, got %v", want, cfg.Retarget.EqualityPrefixes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: "debug"
  log_file: "rig.log"

retarget:
  meta_layer: 24
  bone_scale: 0.5
  copy_position_offset: 0.02
  name_prefixes: ["DEF-"]
  mapping_file: "cc3_to_rigify.yaml"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "rig.log" {
		t.Errorf("expected log file 'rig.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Retarget.MetaLayer != 24 {
		t.Errorf("expected meta layer 24, got %d", cfg.Retarget.MetaLayer)
	}
	if cfg.Retarget.BoneScale != 0.5 {
		t.Errorf("expected bone scale 0.5, got %f", cfg.Retarget.BoneScale)
	}
	if cfg.Retarget.CopyPositionOffset != 0.02 {
		t.Errorf("expected offset 0.02, got %f", cfg.Retarget.CopyPositionOffset)
	}
	if cfg.Retarget.MappingFile != "cc3_to_rigify.yaml" {
		t.Errorf("expected mapping file, got %s", cfg.Retarget.MappingFile)
	}

	// lists in the file replace the defaults, missing lists keep them
	if !reflect.DeepEqual(cfg.Retarget.NamePrefixes, []string{"DEF-"}) {
		t.Errorf("expected name prefixes from file, got %v", cfg.Retarget.NamePrefixes)
	}
	if len(cfg.Retarget.EqualityPrefixes) != 2 {
		t.Errorf("expected default equality prefixes, got %v", cfg.Retarget.EqualityPrefixes)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
retarget:
  meta_layer: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Retarget.MetaLayer = 32
	cfg.Retarget.BoneScale = 0
	cfg.Retarget.NamePrefixes = []string{"CC_Base_", ""}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 problems, got %d: %v", n, err)
	}
	for _, want := range []string{"logging.level", "meta_layer", "bone_scale", "name_prefixes[1]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidateLevels(t *testing.T) {
	tests := []struct {
		level string
		ok    bool
	}{
		{"debug", true},
		{"INFO", true},
		{"Warn", true},
		{"warning", true},
		{"error", true},
		{"chatty", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.Level = tt.level
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected %q to be accepted, got %v", tt.level, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("expected %q to be rejected", tt.level)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	cfg := Default()
	r := cfg.Retarget.Resolver()

	if !r.Same("RL_Neck", "CC_Base_Neck") {
		t.Error("default prefixes should make RL_Neck and CC_Base_Neck equal")
	}

	// the resolver owns its slices
	r.Lookup[0] = "X_"
	if cfg.Retarget.NamePrefixes[0] != "CC_Base_" {
		t.Error("changing the resolver changed the config")
	}
}

func TestBindFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "no flags",
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log file flag",
			args: []string{"--log-file", "/tmp/rig.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "/tmp/rig.log" {
					t.Errorf("expected log file /tmp/rig.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "meta layer zero",
			args: []string{"--meta-layer", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Retarget.MetaLayer != 0 {
					t.Errorf("expected meta layer 0, got %d", cfg.Retarget.MetaLayer)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet(tt.name, pflag.ContinueOnError)
			o := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Default()
			o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
logging:
  level: warn
retarget:
  meta_layer: 10
  bone_scale: 2
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(Overrides{ConfigPath: configPath, MetaLayer: 5})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// meta layer comes from the override, not the file
	if cfg.Retarget.MetaLayer != 5 {
		t.Errorf("expected meta layer 5 from override, got %d", cfg.Retarget.MetaLayer)
	}
	if cfg.Retarget.BoneScale != 2 {
		t.Errorf("expected bone scale 2 from file, got %f", cfg.Retarget.BoneScale)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn from file, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("retarget:\n  meta_layer: 40\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(Overrides{ConfigPath: configPath, MetaLayer: -1}); err == nil {
		t.Error("expected out of range meta layer to fail")
	}
	if _, err := Load(Overrides{ConfigPath: filepath.Join(tmpDir, "missing.yaml"), MetaLayer: -1}); err == nil {
		t.Error("expected missing explicit config to fail")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Retarget.MetaLayer = 7
	cfg.Retarget.MappingFile = "map.yaml"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("saved config differs after reload:\n got %+v\nwant %+v", loaded, cfg)
	}
}
