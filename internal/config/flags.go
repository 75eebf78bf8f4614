package config

import "github.com/spf13/pflag"

// Overrides are command-line values that win over the config file. Empty
// strings, false and a negative MetaLayer leave the file setting alone.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	MetaLayer  int
}

// BindFlags registers the override flags on fs and returns the struct they
// fill in.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	o := &Overrides{MetaLayer: -1}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Write logs to this file as well")
	fs.IntVar(&o.MetaLayer, "meta-layer", -1, "Layer for copied subtrees (0-31)")
	return o
}

// apply copies the set overrides onto cfg.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.MetaLayer >= 0 {
		cfg.Retarget.MetaLayer = o.MetaLayer
	}
}
