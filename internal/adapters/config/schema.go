package config

// ConfigFileExtensions are the config file formats looked up in each directory, in priority order.
var ConfigFileExtensions = []string{".yaml", ".yml", ".json"}

// fileConfig is the on-disk shape of backfill.config.* files and of the merged settings.
type fileConfig struct {
	Name                string        `mapstructure:"name"`
	CacheStorageConfig  storageConfig `mapstructure:"cacheStorageConfig"`
	OutputGlob          []string      `mapstructure:"outputGlob"`
	Mode                string        `mapstructure:"mode"`
	InternalCacheFolder string        `mapstructure:"internalCacheFolder"`
	LogFolder           string        `mapstructure:"logFolder"`
	LogLevel            string        `mapstructure:"logLevel"`
	WatchGlobs          []string      `mapstructure:"watchGlobs"`
	ClearOutput         bool          `mapstructure:"clearOutput"`
}

// storageConfig carries the provider selector and its untyped options.
type storageConfig struct {
	Provider string         `mapstructure:"provider"`
	Options  map[string]any `mapstructure:"options"`
}
