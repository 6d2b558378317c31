package models

// MConfig Structure
type MConfig struct {
	Name      string         `yaml:"name"`
	Host      string         `yaml:"host"`
	Port      int            `yaml:"port"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"` // "json" or "console"
	GrpcHost  string         `yaml:"grpc_host"`
	GrpcPort  int            `yaml:"grpc_port"`
	Timezone  string         `yaml:"timezone"` // used to render intraday labels
	Feed      MFeedConfig    `yaml:"feed"`
	Store     MStoreConfig   `yaml:"store"`
	Chart     MChartConfig   `yaml:"chart"`
	Storage   MStorageConfig `yaml:"storage"`
}

type MFeedConfig struct {
	URL            string `yaml:"url"`
	ReadLimitBytes int64  `yaml:"read_limit_bytes"`
	EventBuffer    int    `yaml:"event_buffer"`
}

type MStoreConfig struct {
	IntradayCapacity int `yaml:"intraday_capacity"`
}

type MChartConfig struct {
	Width        int      `yaml:"width"`
	DefaultRange string   `yaml:"default_range"`
	Ranges       []MRange `yaml:"ranges"`
}

// MStorageConfig configures the optional write-only archive of applied events.
type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"` // 0 keeps ticks forever
}
