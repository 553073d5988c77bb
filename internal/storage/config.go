package storage

type Config struct {
	Database struct {
		Path         string `yaml:"path"`
		FallbackPath string `yaml:"fallback_path"`
		SeedDefaults bool   `yaml:"seed_defaults"`
	} `yaml:"database"`

	Server struct {
		Addr            string `yaml:"addr"`
		AdminPassword   string `yaml:"admin_password"`
		JWTSecret       string `yaml:"jwt_secret"`
		TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	} `yaml:"server"`

	Notifications struct {
		Enabled   bool   `yaml:"enabled"`
		Recipient string `yaml:"recipient"`
	} `yaml:"notifications"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./oceans.db"
	cfg.Database.FallbackPath = "./oceans.fallback.json"
	cfg.Database.SeedDefaults = true
	cfg.Server.Addr = ":8080"
	cfg.Server.TokenTTLMinutes = 60
	cfg.Notifications.Enabled = true
	cfg.Notifications.Recipient = "partnerships@oceantracers.net"
	return cfg
}
