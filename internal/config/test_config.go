package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		CMS: CMSConfig{
			Endpoint:          "http://127.0.0.1/api/v2",
			DocumentType:      "posts",
			PageSize:          2,
			HTTPTimeout:       5 * time.Second,
			UserAgent:         "trvl-test/1.0",
			AllowPrivateHosts: true,
		},
		Database: DatabaseConfig{
			Path:       "",
			Timeout:    1 * time.Second,
			Revalidate: 10 * time.Minute,
		},
		Log:  LogConfig{Level: "off"},
		UI:   defaultConfig().UI,
		Keys: defaultConfig().Keys,
	}
}
