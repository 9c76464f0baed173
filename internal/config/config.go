package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	UploadDir    string   `json:"upload_dir"`
	OutputDir    string   `json:"output_dir"`
	APIHost      string   `json:"api_host"`
	APIPort      int      `json:"api_port"`
	CORSOrigins  []string `json:"cors_origins"`
	JobsStore    string   `json:"jobs_store"`
	JobsPath     string   `json:"jobs_path"`
	NcbiCacheDir string   `json:"ncbi_cache_dir"`
	NcbiApiKey   string   `json:"ncbi_api_key"`
	LogFile      string   `json:"log_file"`
	LogLevel     string   `json:"log_level"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// In config-only mode, secrets must be provided as literal values in config.json.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	f, err := os.Open(path)
	if err != nil {
		// not fatal: return defaults
		return &Config{}, nil
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
