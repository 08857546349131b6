// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Content struct {
		Root        string `json:"root"`
		CacheSize   int    `json:"cache_size"`
		CompressMin int    `json:"compress_min"`
	} `json:"content"`

	Repository struct {
		Name   string `json:"name"`
		Root   string `json:"root"`   // working tree watched for local changes
		Bundle string `json:"bundle"` // bundle directory replayed at startup
	} `json:"repository"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

func DefaultPath() string {
	env := os.Getenv("REVFLOW_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
