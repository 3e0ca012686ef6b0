package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`

	Providers struct {
		LLM struct {
			Endpoint string `yaml:"endpoint"`
			Model    string `yaml:"model"`
			APIKey   string `yaml:"api_key"`
		} `yaml:"llm"`
		Pexels struct {
			Endpoint string `yaml:"endpoint"`
			APIKey   string `yaml:"api_key"`
		} `yaml:"pexels"`
		FallbackAssetURL string `yaml:"fallback_asset_url"`
	} `yaml:"providers"`

	Render struct {
		FPS             int `yaml:"fps"`
		Width           int `yaml:"width"`
		Height          int `yaml:"height"`
		DefaultDuration int `yaml:"default_duration"` // seconds per video
	} `yaml:"render"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}
	applyDefaults(AppConfig)
}

// applyDefaults fills render/provider defaults and lets env vars override API keys.
func applyDefaults(c *Config) {
	if c.Render.FPS <= 0 {
		c.Render.FPS = 30
	}
	if c.Render.Width <= 0 {
		c.Render.Width = 1080
	}
	if c.Render.Height <= 0 {
		c.Render.Height = 1920
	}
	if c.Render.DefaultDuration <= 0 {
		c.Render.DefaultDuration = 15
	}
	if c.Providers.Pexels.Endpoint == "" {
		c.Providers.Pexels.Endpoint = "https://api.pexels.com/videos/search"
	}
	if c.Providers.FallbackAssetURL == "" {
		c.Providers.FallbackAssetURL = "https://cdn.coverr.co/videos/coverr-vertical-city-lights-5310/1080p.mp4"
	}
	if env := os.Getenv("LLM_API_KEY"); env != "" {
		c.Providers.LLM.APIKey = env
	}
	if env := os.Getenv("PEXELS_API_KEY"); env != "" {
		c.Providers.Pexels.APIKey = env
	}
}
