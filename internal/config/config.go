package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Webhook struct {
		SignatureHeader string `yaml:"signature_header"`
		KeyringAccount  string `yaml:"keyring_account"`
	} `yaml:"webhook"`

	Assets struct {
		Dir          string  `yaml:"dir"`
		MaxBytes     int64   `yaml:"max_bytes"`
		HostPerSec   float64 `yaml:"host_per_sec"`
		HostBurst    int     `yaml:"host_burst"`
		SweepMinutes int     `yaml:"sweep_minutes"`
	} `yaml:"assets"`

	Registration struct {
		BaseURL        string   `yaml:"base_url"`
		WebhookURL     string   `yaml:"webhook_url"`
		Events         []string `yaml:"events"`
		KeyringAccount string   `yaml:"keyring_account"`
	} `yaml:"registration"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
