package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Data      DataConfig      `yaml:"data"`
	I18n      I18nConfig      `yaml:"i18n"`
	Templates []TemplateEntry `yaml:"templates"`
	Export    ExportConfig    `yaml:"export"`
	Fetch     FetchConfig     `yaml:"fetch"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type I18nConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

// TemplateEntry is one template offered when creating a file.
type TemplateEntry struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Language    string `yaml:"language" json:"language"`
	URL         string `yaml:"url" json:"url"`
}

type ExportConfig struct {
	Title string `yaml:"title"`
}

type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/aap.db",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		I18n: I18nConfig{
			DefaultLanguage: "en",
		},
		Templates: []TemplateEntry{
			{
				ID:          "wahafa_2_en",
				Name:        "WAHAFA AAP 2.0",
				Description: "The new and improved Anticipatory Action template by WHH",
				Language:    "english",
				URL:         "https://raw.githubusercontent.com/tmrk/aap-builder/refs/heads/main/src/aap-templates/aap-template_wahafa_2_en.json",
			},
			{
				ID:          "wahafa_2_fr",
				Name:        "WAHAFA AAP 2.0",
				Description: "Le nouveau modèle d'action anticipée amélioré de WHH en français",
				Language:    "french",
				URL:         "https://raw.githubusercontent.com/tmrk/aap-builder/refs/heads/main/src/aap-templates/aap-template_wahafa_2_fr.json",
			},
		},
		Export: ExportConfig{
			Title: "Anticipatory Action Protocol (AAP)",
		},
		Fetch: FetchConfig{
			Timeout: 15 * time.Second,
		},
	}
}

func loadConfig() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		klog.Warningf("load .env: %v", err)
	}

	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("parse %s: %v", configPath, err)
		}
	}

	applyEnv(config)
	return config
}

// applyEnv lets environment variables override the config file.
func applyEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		config.Server.Mode = mode
	} else if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
	}

	if lang := os.Getenv("DEFAULT_LANGUAGE"); lang != "" {
		config.I18n.DefaultLanguage = strings.ToLower(lang)
	}

	if timeout := os.Getenv("TEMPLATE_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			config.Fetch.Timeout = d
		} else {
			klog.Warningf("ignoring TEMPLATE_FETCH_TIMEOUT=%q", timeout)
		}
	}
}

// Template returns the catalog entry with the given id.
func (c *Config) Template(id string) (TemplateEntry, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return TemplateEntry{}, false
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func UpdateConfig(newCfg *Config) {
	cfg = newCfg
}
