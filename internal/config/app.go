package config

import (
	"log"
	"os"
	"sync"
)

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Provider string // "gemini" (default) or "openrouter"
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		name := os.Getenv("APP_NAME")
		if name == "" {
			name = "convoeval"
		}
		port := os.Getenv("APP_PORT")
		if port == "" {
			port = ":8080"
		}
		provider := os.Getenv("EVAL_PROVIDER")
		if provider == "" {
			provider = "gemini"
		}
		appConfig = &AppConfig{
			Name:     name,
			Env:      env,
			Port:     port,
			Provider: provider,
		}
	})
	return appConfig
}
