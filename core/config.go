package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		AppName  string

		Platform PlatformConfig
		Realtime RealtimeConfig
		Snapshot SnapshotConfig

		RollbarToken string
	}

	PlatformConfig struct {
		URL            string
		AnonKey        string
		RequestTimeout time.Duration
	}

	RealtimeConfig struct {
		URL            string // defaults to Platform.URL with the ws scheme
		InitialBackoff time.Duration
		MaxBackoff     time.Duration
	}

	SnapshotConfig struct {
		Path string // empty disables warm-start snapshots
	}
)

// LoadConfig reads configuration from an optional `.env.<env>` file and the
// environment, falling back to code defaults.
func LoadConfig(build string) *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("platformUrl", "http://localhost:8000")
	conf.SetDefault("platformAnonKey", "")
	conf.SetDefault("platformRequestTimeout", 15*time.Second)
	conf.SetDefault("realtimeUrl", "")
	conf.SetDefault("realtimeInitialBackoff", 500*time.Millisecond)
	conf.SetDefault("realtimeMaxBackoff", 30*time.Second)
	conf.SetDefault("snapshotPath", "")
	conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(".", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:    conf.GetBool("debug"),
		TestMode: conf.GetBool("testMode"),
		Env:      env,
		Build:    build,
		AppName:  conf.GetString("appName"),
		Platform: PlatformConfig{
			URL:            conf.GetString("platformUrl"),
			AnonKey:        conf.GetString("platformAnonKey"),
			RequestTimeout: conf.GetDuration("platformRequestTimeout"),
		},
		Realtime: RealtimeConfig{
			URL:            conf.GetString("realtimeUrl"),
			InitialBackoff: conf.GetDuration("realtimeInitialBackoff"),
			MaxBackoff:     conf.GetDuration("realtimeMaxBackoff"),
		},
		Snapshot: SnapshotConfig{
			Path: conf.GetString("snapshotPath"),
		},
		RollbarToken: conf.GetString("rollbarToken"),
	}
}
