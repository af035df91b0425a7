package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix             = "UPLOADWATCH"
	defaultServerURL      = uploadsdk.DefaultBaseURL
	defaultMaxItems       = 10000
	defaultRequestTimeout = 30 * time.Second
)

var (
	home, _        = os.UserHomeDir()
	defaultLogFile = filepath.Join(home, ".uploadwatch", "logs", "uploadwatch.log")
)

var (
	ErrBadMaxItems = errors.New("max items must not be negative")
	ErrBadTimeout  = errors.New("request timeout must not be negative")
)

// viper key -> flag name
var configFlags = map[string]string{
	"server_url":      "server",
	"log_file":        "log-file",
	"max_items":       "max-items",
	"request_timeout": "timeout",
	"plain":           "plain",
	"verbose":         "verbose",
}

type cliConfig struct {
	ServerURL      string
	LogFile        string
	MaxItems       int
	RequestTimeout time.Duration
	Plain          bool
	Verbose        bool
}

func (c *cliConfig) Validate() error {
	sdkCfg := c.sdkConfig()
	if err := sdkCfg.Validate(); err != nil {
		return err
	}
	if c.MaxItems < 0 {
		return ErrBadMaxItems
	}
	if c.RequestTimeout < 0 {
		return ErrBadTimeout
	}
	return nil
}

func (c *cliConfig) sdkConfig() *uploadsdk.Config {
	return &uploadsdk.Config{
		BaseURL: c.ServerURL,
		Timeout: c.RequestTimeout,
	}
}

// loadConfig resolves settings from flags, UPLOADWATCH_* env vars and an optional .env file
func loadConfig(cmd *cobra.Command) (*cliConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for key, name := range configFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(name)
		}
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	cfg := &cliConfig{
		ServerURL:      v.GetString("server_url"),
		LogFile:        v.GetString("log_file"),
		MaxItems:       v.GetInt("max_items"),
		RequestTimeout: v.GetDuration("request_timeout"),
		Plain:          v.GetBool("plain"),
		Verbose:        v.GetBool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
