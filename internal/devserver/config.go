package devserver

import (
	"errors"
)

const (
	DefaultAddr          = "127.0.0.1:8080"
	DefaultDBPath        = "uploadwatch.db"
	DefaultBatchSize     = 2000
	DefaultMaxWorkers    = 10
	DefaultRetainUploads = 128
	DefaultMaxUploadMem  = 32 << 20 // 32 MiB held in memory, the rest spools to disk
)

var (
	ErrNoAddr       = errors.New("server: listen address missing")
	ErrBadBatchSize = errors.New("server: batch size must be positive")
	ErrBadWorkers   = errors.New("server: max workers must be positive")
)

type Config struct {
	Addr          string
	DBPath        string // ":memory:" keeps records in memory
	StagingDir    string
	BatchSize     int
	MaxWorkers    int
	RetainUploads int
	MaxUploadMem  int64
}

func DefaultConfig() *Config {
	return &Config{
		Addr:          DefaultAddr,
		DBPath:        DefaultDBPath,
		BatchSize:     DefaultBatchSize,
		MaxWorkers:    DefaultMaxWorkers,
		RetainUploads: DefaultRetainUploads,
		MaxUploadMem:  DefaultMaxUploadMem,
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrNoAddr
	}
	if c.BatchSize <= 0 {
		return ErrBadBatchSize
	}
	if c.MaxWorkers <= 0 {
		return ErrBadWorkers
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.MaxUploadMem <= 0 {
		c.MaxUploadMem = DefaultMaxUploadMem
	}
	return nil
}
