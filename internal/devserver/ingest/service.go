package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fileuploader/uploadwatch/internal/utils"
	"github.com/google/uuid"
)

// Service owns staging, background processing and the feeds of every upload
type Service struct {
	feeds      *FeedRegistry
	processor  *Processor
	stagingDir string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Config struct {
	StagingDir    string // defaults to the os temp dir
	BatchSize     int
	MaxWorkers    int
	RetainUploads int
}

func NewService(repo StudentWriter, cfg *Config) (*Service, error) {
	feeds, err := NewFeedRegistry(cfg.RetainUploads)
	if err != nil {
		return nil, fmt.Errorf("feed registry: %w", err)
	}

	stagingDir := cfg.StagingDir
	if stagingDir == "" {
		stagingDir = os.TempDir()
	}
	if err := utils.EnsureDir(stagingDir); err != nil {
		return nil, fmt.Errorf("staging dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		feeds:      feeds,
		processor:  NewProcessor(repo, cfg.BatchSize, cfg.MaxWorkers),
		stagingDir: stagingDir,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Stage copies an uploaded file to disk so processing outlives the request
func (s *Service) Stage(name string, src io.Reader) (StagedFile, error) {
	tmp, err := os.CreateTemp(s.stagingDir, "upload-*.csv")
	if err != nil {
		return StagedFile{}, fmt.Errorf("create staged file: %w", err)
	}
	defer tmp.Close()

	n, err := io.Copy(tmp, src)
	if err != nil {
		os.Remove(tmp.Name())
		return StagedFile{}, fmt.Errorf("write staged file: %w", err)
	}

	return StagedFile{Name: name, Path: tmp.Name(), Size: n}, nil
}

// Discard removes staged files of an upload that was refused
func (s *Service) Discard(files []StagedFile) {
	for _, f := range files {
		os.Remove(f.Path)
	}
}

// Start assigns an upload id and processes files in the background
func (s *Service) Start(files []StagedFile) string {
	id := uuid.NewString()
	feed := s.feeds.Create(id)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processor.Process(s.ctx, feed, files)
		s.feeds.Finish(feed, s.ctx.Err() != nil)
	}()

	slog.Info("ingest started", "uploadId", id, "files", len(files))
	return id
}

// Feed returns the progress feed of an upload
func (s *Service) Feed(id string) (*Feed, bool) {
	return s.feeds.Get(id)
}

// Active returns the number of uploads still processing
func (s *Service) Active() int {
	return s.feeds.Active()
}

// Shutdown cancels processing and waits for it to stop
func (s *Service) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
