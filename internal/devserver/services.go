package devserver

import (
	"fmt"

	"github.com/fileuploader/uploadwatch/internal/devserver/ingest"
	"github.com/fileuploader/uploadwatch/internal/records"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Students *records.StudentRepository
	Ingest   *ingest.Service
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	repo, err := records.NewStudentRepository(db)
	if err != nil {
		return nil, fmt.Errorf("students repository: %w", err)
	}

	ingestSvc, err := ingest.NewService(repo, &ingest.Config{
		StagingDir:    config.StagingDir,
		BatchSize:     config.BatchSize,
		MaxWorkers:    config.MaxWorkers,
		RetainUploads: config.RetainUploads,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest service: %w", err)
	}

	return &Services{
		Students: repo,
		Ingest:   ingestSvc,
	}, nil
}

func (s *Services) Shutdown() {
	s.Ingest.Shutdown()
}
