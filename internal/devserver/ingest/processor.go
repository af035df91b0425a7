// Package ingest turns uploaded csv files into student rows and per-file progress feeds.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fileuploader/uploadwatch/internal/records"
	"github.com/fileuploader/uploadwatch/internal/statusmsg"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	StudentsHeader = "student_id,student_name,subject,grade"

	studentsColumns       = 4
	defaultStatusInterval = 100 * time.Millisecond
	warmupStatusInterval  = 50 * time.Millisecond
	warmupRecords         = 10
)

var (
	ErrInvalidHeader = errors.New("invalid CSV header")
	ErrFileEmpty     = errors.New("File is empty")
)

// StudentWriter is where parsed rows go
type StudentWriter interface {
	CreateMany(ctx context.Context, students []*records.Student) error
}

// StagedFile is an uploaded file copied to local disk
type StagedFile struct {
	Name string
	Path string
	Size int64
}

// Processor parses staged csv files into the students table and reports progress on a feed
type Processor struct {
	repo           StudentWriter
	batchSize      int
	maxWorkers     int
	statusInterval time.Duration
}

func NewProcessor(repo StudentWriter, batchSize, maxWorkers int) *Processor {
	return &Processor{
		repo:           repo,
		batchSize:      max(batchSize, 1),
		maxWorkers:     max(maxWorkers, 1),
		statusInterval: defaultStatusInterval,
	}
}

// Process handles every file of one upload, at most maxWorkers at a time. Item ids are the
// file positions in the upload. Staged files are removed when done.
func (p *Processor) Process(ctx context.Context, feed *Feed, files []StagedFile) {
	defer func() {
		for _, f := range files {
			os.Remove(f.Path)
		}
	}()

	// every item is known before any can finish, so a batch never looks complete early
	for i := range files {
		feed.Publish(statusmsg.Status{Id: i})
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i, f := range files {
		g.Go(func() error {
			err := p.processFile(gctx, i, f, feed)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				slog.Warn("processor file failed", "uploadId", feed.ID(), "item", i, "file", f.Name, "error", err)
				feed.Publish(statusmsg.Status{Id: i, Error: fmt.Sprintf("Processing failed: %v", err)})
			}
			// one failed file never stops its siblings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("processor cancelled", "uploadId", feed.ID(), "error", err)
		return
	}
	slog.Info("processor done", "uploadId", feed.ID(), "files", len(files), "took", time.Since(start))
}

func (p *Processor) processFile(ctx context.Context, id int, file StagedFile, feed *Feed) error {
	if file.Size == 0 {
		feed.Publish(statusmsg.Status{Id: id, Percent: 100, Error: ErrFileEmpty.Error()})
		return nil
	}

	fh, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer fh.Close()

	counter := &countingReader{r: fh}
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = studentsColumns
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("error reading CSV header: %w", err)
	}

	buffer := make([]*records.Student, 0, p.batchSize)
	started := time.Now()
	lastStatus := started
	count := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading csv file: %w", err)
		}
		count++

		student, err := MapStudent(row)
		if err != nil {
			return fmt.Errorf("error mapping csv record %d: %w", count, err)
		}
		buffer = append(buffer, student)

		if len(buffer) >= p.batchSize {
			if err := p.repo.CreateMany(ctx, buffer); err != nil {
				return fmt.Errorf("error inserting batch: %w", err)
			}
			buffer = buffer[:0]
		}

		interval := p.statusInterval
		if count < warmupRecords {
			interval = min(interval, warmupStatusInterval)
		}
		if time.Since(lastStatus) > interval {
			feed.Publish(progressStatus(id, counter.n, file.Size, time.Since(started)))
			lastStatus = time.Now()
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if len(buffer) > 0 {
		if err := p.repo.CreateMany(ctx, buffer); err != nil {
			return fmt.Errorf("error inserting final batch: %w", err)
		}
	}

	feed.Publish(statusmsg.Status{Id: id, Percent: 100})
	return nil
}

// progressStatus estimates percent from bytes read and time left from throughput so far
func progressStatus(id int, read, size int64, elapsed time.Duration) statusmsg.Status {
	s := statusmsg.Status{Id: id}
	if size <= 0 {
		return s
	}
	s.Percent = float64(read) / float64(size) * 100

	if secs := elapsed.Seconds(); secs > 0 && read > 0 {
		speed := float64(read) / secs
		s.Timeleft = float64(size-read) / speed
	}
	return s
}

// MapStudent converts one csv row into a student
func MapStudent(row []string) (*records.Student, error) {
	if len(row) != studentsColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", studentsColumns, len(row))
	}

	id, err := uuid.Parse(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("error parsing student_id: %w", err)
	}

	grade, err := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("error parsing grade: %w", err)
	}

	return &records.Student{
		StudentID:   id.String(),
		StudentName: row[1],
		Subject:     row[2],
		Grade:       uint(grade),
	}, nil
}

// ValidateHeader checks the first csv line of r against the students header
func ValidateHeader(r io.Reader) error {
	header, err := csv.NewReader(r).Read()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if strings.Join(header, ",") != StudentsHeader {
		return ErrInvalidHeader
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
