// Package records stores the students parsed from uploaded csv files.
package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/fileuploader/uploadwatch/internal/db"
	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS students (
	student_id TEXT PRIMARY KEY,
	student_name TEXT NOT NULL,
	subject TEXT NOT NULL,
	grade INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_students_name ON students(student_name);
CREATE INDEX IF NOT EXISTS idx_students_subject ON students(subject);
`

const insertSQL = `INSERT OR REPLACE INTO students (student_id, student_name, subject, grade)
VALUES (:student_id, :student_name, :subject, :grade)`

// StudentRepository persists students in sqlite
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates the schema if needed
func NewStudentRepository(conn *sqlx.DB) (*StudentRepository, error) {
	if err := db.Migrate(conn, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize students: %w", err)
	}
	return &StudentRepository{db: conn}, nil
}

// CreateMany stores a batch in one transaction. A student id seen again replaces the earlier row.
func (r *StudentRepository) CreateMany(ctx context.Context, students []*Student) error {
	if len(students) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range students {
		if _, err := stmt.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to insert student %s: %w", s.StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Query returns one page of students and the number of students matching the filters
func (r *StudentRepository) Query(ctx context.Context, q Query) ([]*Student, int64, error) {
	if err := q.Normalize(); err != nil {
		return nil, 0, err
	}

	var (
		where []string
		args  []any
	)
	if q.Name != "" {
		where = append(where, "student_name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(q.Name)+"%")
	}
	if q.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, string(q.Subject))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students"+whereSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	orderSQL := " ORDER BY rowid"
	if col, ok := sortColumns[q.SortBy]; ok {
		dir := "ASC"
		if q.SortOrder == SortDesc {
			dir = "DESC"
		}
		orderSQL = fmt.Sprintf(" ORDER BY %s %s, student_id", col, dir)
	}

	students := make([]*Student, 0, q.Size)
	listSQL := "SELECT student_id, student_name, subject, grade FROM students" + whereSQL + orderSQL + " LIMIT ? OFFSET ?"
	pageArgs := append(args, q.Size, (q.Page-1)*q.Size)
	if err := r.db.SelectContext(ctx, &students, listSQL, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}

	return students, count, nil
}

// GetByName returns every student with exactly this name
func (r *StudentRepository) GetByName(ctx context.Context, name string) ([]*Student, error) {
	var students []*Student
	err := r.db.SelectContext(ctx, &students,
		"SELECT student_id, student_name, subject, grade FROM students WHERE student_name = ? ORDER BY student_id", name)
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	if len(students) == 0 {
		return nil, ErrStudentNotExist
	}
	return students, nil
}

// Count returns the number of stored students
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
