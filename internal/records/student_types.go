package records

import (
	"errors"
)

var (
	ErrInvalidFilter   = errors.New("Invalid filter")
	ErrStudentNotExist = errors.New("student does not exist")
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Student is one row of an uploaded csv
type Student struct {
	StudentID   string `db:"student_id" json:"Student_id"`
	StudentName string `db:"student_name" json:"Student_name"`
	Subject     string `db:"subject" json:"Subject"`
	Grade       uint   `db:"grade" json:"Grade"`
}

type Course string

const (
	Mathematics Course = "Mathematics"
	Physics     Course = "Physics"
	Chemistry   Course = "Chemistry"
	Biology     Course = "Biology"
	History     Course = "History"
	EnglishLit  Course = "English Literature"
	CompSci     Course = "Computer Science"
	Art         Course = "Art"
	Music       Course = "Music"
	Geography   Course = "Geography"
)

var validCourses = map[Course]bool{
	Mathematics: true,
	Physics:     true,
	Chemistry:   true,
	Biology:     true,
	History:     true,
	EnglishLit:  true,
	CompSci:     true,
	Art:         true,
	Music:       true,
	Geography:   true,
}

func (c Course) Valid() bool {
	return validCourses[c]
}

// SortColumn is a sortable column, named as it appears in json
type SortColumn string

const (
	SortByID      SortColumn = "Student_id"
	SortByName    SortColumn = "Student_name"
	SortBySubject SortColumn = "Subject"
	SortByGrade   SortColumn = "Grade"
)

// student ids are random, so sorting by them is refused
var sortColumns = map[SortColumn]string{
	SortByName:    "student_name",
	SortBySubject: "subject",
	SortByGrade:   "grade",
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query selects one page of students
type Query struct {
	Page      int
	Size      int
	SortBy    SortColumn
	SortOrder SortOrder
	Name      string // case-insensitive substring
	Subject   Course // exact match
}

// Normalize applies paging defaults and rejects unknown sort or subject values
func (q *Query) Normalize() error {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > MaxPageSize {
		q.Size = DefaultPageSize
	}

	if q.SortBy != "" {
		if _, ok := sortColumns[q.SortBy]; !ok {
			return ErrInvalidFilter
		}
	}

	if q.SortOrder != "" && q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return ErrInvalidFilter
	}

	if q.Subject != "" && !q.Subject.Valid() {
		return ErrInvalidFilter
	}

	return nil
}
