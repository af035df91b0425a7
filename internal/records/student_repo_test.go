package records

import (
	"context"
	"fmt"
	"testing"

	"github.com/fileuploader/uploadwatch/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *StudentRepository {
	t.Helper()
	conn, err := db.Open()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo, err := NewStudentRepository(conn)
	require.NoError(t, err)
	return repo
}

func seed(t *testing.T, repo *StudentRepository) {
	t.Helper()
	students := []*Student{
		{StudentID: "00000000-0000-0000-0000-000000000001", StudentName: "Ann Lee", Subject: "Art", Grade: 91},
		{StudentID: "00000000-0000-0000-0000-000000000002", StudentName: "Bob Stone", Subject: "Music", Grade: 72},
		{StudentID: "00000000-0000-0000-0000-000000000003", StudentName: "Cara Lee", Subject: "Art", Grade: 85},
		{StudentID: "00000000-0000-0000-0000-000000000004", StudentName: "Dan_Underscore", Subject: "Physics", Grade: 60},
	}
	require.NoError(t, repo.CreateMany(context.Background(), students))
}

func names(students []*Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.StudentName)
	}
	return out
}

func TestStudentRepository_CreateMany(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateMany(ctx, nil))
	seed(t, repo)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// same id replaces the row
	require.NoError(t, repo.CreateMany(ctx, []*Student{
		{StudentID: "00000000-0000-0000-0000-000000000002", StudentName: "Bob Stone", Subject: "Music", Grade: 99},
	}))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	bobs, err := repo.GetByName(ctx, "Bob Stone")
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, uint(99), bobs[0].Grade)
}

func TestStudentRepository_Query(t *testing.T) {
	repo := setupRepo(t)
	seed(t, repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		q         Query
		wantNames []string
		wantCount int64
	}{
		{
			name:      "defaults keep insertion order",
			q:         Query{},
			wantNames: []string{"Ann Lee", "Bob Stone", "Cara Lee", "Dan_Underscore"},
			wantCount: 4,
		},
		{
			name:      "subject filter",
			q:         Query{Subject: Art},
			wantNames: []string{"Ann Lee", "Cara Lee"},
			wantCount: 2,
		},
		{
			name:      "name is a case-insensitive substring",
			q:         Query{Name: "lee"},
			wantNames: []string{"Ann Lee", "Cara Lee"},
			wantCount: 2,
		},
		{
			name:      "like wildcards in the name are literal",
			q:         Query{Name: "_"},
			wantNames: []string{"Dan_Underscore"},
			wantCount: 1,
		},
		{
			name:      "grade descending",
			q:         Query{SortBy: SortByGrade, SortOrder: SortDesc},
			wantNames: []string{"Ann Lee", "Cara Lee", "Bob Stone", "Dan_Underscore"},
			wantCount: 4,
		},
		{
			name:      "name ascending by default order",
			q:         Query{SortBy: SortByName},
			wantNames: []string{"Ann Lee", "Bob Stone", "Cara Lee", "Dan_Underscore"},
			wantCount: 4,
		},
		{
			name:      "count covers every match, page holds the slice",
			q:         Query{SortBy: SortByGrade, SortOrder: SortAsc, Page: 2, Size: 3},
			wantNames: []string{"Ann Lee"},
			wantCount: 4,
		},
		{
			name:      "page past the end",
			q:         Query{Page: 5, Size: 2},
			wantNames: []string{},
			wantCount: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count, err := repo.Query(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantNames, names(got))
		})
	}
}

func TestStudentRepository_QueryRejectsBadFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, q := range []Query{
		{SortBy: SortByID},
		{SortBy: "age"},
		{SortOrder: "sideways"},
		{Subject: "Alchemy"},
	} {
		t.Run(fmt.Sprintf("%+v", q), func(t *testing.T) {
			_, _, err := repo.Query(ctx, q)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestQuery_NormalizePaging(t *testing.T) {
	q := Query{Page: -1, Size: MaxPageSize + 1}
	require.NoError(t, q.Normalize())
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.Size)

	q = Query{Page: 3, Size: MaxPageSize}
	require.NoError(t, q.Normalize())
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, MaxPageSize, q.Size)
}

func TestStudentRepository_GetByNameMissing(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.GetByName(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrStudentNotExist)
}
