package students

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fileuploader/uploadwatch/internal/devserver/api"
	"github.com/fileuploader/uploadwatch/internal/records"
	"github.com/gin-gonic/gin"
)

// StudentReader is the read side of the student repository
type StudentReader interface {
	Query(ctx context.Context, q records.Query) ([]*records.Student, int64, error)
	GetByName(ctx context.Context, name string) ([]*records.Student, error)
}

type StudentsHandler struct {
	repo StudentReader
}

func New(repo StudentReader) *StudentsHandler {
	return &StudentsHandler{repo: repo}
}

// List handles GET /api/students with filtering, sorting and pagination
func (h *StudentsHandler) List(ctx *gin.Context) {
	var req ListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("Invalid query parameters: %w", err))
		return
	}

	rows, count, err := h.repo.Query(ctx.Request.Context(), records.Query{
		Page:      req.Page,
		Size:      req.Size,
		SortBy:    records.SortColumn(req.SortBy),
		SortOrder: records.SortOrder(req.SortOrder),
		Name:      req.Name,
		Subject:   records.Course(req.Subject),
	})
	if errors.Is(err, records.ErrInvalidFilter) {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeStudentsInvalidFilter, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeStudentsQueryFailed, fmt.Errorf("Failed to fetch records: %w", err))
		return
	}

	ctx.PureJSON(http.StatusOK, ListResponse{Count: count, Records: rows})
}

// GetByName handles GET /api/students/name/:name
func (h *StudentsHandler) GetByName(ctx *gin.Context) {
	var req NameRequest
	if err := ctx.ShouldBindUri(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, errors.New("Missing path parameter"))
		return
	}

	rows, err := h.repo.GetByName(ctx.Request.Context(), req.Name)
	if errors.Is(err, records.ErrStudentNotExist) {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeStudentsNotFound, err)
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeStudentsQueryFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, rows)
}
