package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/fileuploader/uploadwatch/internal/devserver/api"
	"github.com/fileuploader/uploadwatch/internal/devserver/ingest"
	"github.com/gin-gonic/gin"
)

var (
	errNoFiles     = errors.New("No files were provided for upload")
	errInvalidType = errors.New("Invalid File type")
	errInvalidCSV  = errors.New("Invalid CSV columns")
)

type UploadHandler struct {
	svc *ingest.Service
}

func New(svc *ingest.Service) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// Upload stages every file of the multipart form, checks it is a students csv and
// starts processing. The response carries the id of the status stream.
func (h *UploadHandler) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("Failed to parse multipart form: %w", err))
		return
	}

	headers := form.File[formField]
	if len(headers) == 0 {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeUploadNoFiles, errNoFiles)
		return
	}

	staged := make([]ingest.StagedFile, 0, len(headers))
	for _, fh := range headers {
		if err := ctx.Request.Context().Err(); err != nil {
			h.svc.Discard(staged)
			return
		}

		file, status, code, err := h.stage(fh)
		if err != nil {
			h.svc.Discard(staged)
			api.AbortWithError(ctx, status, code, err)
			return
		}
		staged = append(staged, file)
	}

	id := h.svc.Start(staged)
	ctx.PureJSON(http.StatusOK, UploadResponse{UploadID: id})
}

func (h *UploadHandler) stage(fh *multipart.FileHeader) (ingest.StagedFile, int, string, error) {
	src, err := fh.Open()
	if err != nil {
		return ingest.StagedFile{}, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("Failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return ingest.StagedFile{}, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("Failed to read uploaded file: %w", err)
	}
	head = head[:n]

	if n > 0 {
		if ct := http.DetectContentType(head); !strings.Contains(ct, "csv") && !strings.HasPrefix(ct, "text/plain") {
			return ingest.StagedFile{}, http.StatusBadRequest, api.CodeUploadInvalidType, fmt.Errorf("%w: %s is %s", errInvalidType, fh.Filename, ct)
		}
		if err := ingest.ValidateHeader(bytes.NewReader(head)); err != nil && fullHeader(head) {
			return ingest.StagedFile{}, http.StatusBadRequest, api.CodeUploadInvalidCSV, fmt.Errorf("%w: %s", errInvalidCSV, fh.Filename)
		}
	}

	file, err := h.svc.Stage(fh.Filename, io.MultiReader(bytes.NewReader(head), src))
	if err != nil {
		return ingest.StagedFile{}, http.StatusInternalServerError, api.CodeInternalError, err
	}
	return file, 0, "", nil
}

// fullHeader reports whether head holds the whole first line, so a header longer
// than the sniffed prefix is left to the processor
func fullHeader(head []byte) bool {
	return bytes.IndexByte(head, '\n') >= 0 || len(head) < sniffLen
}
