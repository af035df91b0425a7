package uploadsdk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/imroc/req/v3"
)

const uploadCallbackInterval = 250 * time.Millisecond

// UploadAPI submits batches of csv files
type UploadAPI struct {
	client *req.Client
}

func newUploadAPI(client *req.Client) *UploadAPI {
	return &UploadAPI{client: client}
}

// ValidateFiles checks a selection before anything is sent.
// Checks run in order: empty selection, file type, existence, duplicates.
func ValidateFiles(paths []string) error {
	if len(paths) == 0 {
		return &ValidationError{Err: ErrNoFiles}
	}

	var invalid []string
	for _, p := range paths {
		if !strings.HasSuffix(strings.ToLower(p), uploadFileSuffix) {
			invalid = append(invalid, filepath.Base(p))
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Files: invalid, Err: ErrInvalidType}
	}

	var missing []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			missing = append(missing, p)
		} else if err != nil {
			return &ValidationError{Files: []string{p}, Err: err}
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Files: missing, Err: ErrFileNotFound}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	dupes := mapset.NewThreadUnsafeSet[string]()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		if !seen.Add(abs) {
			dupes.Add(p)
		}
	}
	if dupes.Cardinality() > 0 {
		names := dupes.ToSlice()
		slices.Sort(names)
		return &ValidationError{Files: names, Err: ErrDuplicateFile}
	}

	return nil
}

// Submit validates the selection and posts every file in one multipart request.
// The request is never retried: a second attempt would start a second batch.
func (u *UploadAPI) Submit(ctx context.Context, params *SubmitParams) (*SubmitResponse, error) {
	if err := ValidateFiles(params.Paths); err != nil {
		return nil, err
	}

	var apiResp SubmitResponse
	r := u.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetSuccessResult(&apiResp)

	for _, p := range params.Paths {
		r.SetFile(uploadFormField, p)
	}

	if params.Callback != nil {
		r.SetUploadCallbackWithInterval(func(info req.UploadInfo) {
			params.Callback(UploadProgress{
				FileName: info.FileName,
				Sent:     info.UploadedSize,
				Total:    info.FileSize,
			})
		}, uploadCallbackInterval)
	}

	resp, err := r.Post(v1Upload)
	if err := handleSubmitError(resp, err); err != nil {
		return nil, err
	}

	if apiResp.UploadID == "" {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: ErrNoUploadID}
	}

	return &apiResp, nil
}

// String is used in log lines
func (r *SubmitResponse) String() string {
	return fmt.Sprintf("upload_id=%s", r.UploadID)
}
