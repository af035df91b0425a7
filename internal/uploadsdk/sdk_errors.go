package uploadsdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/fileuploader/uploadwatch/internal/statusmsg"
	"github.com/imroc/req/v3"
)

var (
	// sdk common
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: server url must be http or https")

	// upload
	ErrNoFiles       = errors.New("sdk: no files selected")
	ErrInvalidType   = errors.New("sdk: only csv files are allowed")
	ErrFileNotFound  = errors.New("sdk: file not found")
	ErrDuplicateFile = errors.New("sdk: file selected more than once")
	ErrNoUploadID    = errors.New("sdk: response carried no upload id")

	// events
	ErrNoUploadIDToWatch = errors.New("sdk: events: upload id missing")
)

// ValidationError is returned when the local file selection is rejected. Nothing was sent.
type ValidationError struct {
	Files []string
	Err   error
}

func (e *ValidationError) Error() string {
	names := strings.Join(e.Files, ", ")
	switch {
	case errors.Is(e.Err, ErrNoFiles):
		return "Please select at least one CSV file to upload"
	case errors.Is(e.Err, ErrInvalidType):
		return fmt.Sprintf("Invalid file type(s): %s. Only CSV files are allowed.", names)
	case errors.Is(e.Err, ErrFileNotFound):
		return fmt.Sprintf("File(s) not found: %s", names)
	case errors.Is(e.Err, ErrDuplicateFile):
		return fmt.Sprintf("File(s) selected more than once: %s", names)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SubmissionError is returned when the batch could not be handed to the server.
// No upload id exists, so no status stream can be opened.
type SubmissionError struct {
	StatusCode int    // 0 if no response was received
	Body       string // response body, trimmed
	Err        error  // transport or decoding failure
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Error during upload: %v", e.Err)
	}
	msg := e.Body
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("Upload failed: %s", msg)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConnectionError describes how a status stream ended without being released by the client:
// either a close frame from the server or a transport failure.
type ConnectionError struct {
	Code   websocket.StatusCode // -1 when no close frame was received
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("WebSocket connection error occurred: %v", e.Err)
	}
	reason := e.Reason
	if reason == "" {
		reason = "Unknown reason"
	}
	return fmt.Sprintf("Connection closed: %s (%d)", reason, int(e.Code))
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Clean reports whether the server closed the stream with a normal close frame
func (e *ConnectionError) Clean() bool {
	return e.Err == nil && e.Code == websocket.StatusNormalClosure
}

// APIError is the json error body returned by the upload server
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError is the common error path for json api calls
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok && err.Message != "" {
			return fmt.Errorf("%s %w", operation, err)
		}
		return fmt.Errorf("api error: %s %s: %s", operation, resp.Status, strings.TrimSpace(resp.String()))
	}

	return nil
}

// handleSubmitError maps the outcome of a batch submission onto SubmissionError
func handleSubmitError(resp *req.Response, requestErr error) error {
	if requestErr != nil {
		serr := &SubmissionError{Err: requestErr}
		if resp != nil && resp.Response != nil {
			serr.StatusCode = resp.StatusCode
		}
		return serr
	}

	if resp.StatusCode != http.StatusOK {
		return &SubmissionError{
			StatusCode: resp.StatusCode,
			Body:       errorBodyMessage(resp.Bytes()),
		}
	}

	return nil
}

// errorBodyMessage extracts the message from a json error body, or returns the body as text
func errorBodyMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := statusmsg.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(body))
}
