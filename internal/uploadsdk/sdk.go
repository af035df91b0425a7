package uploadsdk

import (
	"strings"

	"github.com/imroc/req/v3"
)

// UploadSDK is the client for the batch upload server
type UploadSDK struct {
	client   *req.Client
	baseURL  string
	Upload   *UploadAPI
	Students *StudentsAPI
	Events   *EventsAPI
}

// New creates a new UploadSDK client
func New(config *Config) (*UploadSDK, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")

	client := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(config.RetryCount).
		SetCommonRetryFixedInterval(retryInterval).
		SetUserAgent(UploadWatchUserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	return &UploadSDK{
		client:   client,
		baseURL:  baseURL,
		Upload:   newUploadAPI(client),
		Students: newStudentsAPI(client),
		Events:   newEventsAPI(baseURL),
	}, nil
}

// BaseURL returns the server url the client talks to
func (s *UploadSDK) BaseURL() string {
	return s.baseURL
}

// Close releases idle connections held by the http client
func (s *UploadSDK) Close() {
	s.client.GetClient().CloseIdleConnections()
}
