package uploadsdk

const (
	v1Upload         = "/api/upload"
	uploadFormField  = "files"
	uploadFileSuffix = ".csv"
)

// SubmitResponse is the server's acknowledgement of an accepted batch
type SubmitResponse struct {
	UploadID string `json:"upload_id"`
}

// UploadProgress reports bytes sent for one file of the batch
type UploadProgress struct {
	FileName string
	Sent     int64
	Total    int64
}

// SubmitParams represents the parameters for submitting a batch
type SubmitParams struct {
	Paths    []string
	Callback func(p UploadProgress) // optional, called while the body is sent
}
