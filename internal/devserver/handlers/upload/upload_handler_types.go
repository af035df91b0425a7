package upload

const (
	formField = "files"
	sniffLen  = 512
)

type UploadResponse struct {
	UploadID string `json:"upload_id"`
}

type StatusRequest struct {
	UploadID string `uri:"uploadID" binding:"required,uuid"`
}
