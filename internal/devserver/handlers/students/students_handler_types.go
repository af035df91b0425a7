package students

import "github.com/fileuploader/uploadwatch/internal/records"

type ListRequest struct {
	Page      int    `form:"page"`
	Size      int    `form:"size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Name      string `form:"name"`
	Subject   string `form:"subject"`
}

type ListResponse struct {
	Count   int64              `json:"count"`
	Records []*records.Student `json:"records"`
}

type NameRequest struct {
	Name string `uri:"name" binding:"required"`
}
