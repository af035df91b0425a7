package uploadsdk

import (
	"context"
	"strconv"

	"github.com/imroc/req/v3"
)

// StudentsAPI reads the records persisted from uploaded batches
type StudentsAPI struct {
	client *req.Client
}

func newStudentsAPI(client *req.Client) *StudentsAPI {
	return &StudentsAPI{client: client}
}

// List returns one page of students
func (s *StudentsAPI) List(ctx context.Context, params *ListStudentsParams) (apiResp *ListStudentsResponse, err error) {
	r := s.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		SetErrorResult(&APIError{})

	if params != nil {
		if params.Page > 0 {
			r.SetQueryParam("page", strconv.Itoa(params.Page))
		}
		if params.Size > 0 {
			r.SetQueryParam("size", strconv.Itoa(params.Size))
		}
		if params.SortBy != "" {
			r.SetQueryParam("sort_by", params.SortBy)
		}
		if params.SortOrder != "" {
			r.SetQueryParam("sort_order", params.SortOrder)
		}
		if params.Name != "" {
			r.SetQueryParam("name", params.Name)
		}
		if params.Subject != "" {
			r.SetQueryParam("subject", params.Subject)
		}
	}

	resp, err := r.Get(v1Students)
	if err := handleAPIError(resp, err, "students list"); err != nil {
		return nil, err
	}

	return apiResp, nil
}
