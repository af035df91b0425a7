package uploadsdk

const (
	v1Students = "/api/students"
)

// Student is one persisted csv row
type Student struct {
	StudentID   string `json:"Student_id"`
	StudentName string `json:"Student_name"`
	Subject     string `json:"Subject"`
	Grade       uint   `json:"Grade"`
}

// ListStudentsParams represents the query for listing students.
// Zero values are omitted and the server defaults apply.
type ListStudentsParams struct {
	Page      int
	Size      int
	SortBy    string // Student_name, Subject or Grade
	SortOrder string // asc or desc
	Name      string
	Subject   string
}

// ListStudentsResponse is one page of students plus the total match count
type ListStudentsResponse struct {
	Count   int64      `json:"count"`
	Records []*Student `json:"records"`
}
