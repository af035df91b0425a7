package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeNotFound       = "E_NOT_FOUND"       // route or resource does not exist

	// Upload errors
	CodeUploadNoFiles     = "E_UPLOAD_NO_FILES"     // the multipart form carried no files
	CodeUploadInvalidType = "E_UPLOAD_INVALID_TYPE" // a file is not csv text
	CodeUploadInvalidCSV  = "E_UPLOAD_INVALID_CSV"  // a csv header does not match the students table
	CodeUploadNotFound    = "E_UPLOAD_NOT_FOUND"    // no feed exists for the upload id

	// Students errors
	CodeStudentsInvalidFilter = "E_STUDENTS_INVALID_FILTER" // unknown sort column, order or subject
	CodeStudentsNotFound      = "E_STUDENTS_NOT_FOUND"      // no student matches
	CodeStudentsQueryFailed   = "E_STUDENTS_QUERY_FAILED"   // database read failed
)
