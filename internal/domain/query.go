package domain

// QueryResult is the terminal outcome of one sandbox query run. Engine
// failures are carried here as data rather than as Go errors, because a
// failed SELECT is useful feedback for the student, not a fault.
type QueryResult struct {
	Succeeded    bool             `json:"success"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowCount     int              `json:"rowCount"`
	ErrorMessage string           `json:"error,omitempty"`
	ErrorCode    string           `json:"errorCode,omitempty"`
}

// Failed builds a non-succeeded result from an engine message and an
// optional SQLSTATE code.
func Failed(message, code string) QueryResult {
	return QueryResult{
		Succeeded:    false,
		ErrorMessage: message,
		ErrorCode:    code,
	}
}
