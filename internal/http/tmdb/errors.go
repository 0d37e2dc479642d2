package tmdb

import "fmt"

type (
	tmdbError struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
	}
	FailedRequestError struct {
		httpCode int
		tmdbCode int
		message  string
	}
	NoResultError       struct{}
	MultipleResultError struct{ Results []SearchResultItem }
	UnknownRequestError struct{ reason string }
	IllegalRequestError struct{ reason string }
)

func (err *UnknownRequestError) Error() string {
	return fmt.Sprintf("unknown error occurred while communicating with TMDB: %s", err.reason)
}
func (err *IllegalRequestError) Error() string {
	return fmt.Sprintf("illegal search request because %s", err.reason)
}
func (err *FailedRequestError) Error() string {
	return fmt.Sprintf("Request failure (HTTP %d): %s", err.httpCode, err.message)
}
func (err *NoResultError) Error() string       { return "no results returned from TMDB" }
func (err *MultipleResultError) Error() string { return "too many results returned from TMDB" }
