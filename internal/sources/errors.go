package sources

import (
	"fmt"
	"net/http"
)

// FetchError reports a failed call to a news source: unreachable, non-success
// status, or a key/quota problem.
type FetchError struct {
	Source     string
	StatusCode int
	Code       string // upstream error code, e.g. "rateLimited"
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s returned %s: %s", e.Source, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s returned status %d: %s", e.Source, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s returned status %d", e.Source, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// QuotaExhausted reports whether the upstream rejected the call for rate or
// plan limits.
func (e *FetchError) QuotaExhausted() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case "rateLimited", "maximumResultsReached":
		return true
	}
	return false
}
