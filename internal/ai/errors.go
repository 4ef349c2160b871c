package ai

import "fmt"

// SummarizationError reports a failed LLM call.
type SummarizationError struct {
	Model      string
	StatusCode int
	Err        error
}

func (e *SummarizationError) Error() string {
	msg := "summarization failed"
	if e.Model != "" {
		msg = fmt.Sprintf("summarization with %s failed", e.Model)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}
