package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports a missing or invalid setting or credential.
	ErrConfig = errors.New("config error")
	// ErrInput reports an unusable input table.
	ErrInput = errors.New("input error")
	// ErrExternalService reports a failed text-generation request.
	ErrExternalService = errors.New("external service error")
)

// LabelError is a labeling failure for one cluster. It keeps the token sample
// that was sent so the caller can retry just this cluster.
type LabelError struct {
	ClusterID int
	Tokens    []string
	Err       error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label cluster %d (%d tokens): %v", e.ClusterID, len(e.Tokens), e.Err)
}

// Unwrap exposes both ErrExternalService and the underlying cause.
func (e *LabelError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}
