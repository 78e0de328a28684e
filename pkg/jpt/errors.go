package jpt

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage of the issuance pipeline.
var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrMalformedInput    = errors.New("malformed input")
	ErrEmptyClaimSet     = errors.New("empty claim set")
)

// IssuanceError reports which stage of issuance rejected the request.
// No partial token is ever returned alongside it.
type IssuanceError struct {
	Stage string
	Err   error
}

func (e *IssuanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("issuance failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("issuance failed at %s", e.Stage)
}

func (e *IssuanceError) Unwrap() error {
	return e.Err
}

// NewIssuanceError creates a new IssuanceError.
func NewIssuanceError(stage string, err error) *IssuanceError {
	return &IssuanceError{
		Stage: stage,
		Err:   err,
	}
}
