package policy

import (
	"errors"
	"fmt"
)

// InfrastructureError wraps a failure to retrieve labels or changed paths.
// It must never be reported as a policy violation.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Infrastructure wraps err unless it is nil or already wrapped.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
