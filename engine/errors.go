package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDesign      = errors.New("invalid trial design")
	ErrAmbiguousCondition = errors.New("condition code assumes two-element factor sets")
	ErrTrialsFileMissing  = errors.New("trials file not found")
	ErrVisitOutOfRange    = errors.New("trials file does not have the requested visit")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownMode        = errors.New("unknown run mode")
)

// ConfigError is a recoverable error in operator-supplied parameters. The entry
// layer re-prompts on it instead of aborting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// IsConfigError reports whether err belongs to the recoverable class.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
