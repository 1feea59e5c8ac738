package models

import (
	"errors"
	"fmt"
)

var (
	ErrConfig  = errors.New("invalid conversion job")
	ErrDecode  = errors.New("decode failed")
	ErrEncode  = errors.New("encode failed")
	ErrCleanup = errors.New("cleanup failed")
)

// ConfigError rejects a job before any work starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("%v: %s", ErrConfig, e.Reason) }
func (e *ConfigError) Unwrap() error { return ErrConfig }

// DecodeError means one source could not be decoded. It only ever affects
// that source.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrDecode, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError is a failure of the external encoder for one output.
type EncodeError struct {
	Output string
	Err    error
	Stderr string
}

func (e *EncodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%v for %s: %v: %s", ErrEncode, e.Output, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%v for %s: %v", ErrEncode, e.Output, e.Err)
}

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }

// CleanupError is logged and never fails a job.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrCleanup, e.Path, e.Err)
}

func (e *CleanupError) Unwrap() []error { return []error{ErrCleanup, e.Err} }
