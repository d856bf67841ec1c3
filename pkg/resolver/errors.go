package resolver

import "errors"

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
	ErrEmptyURL      = errors.New("resolver returned no url")
	ErrBadStatus     = errors.New("unexpected resolver response status")
	ErrNoSession     = errors.New("no session")
)
