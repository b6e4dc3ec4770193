package model

import "errors"

var (
	// ErrDataUnavailable marks an empty or unfetchable price series or holdings list.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrAnnotationFailure marks an opinion service error or malformed response.
	ErrAnnotationFailure = errors.New("annotation failure")
	// ErrFatalConfiguration marks missing or invalid configuration. It is the only
	// error class that aborts a run.
	ErrFatalConfiguration = errors.New("fatal configuration")
)
