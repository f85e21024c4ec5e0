package repository

import "errors"

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrFetchTimeout indicates the page fetch exceeded its hard deadline.
	ErrFetchTimeout = errors.New("page fetch timed out")

	// ErrNavigationFailed indicates the browser could not load the target page.
	ErrNavigationFailed = errors.New("page navigation failed")

	// ErrMissingMarkup indicates the page loaded but the expected markup
	// never appeared. Treated as transient and retried by the queue layer.
	ErrMissingMarkup = errors.New("expected markup not found on page")

	// ErrInvalidTransition indicates a job status update was attempted from a
	// state that does not permit it. This is a programming-contract violation.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrQueueEmpty is returned by Pop when no message is ready.
	ErrQueueEmpty = errors.New("queue is empty")
)
