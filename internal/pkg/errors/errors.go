package errors

import "errors"

var (
	// ErrNotFound is returned when no metadata record matches any candidate
	// spelling of a group identifier.
	ErrNotFound = errors.New("not found")
	// ErrNoRetrievableObject is returned when metadata resolution succeeded
	// but none of the resolved storage objects is eligible or retrievable.
	ErrNoRetrievableObject = errors.New("no retrievable object")
	// ErrConfiguration is returned when a required operational setting is
	// absent.
	ErrConfiguration = errors.New("configuration missing")
	// ErrArchiveAborted is returned when an archive was abandoned before its
	// trailer was written.
	ErrArchiveAborted = errors.New("archive aborted")
)
