package tools

import "errors"

var (
	// ErrToolAlreadyRegistered is returned when registering a duplicate tool name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrInvalidTool is returned when registering a nil tool or one without a name.
	ErrInvalidTool = errors.New("invalid tool")

	// ErrMissingParam is returned when a required parameter is absent or blank.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrInvalidParam is returned when a parameter has an unusable value.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrAlreadyExists is returned when a target path already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDirectoryNotEmpty is returned when deleting a non-empty directory.
	ErrDirectoryNotEmpty = errors.New("directory is not empty")

	// ErrFileTooLarge is returned when a file exceeds the read limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoAttachedProcess is returned by process tools when nothing is attached.
	ErrNoAttachedProcess = errors.New("no process attached")
)
