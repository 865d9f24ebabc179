package scans

import "errors"

var (
	// ErrPersistence wraps every failure to write the record or the log.
	ErrPersistence = errors.New("persistence failure")
	// ErrNoRecord is returned by RecordStore.Latest before the first run.
	ErrNoRecord = errors.New("no scan record stored")
	// ErrUnknownTool is returned when no argument grammar exists for a tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidTarget rejects targets a tool would parse as an option.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrTimeout marks a process attempt killed by its deadline.
	ErrTimeout = errors.New("process timed out")
)
