package scans

import "context"

// Process port (interface untuk eksekusi proses eksternal).
// A non-nil error means the process could not be run to completion
// (not found, permission denied, timed out); a non-zero exit is reported
// through ProcessResult.ExitCode with a nil error.
type Process interface {
	Run(ctx context.Context, cmd Command) (ProcessResult, error)
}

// Invoker runs one task under the retry/timeout policy. observe, when
// non-nil, is called after every attempt.
type Invoker interface {
	Command(task Task) (Command, error)
	Invoke(ctx context.Context, task Task, observe func(AttemptEvent)) TaskResult
}

// RecordStore port (interface untuk persistence). Save overwrites
// whatever record was stored before.
type RecordStore interface {
	Save(ctx context.Context, r *ScanRecord) error
	Latest(ctx context.Context) (*ScanRecord, error)
	Location() string
}

// LogSink port untuk log teks append-only.
type LogSink interface {
	Append(ctx context.Context, line string) error
	Read(ctx context.Context) (string, error)
	Reset(ctx context.Context) error
}

// Archive port (interface untuk salinan record di object storage)
type Archive interface {
	Upload(ctx context.Context, r *ScanRecord) (string, error)
}
