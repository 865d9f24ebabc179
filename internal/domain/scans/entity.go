package scans

// ID tipe untuk ScanRecord
type RecordID string

// Tool enum
type Tool string

const (
	ToolNmap     Tool = "nmap"
	ToolGobuster Tool = "gobuster"
	ToolFFUF     Tool = "ffuf"
	ToolSQLMap   Tool = "sqlmap"
)

// Tools lists every tool the command grammar supports.
var Tools = []Tool{ToolNmap, ToolGobuster, ToolFFUF, ToolSQLMap}

func (t Tool) Known() bool {
	for _, k := range Tools {
		if t == k {
			return true
		}
	}
	return false
}

// Outcome classifies a finished run for presentation.
type Outcome string

const (
	OutcomeNoTasks   Outcome = "no_tasks"
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// Message is the human-readable line shown by the shells.
func (o Outcome) Message() string {
	switch o {
	case OutcomeNoTasks:
		return "No valid security tasks found."
	case OutcomeCompleted:
		return "All scans completed successfully."
	case OutcomePartial:
		return "Some scans failed."
	default:
		return "All scans failed."
	}
}

// Task is one planned unit of work: a tool bound to a target.
type Task struct {
	ID     int    `json:"id"`
	Label  string `json:"label"`
	Tool   Tool   `json:"tool"`
	Target string `json:"target"`
}

// Attempt records a single process execution of a task.
type Attempt struct {
	Number     int    `json:"number"`
	ExitCode   int    `json:"exit_code"`
	Fault      string `json:"fault,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Succeeded reports whether the attempt ran and exited zero.
func (a Attempt) Succeeded() bool {
	return a.Fault == "" && a.ExitCode == 0
}

// AttemptEvent is reported as soon as an attempt finishes. Retry is set
// when another attempt is scheduled.
type AttemptEvent struct {
	Attempt Attempt
	Retry   bool
}

// TaskResult hasil eksekusi satu Task
type TaskResult struct {
	TaskID     int       `json:"task_id"`
	Label      string    `json:"label"`
	Tool       Tool      `json:"tool"`
	Output     string    `json:"output"`
	Succeeded  bool      `json:"succeeded"`
	Attempts   []Attempt `json:"attempts"`
	Findings   int       `json:"findings"`
	DurationMS int64     `json:"duration_ms"`
}

// Aggregate Root: ScanRecord. One per pipeline run, overwriting the
// previously persisted one.
type ScanRecord struct {
	ID        RecordID     `json:"id"`
	Query     string       `json:"query"`
	Timestamp string       `json:"timestamp"`
	Results   []TaskResult `json:"results"`
}

// Outcome tells a run with no planned tasks apart from a run whose tasks
// all failed.
func (r *ScanRecord) Outcome() Outcome {
	if r == nil || len(r.Results) == 0 {
		return OutcomeNoTasks
	}
	ok := 0
	for _, res := range r.Results {
		if res.Succeeded {
			ok++
		}
	}
	switch ok {
	case len(r.Results):
		return OutcomeCompleted
	case 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
