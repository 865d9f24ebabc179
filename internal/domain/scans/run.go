package scans

import "strings"

// Command is a fully resolved argument vector for one external tool.
type Command struct {
	Name string
	Args []string
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ProcessResult hasil dari Process
type ProcessResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
}

// CombinedOutput joins trimmed stdout and stderr.
func (p ProcessResult) CombinedOutput() string {
	return strings.TrimSpace(strings.TrimSpace(p.Stdout) + "\n" + strings.TrimSpace(p.Stderr))
}
