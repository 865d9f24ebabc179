package scans

import (
	"fmt"
	"strings"
)

// CommandOptions carries the configurable parts of the argument grammar.
type CommandOptions struct {
	Wordlist string
	// Binaries optionally replaces the executable name per tool.
	Binaries map[Tool]string
}

func (o CommandOptions) binary(t Tool) string {
	if b, ok := o.Binaries[t]; ok && b != "" {
		return b
	}
	return string(t)
}

// BuildCommand returns the argument vector for a task.
func BuildCommand(task Task, opts CommandOptions) (Command, error) {
	if !task.Tool.Known() {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownTool, task.Tool)
	}
	// target jangan sampai dibaca sebagai flag, mis. "-iL/etc/passwd"
	if strings.HasPrefix(task.Target, "-") {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidTarget, task.Target)
	}
	var args []string
	switch task.Tool {
	case ToolNmap:
		args = []string{"-Pn", task.Target}
	case ToolGobuster:
		args = []string{"dir", "-u", task.Target, "-w", opts.Wordlist}
	case ToolFFUF:
		args = []string{"-u", task.Target + "/FUZZ", "-w", opts.Wordlist}
	case ToolSQLMap:
		args = []string{"-u", task.Target, "--batch", "--dbs"}
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownTool, task.Tool)
	}
	return Command{Name: opts.binary(task.Tool), Args: args}, nil
}
