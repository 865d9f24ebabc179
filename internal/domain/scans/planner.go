package scans

import "strings"

// UnknownTarget is used when the query has no space to split a target from.
const UnknownTarget = "unknown"

// trigger pairs a match on the query with the task it contributes.
type trigger struct {
	match func(query string) bool
	task  func(target string) Task
}

func contains(phrases ...string) func(string) bool {
	return func(q string) bool {
		for _, p := range phrases {
			if strings.Contains(q, p) {
				return true
			}
		}
		return false
	}
}

func taskOf(id int, label string, tool Tool) func(string) Task {
	return func(target string) Task {
		return Task{ID: id, Label: label, Tool: tool, Target: target}
	}
}

// Evaluated in order; every match appends a task. "fuzz directories"
// matches both the gobuster and the ffuf rows.
var defaultTriggers = []trigger{
	{match: contains("open ports"), task: taskOf(1, "Nmap Scan", ToolNmap)},
	{match: contains("discover directories", "fuzz directories"), task: taskOf(2, "Gobuster Scan", ToolGobuster)},
	{match: contains("fuzz directories"), task: taskOf(3, "FFUF Fuzzing", ToolFFUF)},
	{match: contains("sql injection"), task: taskOf(4, "SQLMap Scan", ToolSQLMap)},
}

// Planner maps a free-text query to an ordered task list.
type Planner struct {
	triggers []trigger
}

func NewPlanner() *Planner {
	return &Planner{triggers: defaultTriggers}
}

// Plan never fails; an empty slice means nothing to execute.
func (p *Planner) Plan(query string) []Task {
	target := ExtractTarget(query)
	tasks := make([]Task, 0, len(p.triggers))
	for _, t := range p.triggers {
		if t.match(query) {
			tasks = append(tasks, t.task(target))
		}
	}
	return tasks
}

// ExtractTarget returns the text after the last space of the query.
func ExtractTarget(query string) string {
	i := strings.LastIndex(query, " ")
	if i < 0 {
		return UnknownTarget
	}
	return query[i+1:]
}
