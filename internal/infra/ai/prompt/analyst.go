package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior penetration tester reviewing the raw output of automated scanners (nmap, gobuster, ffuf, sqlmap). You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: critical, high, medium, low, info.
- counts.total must equal counts.critical + counts.high + counts.medium + counts.low.
- Every finding names the scan label it came from in "task".
- Tool output may be truncated; do not invent evidence that is not in the output.
- A task with "succeeded": false produced no reliable evidence; mention it as info at most.

Schema (example with empty values):
{
  "query": "<string>",
  "counts": {"critical": 0, "high": 0, "medium": 0, "low": 0, "total": 0},
  "findings": [
    {
      "task": "<string>",
      "title": "<string>",
      "severity": "<critical|high|medium|low|info>",
      "summary": "<string>",
      "recommendation": "<string>"
    }
  ],
  "advice": "<string>"
}`
}

// GetUserPrompt wraps the scan record as the user message.
func GetUserPrompt(rec *scans.ScanRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan record: %w", err)
	}
	return fmt.Sprintf("Assess this scan record and respond with the JSON per schema.\n%s", b), nil
}

type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

type Finding struct {
	Task           string `json:"task"`
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

// Assessment matches the schema used by the system prompt.
type Assessment struct {
	Query    string    `json:"query"`
	Counts   Counts    `json:"counts"`
	Findings []Finding `json:"findings"`
	Advice   string    `json:"advice"`
}

// add appends a finding; info is not counted
func (a *Assessment) add(f Finding) {
	a.Findings = append(a.Findings, f)
	switch f.Severity {
	case "critical":
		a.Counts.Critical++
	case "high":
		a.Counts.High++
	case "medium":
		a.Counts.Medium++
	case "low":
		a.Counts.Low++
	}
	a.Counts.Total = a.Counts.Critical + a.Counts.High + a.Counts.Medium + a.Counts.Low
}
