package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

const maxFindings = 20

var (
	rxOpenPort  = regexp.MustCompile(`(?m)^(\d+)/(tcp|udp|sctp)\s+open\s+(\S+)`)
	rxPathHit   = regexp.MustCompile(`(?m)^\s*(/?\S+)\s+[\[(]Status:\s*(\d{3})`)
	rxVulnParam = regexp.MustCompile(`(?i)parameter '([^']+)' (?:is vulnerable|appears to be)`)
	rxDatabases = regexp.MustCompile(`available databases \[(\d+)\]`)
)

type portRule struct {
	severity, title, recommendation string
}

var riskyPorts = map[string]portRule{
	"21":    {"high", "FTP service exposed", "Disable FTP or replace it with SFTP; never allow anonymous login."},
	"23":    {"critical", "Telnet service exposed", "Disable telnet and use SSH with key authentication."},
	"445":   {"high", "SMB service exposed", "Block SMB at the perimeter and patch against known SMB exploits."},
	"3306":  {"high", "MySQL exposed to the network", "Bind the database to a private interface and restrict by firewall."},
	"3389":  {"high", "RDP exposed", "Put RDP behind a VPN and enforce NLA with strong credentials."},
	"5432":  {"high", "PostgreSQL exposed to the network", "Bind the database to a private interface and restrict pg_hba rules."},
	"6379":  {"high", "Redis exposed", "Require AUTH, enable protected mode and bind to localhost."},
	"27017": {"high", "MongoDB exposed", "Enable authentication and bind to a private interface."},
}

type pathRule struct {
	rx                              *regexp.Regexp
	severity, title, recommendation string
}

var sensitivePaths = []pathRule{
	{regexp.MustCompile(`(?i)(^|/)\.(git|svn|hg)\b`), "high", "Source control metadata exposed", "Block VCS directories at the web server and rotate any secrets in history."},
	{regexp.MustCompile(`(?i)(^|/)\.env\b`), "critical", "Environment file exposed", "Remove the file from the web root and rotate every credential it held."},
	{regexp.MustCompile(`(?i)(^|/)(backup|backups|bak|dump)\b|\.(bak|sql|zip|tar\.gz)$`), "high", "Backup artifact reachable", "Move backups out of the web root and restrict access."},
	{regexp.MustCompile(`(?i)(^|/)(admin|administrator|phpmyadmin|wp-admin|manager)\b`), "medium", "Administrative interface discovered", "Restrict admin panels by network and enforce MFA."},
}

// Local is an offline analyst that scores a record with fixed heuristics.
type Local struct{}

func (Local) Analyze(_ context.Context, rec *scans.ScanRecord) (string, error) {
	b, err := json.Marshal(AnalyzeRecord(rec))
	if err != nil {
		return "", fmt.Errorf("failed to marshal assessment: %w", err)
	}
	return string(b), nil
}

// AnalyzeRecord inspects every task output and returns an assessment
// following the same schema the remote analyst is asked for.
func AnalyzeRecord(rec *scans.ScanRecord) Assessment {
	out := Assessment{Query: rec.Query, Findings: make([]Finding, 0, 8)}

	for _, r := range rec.Results {
		if !r.Succeeded {
			out.add(Finding{
				Task:           r.Label,
				Title:          "Scan did not complete",
				Severity:       "info",
				Summary:        fmt.Sprintf("%s failed after %d attempt(s); results are incomplete.", r.Label, len(r.Attempts)),
				Recommendation: "Check that the tool is installed and the target is reachable, then rerun.",
			})
			continue
		}
		switch r.Tool {
		case scans.ToolNmap:
			nmapFindings(&out, r)
		case scans.ToolGobuster, scans.ToolFFUF:
			pathFindings(&out, r)
		case scans.ToolSQLMap:
			sqlmapFindings(&out, r)
		}
	}

	// Cap findings to a reasonable number to keep output compact
	if len(out.Findings) > maxFindings {
		out.Findings = out.Findings[:maxFindings]
	}

	switch {
	case len(rec.Results) == 0:
		out.Advice = "No scans were planned. Phrase the request with a known trigger such as 'open ports' or 'sql injection'."
	case out.Counts.Critical > 0:
		out.Advice = "Immediate action required: close or protect the critical exposures before anything else, then rescan."
	case out.Counts.High+out.Counts.Medium > 0:
		out.Advice = "Reduce the exposed surface: restrict services and paths to trusted networks and rescan to confirm."
	default:
		out.Advice = "No significant exposure in the captured output. Output is truncated, so confirm with a full manual review."
	}
	return out
}

func nmapFindings(out *Assessment, r scans.TaskResult) {
	var plain []string
	for _, m := range rxOpenPort.FindAllStringSubmatch(r.Output, -1) {
		port, service := m[1], m[3]
		if rule, ok := riskyPorts[port]; ok {
			out.add(Finding{
				Task:           r.Label,
				Title:          rule.title,
				Severity:       rule.severity,
				Summary:        fmt.Sprintf("Port %s/%s is open (%s).", port, m[2], service),
				Recommendation: rule.recommendation,
			})
			continue
		}
		plain = append(plain, port+"/"+service)
	}
	if len(plain) > 0 {
		out.add(Finding{
			Task:           r.Label,
			Title:          "Open ports",
			Severity:       "low",
			Summary:        "Open: " + strings.Join(plain, ", "),
			Recommendation: "Confirm every listed service is meant to be public.",
		})
	}
}

func pathFindings(out *Assessment, r scans.TaskResult) {
	seen := map[string]bool{}
	hits := 0
	for _, m := range rxPathHit.FindAllStringSubmatch(r.Output, -1) {
		hits++
		path := m[1]
		for _, rule := range sensitivePaths {
			if seen[rule.title] || !rule.rx.MatchString(path) {
				continue
			}
			seen[rule.title] = true
			out.add(Finding{
				Task:           r.Label,
				Title:          rule.title,
				Severity:       rule.severity,
				Summary:        fmt.Sprintf("%s answered with status %s.", path, m[2]),
				Recommendation: rule.recommendation,
			})
		}
	}
	if hits > 0 && len(seen) == 0 {
		out.add(Finding{
			Task:           r.Label,
			Title:          "Content discovered",
			Severity:       "info",
			Summary:        fmt.Sprintf("%d path(s) responded.", hits),
			Recommendation: "Review discovered paths for content that should not be public.",
		})
	}
}

func sqlmapFindings(out *Assessment, r scans.TaskResult) {
	for _, m := range rxVulnParam.FindAllStringSubmatch(r.Output, -1) {
		out.add(Finding{
			Task:           r.Label,
			Title:          "SQL injection",
			Severity:       "critical",
			Summary:        fmt.Sprintf("Parameter '%s' is injectable.", m[1]),
			Recommendation: "Use parameterised queries and validate input server-side.",
		})
	}
	if m := rxDatabases.FindStringSubmatch(r.Output); m != nil {
		out.add(Finding{
			Task:           r.Label,
			Title:          "Database enumeration",
			Severity:       "critical",
			Summary:        fmt.Sprintf("sqlmap listed %s database(s).", m[1]),
			Recommendation: "Treat the database as compromised: rotate credentials and audit access.",
		})
	}
}
