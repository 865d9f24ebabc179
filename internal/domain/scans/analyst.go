package scans

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var (
	rxNmapOpen    = regexp.MustCompile(`^\d+/(tcp|udp|sctp)\s+open\b`)
	rxGobusterHit = regexp.MustCompile(`\(Status:\s*\d{3}\)`)
	rxFFUFHit     = regexp.MustCompile(`\[Status:\s*\d{3},`)
	rxSQLMapDBs   = regexp.MustCompile(`available databases \[(\d+)\]`)
	rxSQLMapParam = regexp.MustCompile(`(?i)parameter '[^']+' (is vulnerable|appears to be)`)
)

// ParseFindings counts tool-specific hits in raw tool output: open ports
// for nmap, discovered paths for gobuster/ffuf, databases (or vulnerable
// parameters) for sqlmap.
func ParseFindings(tool Tool, output string) int {
	switch tool {
	case ToolNmap:
		return countLines(output, rxNmapOpen)
	case ToolGobuster:
		return countLines(output, rxGobusterHit)
	case ToolFFUF:
		return countLines(output, rxFFUFHit)
	case ToolSQLMap:
		return parseSQLMap(output)
	default:
		return 0
	}
}

func countLines(output string, rx *regexp.Regexp) int {
	n := 0
	s := bufio.NewScanner(strings.NewReader(output))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if rx.MatchString(line) {
			n++
		}
	}
	return n
}

func parseSQLMap(output string) int {
	// "available databases [N]:" wins when present
	if m := rxSQLMapDBs.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return countLines(output, rxSQLMapParam)
}
