package scans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFindingsNmap(t *testing.T) {
	out := `Starting Nmap 7.94
PORT     STATE    SERVICE
22/tcp   open     ssh
80/tcp   open     http
443/tcp  filtered https
53/udp   open     domain
Nmap done: 1 IP address (1 host up)`
	assert.Equal(t, 3, ParseFindings(ToolNmap, out))
}

func TestParseFindingsGobuster(t *testing.T) {
	out := `/admin                (Status: 301) [Size: 0]
/index.html           (Status: 200) [Size: 512]
Progress: 4614 / 4615 (99.98%)`
	assert.Equal(t, 2, ParseFindings(ToolGobuster, out))
}

func TestParseFindingsFFUF(t *testing.T) {
	out := `admin                   [Status: 301, Size: 0, Words: 1, Lines: 1, Duration: 5ms]
login                   [Status: 200, Size: 10, Words: 2, Lines: 1, Duration: 7ms]
:: Progress: [4614/4614] :: Job [1/1]`
	assert.Equal(t, 2, ParseFindings(ToolFFUF, out))
}

func TestParseFindingsSQLMap(t *testing.T) {
	dbs := `[INFO] fetching database names
available databases [3]:
[*] information_schema
[*] shop
[*] mysql`
	assert.Equal(t, 3, ParseFindings(ToolSQLMap, dbs))

	params := `[INFO] GET parameter 'id' appears to be 'AND boolean-based blind' injectable
[INFO] GET parameter 'id' is vulnerable. Do you want to keep testing the others?`
	assert.Equal(t, 2, ParseFindings(ToolSQLMap, params))
}

func TestParseFindingsUnknownOrEmpty(t *testing.T) {
	assert.Zero(t, ParseFindings(Tool("nikto"), "80/tcp open http"))
	assert.Zero(t, ParseFindings(ToolNmap, ""))
}
