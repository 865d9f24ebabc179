package scans

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	opts := CommandOptions{Wordlist: "/lists/common.txt"}
	cases := []struct {
		tool Tool
		want string
	}{
		{ToolNmap, "nmap -Pn http://x.test"},
		{ToolGobuster, "gobuster dir -u http://x.test -w /lists/common.txt"},
		{ToolFFUF, "ffuf -u http://x.test/FUZZ -w /lists/common.txt"},
		{ToolSQLMap, "sqlmap -u http://x.test --batch --dbs"},
	}
	for _, tc := range cases {
		cmd, err := BuildCommand(Task{Tool: tc.tool, Target: "http://x.test"}, opts)
		require.NoError(t, err)
		assert.Equal(t, tc.want, cmd.String())
	}
}

func TestBuildCommandBinaryOverride(t *testing.T) {
	opts := CommandOptions{
		Wordlist: "w.txt",
		Binaries: map[Tool]string{ToolSQLMap: "/opt/sqlmap/sqlmap.py"},
	}
	cmd, err := BuildCommand(Task{Tool: ToolSQLMap, Target: "t"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sqlmap/sqlmap.py", cmd.Name)

	cmd, err = BuildCommand(Task{Tool: ToolNmap, Target: "t"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "nmap", cmd.Name)
}

func TestBuildCommandUnknownTool(t *testing.T) {
	_, err := BuildCommand(Task{Tool: Tool("nikto"), Target: "t"}, CommandOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestBuildCommandRejectsOptionLikeTarget(t *testing.T) {
	tasks := NewPlanner().Plan("scan open ports on -iL/etc/passwd")
	require.Len(t, tasks, 1)

	for _, tool := range Tools {
		task := tasks[0]
		task.Tool = tool
		_, err := BuildCommand(task, CommandOptions{Wordlist: "w.txt"})
		assert.True(t, errors.Is(err, ErrInvalidTarget), tool)
	}

	// tanda hubung di tengah tetap boleh
	cmd, err := BuildCommand(Task{Tool: ToolNmap, Target: "my-host.test"}, CommandOptions{})
	require.NoError(t, err)
	assert.Equal(t, "nmap -Pn my-host.test", cmd.String())
}

func TestProcessResultCombinedOutput(t *testing.T) {
	p := ProcessResult{Stdout: "  out\n", Stderr: "\nerr  "}
	assert.Equal(t, "out\nerr", p.CombinedOutput())
	assert.Equal(t, "out", ProcessResult{Stdout: "out"}.CombinedOutput())
	assert.Equal(t, "err", ProcessResult{Stderr: "err"}.CombinedOutput())
	assert.Equal(t, "", ProcessResult{}.CombinedOutput())
}
