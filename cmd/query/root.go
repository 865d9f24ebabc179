package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-query/internal/bootstrap"
	"github.com/bryanwahyu/automaton-query/internal/config"
	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
	"github.com/bryanwahyu/automaton-query/internal/middleware"
	"github.com/bryanwahyu/automaton-query/internal/observability"
)

const (
	exitFailed  = 1
	exitNoTasks = 2
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// exitError carries a process exit code; err may be nil when the outcome
// line already told the user what happened.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "query [free text request...]",
		Short: "Plan and run security scans from a plain-language request",
		Long: `Translates a request such as "open ports and sql injection on http://example.com"
into nmap, gobuster, ffuf and sqlmap runs against the last word of the request.
The record is printed as JSON on stdout and saved over the previous one.
Without arguments the request is read from the first line of stdin.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(args, in)
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}

			cfg, err := config.Resolve(configPath)
			if err != nil {
				return &exitError{code: exitFailed, err: fmt.Errorf("config load error: %w", err)}
			}
			logger := observability.NewLogger(errOut, "automaton-query", cfg.Log.Level)

			app, err := bootstrap.Build(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}
			defer app.Close()

			fmt.Fprintln(errOut, gray("Executing scan. This may take a few moments..."))
			rec, runErr := app.Scans.Run(cmd.Context(), query)
			if rec != nil {
				if err := printRecord(out, rec); err != nil {
					return &exitError{code: exitFailed, err: err}
				}
				fmt.Fprintln(errOut, outcomeLine(rec.Outcome()))
			}
			return exitFor(rec, runErr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config YAML (default $CONFIG_PATH or config.yaml)")
	return cmd
}

// readQuery joins args, or takes the first stdin line when there are none
func readQuery(args []string, in io.Reader) (string, error) {
	raw := strings.Join(args, " ")
	if len(args) == 0 {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read query: %w", err)
		}
		raw = line
	}
	query := middleware.SanitizeString(raw)
	if err := middleware.ValidateQuery(query); err != nil {
		return "", err
	}
	return query, nil
}

func printRecord(out io.Writer, rec *domain.ScanRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(rec)
}

func outcomeLine(o domain.Outcome) string {
	switch o {
	case domain.OutcomeCompleted:
		return green(o.Message())
	case domain.OutcomePartial, domain.OutcomeNoTasks:
		return yellow(o.Message())
	default:
		return red(o.Message())
	}
}

func exitFor(rec *domain.ScanRecord, runErr error) error {
	if runErr != nil {
		return &exitError{code: exitFailed, err: runErr}
	}
	switch rec.Outcome() {
	case domain.OutcomeNoTasks:
		return &exitError{code: exitNoTasks}
	case domain.OutcomeFailed:
		return &exitError{code: exitFailed}
	}
	return nil
}
