package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/loader"
	"github.com/roach88/buildspec/internal/session"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration
}

// SessionEvent is one line of watch output.
type SessionEvent struct {
	SessionID  string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	StartedAt  string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Mode       string `json:"mode,omitempty" yaml:"mode,omitempty"`
	ConfigHash string `json:"config_hash,omitempty" yaml:"config_hash,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Code       string `json:"code,omitempty" yaml:"code,omitempty"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Start a new build session whenever declarations change",
		Long: `Watch a declaration directory and its .env files.

A new session is started for every change that alters the loaded
configuration. Each session is reported with its ID, mode and configuration
hash. A change that makes the declarations malformed is reported and the
previous session stays current. Stop with Ctrl-C.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", session.DefaultDebounce, "quiet period before reloading")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		_ = formatter.Error(loader.ErrCodeNotFound, fmt.Sprintf("declaration directory not found: %s", dir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("declaration directory not found: %s", dir))
	}
	formatter.VerboseLog("Watching %s", dir)

	sopts := session.Options{Loader: opts.loaderOptions(dir)}
	err = session.Watch(ctx, sopts, opts.Debounce, func(s *session.Session, err error) {
		if formatter.Structured() {
			_ = formatter.Encode(sessionResponse(s, err))
			return
		}
		writeSessionEvent(formatter, newSessionEvent(s, err))
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "watch failed", err)
	}
	return nil
}

func newSessionEvent(s *session.Session, err error) SessionEvent {
	if err != nil {
		d := describeError(err)
		return SessionEvent{Error: d.Message, Code: d.Code}
	}
	return SessionEvent{
		SessionID:  s.ID,
		StartedAt:  s.StartedAt.UTC().Format(time.RFC3339),
		Mode:       string(s.Mode()),
		ConfigHash: s.Hash,
	}
}

// sessionResponse wraps one reload outcome in the response envelope. A
// failed reload is an error response carrying the problem as its detail.
func sessionResponse(s *session.Session, err error) CLIResponse {
	if err != nil {
		d := describeError(err)
		return CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    d.Code,
				Message: d.Message,
				Details: []ErrorDetail{d},
			},
		}
	}
	return CLIResponse{Status: "ok", Data: newSessionEvent(s, nil)}
}

func writeSessionEvent(formatter *OutputFormatter, ev SessionEvent) {
	if ev.Error != "" {
		fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", ev.Code, ev.Error)
		return
	}
	fmt.Fprintf(formatter.Writer, "✓ Session %s (%s) %s\n", ev.SessionID, ev.Mode, ev.ConfigHash)
}
