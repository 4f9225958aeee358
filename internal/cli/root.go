// Package cli implements the cloudexctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/pkg/client"
)

const defaultServer = "http://localhost:8080"

// options are the persistent flags shared by every command.
type options struct {
	server    string
	token     string
	tokenFile string
	timeout   time.Duration
	jsonOut   bool
	verbose   bool
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree so tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "cloudexctl",
		Short: "Command-line client for the Cloudex dashboard",
		Long: `cloudexctl talks to a Cloudex server: browse and edit the virtual
file system, read and send inbox messages, and follow live updates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if o.verbose {
				level = "debug"
			}
			return logging.Init(logging.Config{Level: level, Format: "console", OutputPath: "stderr", Component: "cloudexctl"})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.server, "server", "s", envOr("CLOUDEX_SERVER", defaultServer), "server base URL")
	pf.StringVar(&o.token, "token", os.Getenv("CLOUDEX_TOKEN"), "auth token (overrides the saved token)")
	pf.StringVar(&o.tokenFile, "token-file", defaultTokenFile(), "where login stores the token")
	pf.DurationVar(&o.timeout, "timeout", 30*time.Second, "request timeout")
	pf.BoolVar(&o.jsonOut, "json", false, "print raw JSON")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newLoginCmd(o),
		newLsCmd(o),
		newTreeCmd(o),
		newResolveCmd(o),
		newMkdirCmd(o),
		newUploadCmd(o),
		newRenameCmd(o),
		newMvCmd(o),
		newRmCmd(o),
		newStarCmd(o),
		newSearchCmd(o),
		newStatsCmd(o),
		newInboxCmd(o),
		newSendCmd(o),
		newNotificationsCmd(o),
		newWatchCmd(o),
		newSnapshotCmd(o),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// client returns an API client authenticated with the flag, environment
// or saved token, in that order.
func (o *options) client() *client.Client {
	c := client.New(client.Config{BaseURL: o.server, Timeout: o.timeout})
	token := o.token
	if token == "" && o.tokenFile != "" {
		if data, err := os.ReadFile(o.tokenFile); err == nil {
			token = strings.TrimSpace(string(data))
		}
	}
	c.SetAuthToken(token)
	return c
}

func (o *options) saveToken(token string) error {
	if o.tokenFile == "" {
		return errors.New("no token file configured")
	}
	if err := os.MkdirAll(filepath.Dir(o.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(o.tokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".cloudex-token"
	}
	return filepath.Join(dir, "cloudex", "token")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
