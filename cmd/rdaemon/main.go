package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/rdaemon/internal/bookkeeping"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command tree.
func buildRoot() *cobra.Command {
	serveFlags := &ServeFlags{}
	statusFlags := &StatusFlags{}
	killFlags := &KillFlags{}
	killAllFlags := &KillAllFlags{}
	historyFlags := &HistoryFlags{}
	notifyFlags := &NotifyFlags{}
	terminateFlags := &TerminateFlags{}
	listFlags := &ListFlags{}

	root := &cobra.Command{
		Use:   "rdaemon",
		Short: "daemon lifecycle and supervision tool",
		Long: `rdaemon supervises long-running daemons: it registers them in
bookkeeping, wakes them on demand, and kills them (and their
descendants) reliably from any process on the host.

Examples:
  rdaemon serve --config rdaemon.toml              # run the control server
  rdaemon serve --config rdaemon.toml --daemonize  # same, in the background
  rdaemon status --name worker                     # check a daemon's record
  rdaemon kill --name worker --signal 9            # kill and drop the record
  rdaemon notify --name worker                     # wake via the control API`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP control server as a supervised daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*serveFlags)
		},
	}
	serveCmd.Flags().StringVar(&serveFlags.ConfigPath, "config", "", "path to TOML config")
	serveCmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run in the background")
	serveCmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "background stdout/stderr file")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show a daemon's bookkeeping state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(*statusFlags)
		},
	}
	statusCmd.Flags().StringVar(&statusFlags.ConfigPath, "config", "", "path to TOML config")
	statusCmd.Flags().StringVar(&statusFlags.Name, "name", "", "daemon name")
	statusCmd.Flags().StringVar(&statusFlags.SubPath, "sub-path", "", "bookkeeping sub path")

	killCmd := &cobra.Command{
		Use:   "kill",
		Short: "signal a daemon through its bookkeeping record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKill(*killFlags)
		},
	}
	killCmd.Flags().StringVar(&killFlags.ConfigPath, "config", "", "path to TOML config")
	killCmd.Flags().StringVar(&killFlags.Name, "name", "", "daemon name")
	killCmd.Flags().StringVar(&killFlags.SubPath, "sub-path", "", "bookkeeping sub path")
	killCmd.Flags().IntVar(&killFlags.Signal, "signal", int(bookkeeping.ConfirmSignal), "signal number to send")

	killAllCmd := &cobra.Command{
		Use:   "kill-all",
		Short: "signal every daemon recorded under a sub path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKillAll(*killAllFlags)
		},
	}
	killAllCmd.Flags().StringVar(&killAllFlags.ConfigPath, "config", "", "path to TOML config")
	killAllCmd.Flags().StringVar(&killAllFlags.SubPath, "sub-path", "", "bookkeeping sub path")
	killAllCmd.Flags().IntVar(&killAllFlags.Signal, "signal", int(bookkeeping.ConfirmSignal), "signal number to send")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "show recent lifecycle events from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(*historyFlags)
		},
	}
	historyCmd.Flags().StringVar(&historyFlags.ConfigPath, "config", "", "path to TOML config")
	historyCmd.Flags().StringVar(&historyFlags.Name, "name", "", "daemon name (empty for all)")
	historyCmd.Flags().IntVar(&historyFlags.Limit, "limit", 50, "maximum events to show")

	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "wake a daemon through the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(*notifyFlags)
		},
	}
	notifyCmd.Flags().StringVar(&notifyFlags.Name, "name", "", "daemon name")
	notifyCmd.Flags().StringVar(&notifyFlags.APIUrl, "api-url", "", "control server base URL")
	notifyCmd.Flags().DurationVar(&notifyFlags.APITimeout, "api-timeout", 0, "control API timeout")

	terminateCmd := &cobra.Command{
		Use:   "terminate",
		Short: "terminate a daemon through the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminate(*terminateFlags)
		},
	}
	terminateCmd.Flags().StringVar(&terminateFlags.Name, "name", "", "daemon name")
	terminateCmd.Flags().StringVar(&terminateFlags.APIUrl, "api-url", "", "control server base URL")
	terminateCmd.Flags().DurationVar(&terminateFlags.APITimeout, "api-timeout", 0, "control API timeout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list daemons registered in the control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(*listFlags)
		},
	}
	listCmd.Flags().StringVar(&listFlags.APIUrl, "api-url", "", "control server base URL")
	listCmd.Flags().DurationVar(&listFlags.APITimeout, "api-timeout", 0, "control API timeout")

	root.AddCommand(serveCmd, statusCmd, killCmd, killAllCmd, historyCmd, notifyCmd, terminateCmd, listCmd)
	return root
}
