package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazystate/internal/config"
	"github.com/vango-dev/lazystate/internal/errors"
	"github.com/vango-dev/lazystate/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ┌─┐┌─┐┬ ┬┌─┐┌┬┐┌─┐┌┬┐┌─┐
  ║  ├─┤┌─┘└┬┘└─┐ │ ├─┤ │ ├┤
  ╩═╝┴ ┴└─┘ ┴ └─┘ ┴ ┴ ┴ ┴ └─┘
`

// globals holds the flags and configuration shared by every command.
type globals struct {
	dir   string
	debug bool
	cfg   *config.Config

	// jsonErrors is set by commands printing JSON, so failures stay machine readable.
	jsonErrors bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	g := &globals{}
	cmd := newRoot(g)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		e := errors.FromError(err, "E160")
		if g.jsonErrors {
			fmt.Fprintln(stderr, e.FormatJSON())
		} else {
			fmt.Fprint(stderr, e.Format())
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	return newRoot(&globals{})
}

func newRoot(g *globals) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:   "lazystate",
		Short: "Replay and inspect lazy state update decisions",
		Long: `lazystate replays scripted renders and updates against a lazy state
and reports which updates would render the component again.

A lazy state records the paths a render reads and ignores updates
that leave all of them unchanged. Scenarios are YAML files:

  initial: {a: 1, b: 2}
  steps:
    - render: [a]
    - set: {a: 1, b: 99}
      expect: skip`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Directory containing lazystate.json and .env")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log every decision and validate hook order")

	rootCmd.AddCommand(
		replayCmd(g),
		serveCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// load reads the configuration and installs the logger.
func (g *globals) load() error {
	cfg, err := config.Load(g.dir)
	if err != nil {
		return err
	}
	if g.debug {
		cfg.Debug = true
	}
	g.cfg = cfg

	slog.SetDefault(cfg.Logger(os.Stderr))
	reactive.DebugMode = cfg.Debug
	return nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
