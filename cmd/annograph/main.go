package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annograph/internal/cli"
	"github.com/matzehuels/annograph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	cancel()

	code := cli.ExitCode(err)
	if code != cli.ExitOK && code != cli.ExitInterrupted {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
	}
	os.Exit(code)
}

func run(ctx context.Context) error {
	var verbose, quiet bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every cycle")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c.SetLogLevel(cli.LevelFor(verbose, quiet))
		return nil
	}

	return root.ExecuteContext(ctx)
}
