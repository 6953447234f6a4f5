package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/pipeline"
)

// traverseFlags holds the flags of the traverse command.
type traverseFlags struct {
	json     bool
	dot      string
	svg      string
	sinks    []string
	runID    string
	detailed bool
	timeout  time.Duration
}

// traverseCommand creates the traverse command.
func (c *CLI) traverseCommand() *cobra.Command {
	var flags traverseFlags

	cmd := &cobra.Command{
		Use:   "traverse <uri> [uri...]",
		Short: "Follow an annotation graph from one or more root URIs",
		Long: `Fetch each root annotation, follow its links across the web until no
document is left to load, and report the music notation fragments, audio
files and textual bodies the graph points at.

Failures of individual documents are reported but do not stop the traversal.`,
		Example: `  annograph traverse https://example.org/annotations/1
  annograph traverse https://example.org/annotations/1 --svg graph.svg
  annograph traverse https://example.org/annotations/1 --json --sink redis://localhost:6379/0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTraverse(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "print the snapshot as JSON instead of a summary")
	cmd.Flags().StringVar(&flags.dot, "dot", "", "write the node-link diagram as Graphviz DOT to this file")
	cmd.Flags().StringVar(&flags.svg, "svg", "", "write the node-link diagram as SVG to this file")
	cmd.Flags().StringArrayVar(&flags.sinks, "sink", nil, "publish the snapshot to this URL (file path, redis://, mongodb://); repeatable")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "name of the run in sinks (default: random UUID)")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "show types and labels in diagrams")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "abort the traversal after this long (0 = no limit)")

	return cmd
}

func (c *CLI) runTraverse(cmd *cobra.Command, uris []string, flags traverseFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cmd, cfg, flags.sinks)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx := cmd.Context()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	message := "Traversing " + uris[0] + "..."
	spinner := newSpinnerWithContext(ctx, message)
	opts := pipeline.Options{
		URIs:     uris,
		RunID:    flags.runID,
		Formats:  traverseFormats(flags),
		Detailed: flags.detailed,
		Logger:   c.Logger,
		Progress: func(p pipeline.Progress) {
			spinner.SetMessage(fmt.Sprintf("%s %d loaded, %d failed, %d in flight", message, p.Ready, p.Failed, p.InFlight))
		},
	}

	prog := newProgress(c.Logger)
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Traversed %s", result.Stats))

	if err := writeArtifacts(result, flags); err != nil {
		return err
	}

	if flags.json {
		if _, err := stdout.Write(result.Artifacts[pipeline.FormatJSON]); err != nil {
			return err
		}
	} else {
		printSummary(result.Snapshot)
	}

	if result.Stats.Resources == 0 {
		return errors.New(errors.ErrCodeNotFound, "no resource could be loaded from %s", strings.Join(uris, ", "))
	}
	return nil
}

func traverseFormats(flags traverseFlags) []string {
	var formats []string
	if flags.json {
		formats = append(formats, pipeline.FormatJSON)
	}
	if flags.dot != "" {
		formats = append(formats, pipeline.FormatDOT)
	}
	if flags.svg != "" {
		formats = append(formats, pipeline.FormatSVG)
	}
	return formats
}

func writeArtifacts(result *pipeline.Result, flags traverseFlags) error {
	for format, path := range map[string]string{
		pipeline.FormatDOT: flags.dot,
		pipeline.FormatSVG: flags.svg,
	} {
		if path == "" {
			continue
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
		printFile(path)
	}
	return nil
}
