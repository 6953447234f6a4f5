package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/annograph/pkg/buildinfo"
	"github.com/matzehuels/annograph/pkg/config"
	"github.com/matzehuels/annograph/pkg/pipeline"
	"github.com/matzehuels/annograph/pkg/sink"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "annograph"

	// configEnv names the environment variable that points at a config file.
	configEnv = "ANNOGRAPH_CONFIG"

	// configFile is the file name looked up in the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogQuiet = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "annograph follows linked music annotations",
		Long:         `annograph is a CLI tool that starts from a Web Annotation, follows its links across the web, and collects the MEI fragments, audio files and textual bodies the annotation graph points at.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+configEnv+" or the user config directory)")

	// Register all subcommands
	root.AddCommand(c.traverseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the configuration selected by --config, $ANNOGRAPH_CONFIG
// or the default path, in that order. A missing default file yields the
// built-in defaults; a missing explicit file is an error.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.resolveConfigPath()
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func (c *CLI) resolveConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	if env := os.Getenv(configEnv); env != "" {
		return env
	}
	path, err := defaultConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// newRunner creates a pipeline runner for CLI use. sinkURLs override the
// configured sink when non-empty.
func (c *CLI) newRunner(cmd *cobra.Command, cfg *config.Config, sinkURLs []string) (*pipeline.Runner, error) {
	if len(sinkURLs) == 0 && cfg.Sink.URL != "" {
		sinkURLs = []string{cfg.Sink.URL}
	}
	s, err := openSinks(cmd, sinkURLs, sink.Options{TTL: cfg.Sink.TTL.Std()})
	if err != nil {
		return nil, err
	}
	runner, err := pipeline.NewRunner(cfg, s, c.Logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return runner, nil
}

func openSinks(cmd *cobra.Command, urls []string, opts sink.Options) (sink.Sink, error) {
	switch len(urls) {
	case 0:
		return sink.NewNullSink(), nil
	case 1:
		return sink.Open(cmd.Context(), urls[0], opts)
	}
	var multi sink.Multi
	for _, u := range urls {
		s, err := sink.Open(cmd.Context(), u, opts)
		if err != nil {
			_ = multi.Close()
			return nil, err
		}
		multi = append(multi, s)
	}
	return multi, nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/annograph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}
