package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annograph/pkg/config"
	"github.com/matzehuels/annograph/pkg/errors"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
			}
			if err := writeDefaultConfig(path, force); err != nil {
				return err
			}
			printSuccess("Wrote default configuration")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Default().Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := c.resolveConfigPath(); path != "" {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			path, err := defaultConfigPath()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			printInfo("No configuration file, using defaults")
			printDetail("Looked for: %s", path)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.showConfig(cmd.OutOrStdout())
		},
	}
}

func (c *CLI) showConfig(w io.Writer) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	return cfg.Encode(w)
}
