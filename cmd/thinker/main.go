package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/thinker/internal/app"
	"github.com/kokistudios/thinker/internal/config"
	"github.com/kokistudios/thinker/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

// globalFlags are shared by every command.
type globalFlags struct {
	noColor  bool
	logLevel string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "thinker",
		Short: "thinker: structured thinking sessions over MCP",
		Long: "An MCP server that keeps structured reasoning sessions: branching thought graphs, " +
			"stepwise plans, five-whys analyses, dialectical reasoning and SCAMPER ideation.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Init(flags.noColor)
			if flags.logLevel != "" {
				return ui.SetLevel(flags.logLevel)
			}
			return nil
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides logging.level)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	serveC := serveCmd(&flags)
	serveC.GroupID = "core"
	toolsC := toolsCmd()
	toolsC.GroupID = "core"
	configC := configCmd()
	configC.GroupID = "config"

	rootCmd.AddCommand(serveC)
	rootCmd.AddCommand(toolsC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(mcpServeCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig resolves config.yaml plus environment overrides and applies
// the logging settings. Command-line flags win over both.
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Resolve(config.Home())
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	ui.Init(flags.noColor || cfg.Logging.NoColor)
	level := cfg.Logging.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if err := ui.SetLevel(level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Build(cfg, buildVersion()).Serve(ctx)
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var transport, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: "Serve thinker's MCP tools over stdio (default) or streamable HTTP. The HTTP transport " +
			"also exposes /healthz, /readyz and /metrics.",
		Example: `  thinker serve
  thinker serve --transport http --addr 127.0.0.1:8787`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transport
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.HTTPAddr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for the http transport (default from server.http_addr)")
	return cmd
}

func mcpServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Run thinker as an MCP server over stdio",
		Long:   "Start thinker as a Model Context Protocol (MCP) server over stdio, ignoring server.transport.",
		Hidden: true, // Registered with MCP clients, not typed by users
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Server.Transport = "stdio"
			return run(cfg)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools thinker serves",
		Long:  "List the MCP tools thinker serves, grouped by whether they change session state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			cfg.Logging.ThoughtLog = false
			tools := app.Build(cfg, buildVersion()).MCP.Tools()

			var mutating, readOnly [][]string
			for _, t := range tools {
				row := []string{t.Name, ui.Dim(t.Description)}
				if t.ReadOnly {
					readOnly = append(readOnly, row)
				} else {
					mutating = append(mutating, row)
				}
			}

			ui.CommandBanner("tools", fmt.Sprintf("%d MCP tools", len(tools)))
			printToolGroup("Mutating", mutating)
			printToolGroup("Read-only", readOnly)
			return nil
		},
	}
}

func printToolGroup(label string, rows [][]string) {
	ui.SectionHeader(label)
	if len(rows) == 0 {
		ui.EmptyState("No tools")
		return
	}
	ui.Table(os.Stdout, []string{"TOOL", "DESCRIPTION"}, rows)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the thinker version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildVersion())
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit thinker configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configPathCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write a default config.yaml",
		Long:    "Create THINKER_HOME (~/.thinker by default) with a config.yaml holding the defaults.",
		Example: "  thinker config init\n  thinker config init --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.Home()
			ui.CommandBanner("config init", home)
			if _, err := os.Stat(config.Path(home)); err == nil && !force && ui.Interactive() {
				ok, err := ui.Confirm(fmt.Sprintf("Overwrite %s with defaults?", config.Path(home)))
				if err != nil {
					return err
				}
				if !ok {
					ui.Info("Kept existing config")
					return nil
				}
				force = true
			}
			if err := config.Init(home, force); err != nil {
				return err
			}
			ui.Success("Config written")
			ui.Detail("Path:", config.Path(home))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		Long:  "Display config.yaml merged with defaults and environment overrides.",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.Home()
			cfg, err := config.Resolve(home)
			if err != nil {
				ui.Warning(err.Error())
			}
			if _, statErr := os.Stat(config.Path(home)); statErr != nil {
				ui.EmptyState(fmt.Sprintf("No config.yaml at %s; showing defaults", config.Path(home)))
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a thinker configuration value in config.yaml.",
		Example: `  thinker config set server.transport http
  thinker config set five_why.default_max_depth 7
  thinker config set logging.thought_log false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.Home()
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			if err := cfg.SetValue(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(home); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", ui.Bold(args[0]), args[1]))
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Path(config.Home()))
		},
	}
}
