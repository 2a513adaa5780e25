package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"regatta/internal/app"
	"regatta/internal/asyncapi"
	"regatta/internal/audit"
	"regatta/internal/cachemanager"
	"regatta/internal/config"
	"regatta/internal/log"
	"regatta/internal/mode"
	"regatta/internal/mode/shared"
	"regatta/internal/ops"
	"regatta/internal/registry"
	"regatta/internal/session"
	"regatta/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "regatta",
	Short:   "A terminal ui for schema registry administration",
	Long:    `A terminal user interface for browsing schema registry subjects, running destructive cleanups behind explicit confirmation, and generating AsyncAPI specs from broker topics.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/regatta/config.yaml)")
	rootCmd.Flags().StringP("server", "s", "",
		"admin backend base URL")
	rootCmd.Flags().StringP("env", "e", "",
		"environment to select at startup")
	rootCmd.Flags().Bool("debug", false,
		"write a debug log file")

	_ = viper.BindPFlag("server", rootCmd.Flags().Lookup("server"))
	_ = viper.BindPFlag("environment", rootCmd.Flags().Lookup("env"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("output_dir", defaults.OutputDir)
	viper.SetDefault("audit_db", defaults.AuditDB)
	viper.SetDefault("history_limit", defaults.HistoryLimit)
	viper.SetDefault("ui.show_counts", defaults.UI.ShowCounts)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .regatta/config.yaml (current directory)
		// 2. ~/.config/regatta/config.yaml (user config)
		if _, err := os.Stat(".regatta/config.yaml"); err == nil {
			viper.SetConfigFile(".regatta/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "regatta"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the user-level default.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, _ := os.UserHomeDir()
			defaultPath := filepath.Join(home, ".config", "regatta", "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug || os.Getenv("REGATTA_DEBUG") != "" {
		logPath := filepath.Join(filepath.Dir(cfg.AuditDB), "regatta.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err == nil {
			if cleanup, err := log.Init(logPath); err == nil {
				defer cleanup()
			}
		}
	}

	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	// Credentials are obtained before the TUI starts so the prompt owns the
	// terminal. A 401 later clears them; no mid-session re-entry.
	creds, err := session.Obtain(os.Stdin, os.Stderr)
	if err != nil {
		return fmt.Errorf("obtaining credentials: %w", err)
	}

	client := registry.New(cfg.Server, creds.Token())

	db, err := audit.NewDB(cfg.AuditDB)
	if err != nil {
		return fmt.Errorf("opening audit database: %w", err)
	}
	defer func() { _ = db.Close() }()
	store := audit.NewStore(db)

	coordinator := ops.New(client, store)
	workflow := asyncapi.New(client)

	services := mode.Services{
		Client:      client,
		Coordinator: coordinator,
		Workflow:    workflow,
		Audit:       store,
		Config:      &cfg,
		ConfigPath:  viper.ConfigFileUsed(),
		Subjects: cachemanager.NewInMemoryCacheManager[string, []registry.SubjectSummary](
			"subjects", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		Topics: cachemanager.NewInMemoryCacheManager[string, []registry.TopicSummary](
			"topics", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		Clipboard: shared.SystemClipboard{},
		Browser:   shared.SystemBrowser{},
	}

	zone.NewGlobal()
	model := app.New(services)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
