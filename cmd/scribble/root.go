package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings is the resolved configuration shared by every command.
type settings struct {
	Vault          string `mapstructure:"vault"`
	Verbose        bool   `mapstructure:"verbose"`
	ReadOnly       bool   `mapstructure:"read_only"`
	SystemDir      string `mapstructure:"system_dir"`
	HighlightStyle string `mapstructure:"highlight_style"`
	MaxDepth       int    `mapstructure:"max_depth"`
}

var (
	cfg    settings
	config = viper.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribble",
	Short: "Render a vault of scribbles: Markdown notes that can render each other",
	Long: `scribble reads a directory of Markdown files with YAML frontmatter.
Each file is a scribble; its content-type decides how it renders, and
template scribbles can act as renderers for other scribbles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadSettings(); err != nil {
			return err
		}

		level := slog.LevelInfo
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// loadSettings merges defaults, scribble.yaml, SCRIBBLE_* variables and flags.
func loadSettings() error {
	config.SetConfigName("scribble")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")
	if root, err := findRoot(); err == nil {
		config.AddConfigPath(root)
	}
	config.SetEnvPrefix("SCRIBBLE")
	config.AutomaticEnv()

	config.SetDefault("system_dir", ".scribble")
	config.SetDefault("highlight_style", "github")
	config.SetDefault("max_depth", 32)

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := config.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("vault", "", "Vault directory (defaults to the nearest vault root or the working directory)")
	flags.Bool("read-only", false, "Never write to the vault")
	flags.String("style", "", "Chroma style for highlighted sources")
	flags.Int("max-depth", 0, "Maximum renderer nesting depth")

	config.BindPFlag("verbose", flags.Lookup("verbose"))
	config.BindPFlag("vault", flags.Lookup("vault"))
	config.BindPFlag("read_only", flags.Lookup("read-only"))
	config.BindPFlag("highlight_style", flags.Lookup("style"))
	config.BindPFlag("max_depth", flags.Lookup("max-depth"))
}
