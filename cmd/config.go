package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/modeset/internal/config"
	"github.com/bnema/modeset/internal/logger"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage modeset configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		logger.Infof("Config file: %s", config.GetConfigPath())
		logger.Info("[device]")
		logger.Infof("  dri_dir: %s", cfg.Device.DRIDir)
		logger.Info("[display]")
		logger.Infof("  hold: %s", cfg.Display.Hold)
		logger.Info("[inspect]")
		logger.Infof("  format: %s", cfg.Inspect.Format)
		logger.Info("[logging]")
		logger.Infof("  log_level: %s", cfg.Logging.LogLevel)
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a configuration file. Without --defaults an interactive form asks for
each setting, starting from the current values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			logger.Infof("Configuration file already exists at: %s", configPath)
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		cfg := *config.Get()
		if useDefaults, _ := cmd.Flags().GetBool("defaults"); !useDefaults {
			answers := newConfigAnswers(&cfg)
			if err := answers.form().Run(); err != nil {
				return fmt.Errorf("configuration cancelled: %w", err)
			}
			if err := answers.apply(&cfg); err != nil {
				return err
			}
		}
		if err := config.Validate(&cfg); err != nil {
			return err
		}

		config.Set(&cfg)
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration initialized at: %s", configPath)
		return nil
	},
}

// configAnswers holds the form fields as the user types them
type configAnswers struct {
	driDir   string
	hold     string
	format   string
	logLevel string
}

func newConfigAnswers(cfg *config.Config) *configAnswers {
	return &configAnswers{
		driDir:   cfg.Device.DRIDir,
		hold:     cfg.Display.Hold.String(),
		format:   cfg.Inspect.Format,
		logLevel: cfg.Logging.LogLevel,
	}
}

func (a *configAnswers) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("DRI directory").
				Description("Directory holding the card<N> nodes").
				Value(&a.driDir).
				Validate(validateDRIDir),
			huh.NewInput().
				Title("Hold").
				Description("How long to keep the mode before tearing down, e.g. 10s").
				Value(&a.hold).
				Validate(validateHold),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Inspect format").
				Options(huh.NewOptions("text", "json", "yaml")...).
				Value(&a.format),
			huh.NewSelect[string]().
				Title("Log level").
				Description("Empty keeps LOG_LEVEL from the environment").
				Options(
					huh.NewOption("from environment", ""),
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&a.logLevel),
		),
	)
}

func (a *configAnswers) apply(cfg *config.Config) error {
	if err := validateDRIDir(a.driDir); err != nil {
		return err
	}
	hold, err := parseHold(a.hold)
	if err != nil {
		return err
	}
	cfg.Device.DRIDir = filepath.Clean(strings.TrimSpace(a.driDir))
	cfg.Display.Hold = hold
	cfg.Inspect.Format = a.format
	cfg.Logging.LogLevel = a.logLevel
	return nil
}

func validateDRIDir(s string) error {
	s = strings.TrimSpace(s)
	if !filepath.IsAbs(s) {
		return fmt.Errorf("%q is not an absolute path", s)
	}
	return nil
}

func validateHold(s string) error {
	_, err := parseHold(s)
	return err
}

// parseHold accepts a Go duration; empty means no hold
func parseHold(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hold %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid hold %q: must not be negative", s)
	}
	return d, nil
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().Bool("defaults", false, "Write the current values without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	rootCmd.AddCommand(configCmd)
}
