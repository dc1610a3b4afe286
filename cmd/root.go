package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bnema/modeset/internal/config"
	"github.com/bnema/modeset/internal/kms"
	"github.com/bnema/modeset/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	driDirFlag string
	holdFlag   time.Duration

	// openDevice is swapped out in tests
	openDevice kms.Opener = kms.OpenDriver

	rootCmd = &cobra.Command{
		Use:   "modeset <dri_index>",
		Short: "modeset - set a display mode through DRM/KMS",
		Long: `modeset finds a connected output on /dev/dri/card<dri_index>, picks its largest
mode, allocates a dumb framebuffer of that size and programs the CRTC with it
through the kernel mode-setting interface. Every handle it acquired is released
again before it exits.`,
		Example:           "  modeset 0\n  modeset --hold 10s 1",
		Args:              deviceIndexArg,
		PersistentPreRunE: initConfig,
		RunE:              runModeset,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: /etc/modeset, ~/.config/modeset or ./modeset.toml)")
	rootCmd.PersistentFlags().StringVar(&driDirFlag, "dri-dir", "", "directory holding the card nodes (default from config, /dev/dri)")
	rootCmd.Flags().DurationVar(&holdFlag, "hold", 0, "keep the mode this long before tearing down (default from config)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return err
	}
	return logger.SetLevel(config.Get().Logging.LogLevel)
}

// deviceIndexArg accepts exactly one non-negative DRI index
func deviceIndexArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <dri_index>\nExample: %s 0", cmd.CommandPath(), cmd.CommandPath())
	}
	_, err := parseDeviceIndex(args[0])
	return err
}

func parseDeviceIndex(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid dri_index %q: must be a non-negative integer", s)
	}
	return uint(n), nil
}

// devicePath resolves the card node for args[0], the flag winning over config
func devicePath(args []string) string {
	index, _ := parseDeviceIndex(args[0])
	dir := config.Get().Device.DRIDir
	if driDirFlag != "" {
		dir = driDirFlag
	}
	return kms.DevicePath(dir, index)
}

func runModeset(cmd *cobra.Command, args []string) error {
	hold := config.Get().Display.Hold
	if cmd.Flags().Changed("hold") {
		hold = holdFlag
	}
	path := devicePath(args)

	logger.Info("Starting DRM mode setter", "device", path)
	session := kms.NewSession(path, openDevice)
	defer func() {
		logger.Info("Cleaning up")
		if err := session.Teardown(); err != nil {
			logger.Warn("Teardown incomplete", "err", err)
		}
	}()

	if err := session.Run(); err != nil {
		return err
	}

	if hold > 0 {
		holdMode(cmd.Context(), hold)
	}
	return nil
}

// holdMode blocks until d elapses or the process is asked to stop
func holdMode(ctx context.Context, d time.Duration) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Holding mode", "duration", d)
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		logger.Info("Interrupted, releasing display")
	}
}
