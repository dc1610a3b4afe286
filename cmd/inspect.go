package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/modeset/internal/config"
	"github.com/bnema/modeset/internal/kms"
	"github.com/bnema/modeset/internal/logger"
	"github.com/bnema/modeset/internal/ui"
	"github.com/spf13/cobra"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <dri_index>",
	Short: "Show the connectors, encoders and CRTCs of a card",
	Long: `Query every connector, encoder and CRTC of /dev/dri/card<dri_index> and show
which pipeline a mode set would use. Nothing is allocated or programmed.`,
	Args: deviceIndexArg,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "", "output format: text, json or yaml (default from config)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	format := config.Get().Inspect.Format
	if inspectFormat != "" {
		format = strings.ToLower(inspectFormat)
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid format %q (must be text, json or yaml)", format)
	}

	path := devicePath(args)
	session := kms.NewSession(path, openDevice)
	defer func() {
		if err := session.Teardown(); err != nil {
			logger.Warn("Teardown incomplete", "err", err)
		}
	}()

	if err := session.Open(); err != nil {
		return err
	}
	if err := session.LoadResources(); err != nil {
		return err
	}

	var version *kms.DriverVersion
	if v, ok := session.Driver().(kms.Versioner); ok {
		dv, err := v.Version()
		if err != nil {
			logger.Debug("Driver version unavailable", "err", err)
		} else {
			version = &dv
		}
	}

	inv := kms.TakeInventory(session.Driver(), session.Resources())
	pipeline, selErr := session.SelectPipeline()

	report := ui.NewReport(path, version, inv, pipeline, selErr)
	return report.Render(cmd.OutOrStdout(), format)
}
