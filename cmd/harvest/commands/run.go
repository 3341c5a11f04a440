package commands

import (
	"errors"
	"fmt"

	"auction-harvester/config"
	"auction-harvester/models"
	"auction-harvester/services"

	"github.com/spf13/cobra"
)

var (
	runLocality string
	runMaxPages int
	runTrigger  string
	runNoExport bool
	runNoNotify bool
)

func init() {
	runCmd.Flags().StringVar(&runLocality, "locality", "", "locality filter (defaults to HARVEST_LOCALITY)")
	runCmd.Flags().IntVar(&runMaxPages, "max-pages", 0, "maximum result pages to walk (defaults to HARVEST_MAX_PAGES)")
	runCmd.Flags().StringVar(&runTrigger, "trigger", services.TriggerCLI, "trigger source stored in the run ledger")
	runCmd.Flags().BoolVar(&runNoExport, "no-export", false, "skip the JSON/XLSX export")
	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "skip the email notification")
	rootCmd.AddCommand(runCmd)
}

var errRunFailed = errors.New("harvest failed")

var runCmd = &cobra.Command{
	Use:   "run [--locality <name>] [--max-pages <n>]",
	Short: "Runs one harvest now and prints its outcome.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.LoadHarvestSettings()
		if runLocality != "" {
			settings.Locality = runLocality
		}
		if runMaxPages > 0 {
			settings.MaxPages = runMaxPages
		}
		if runNoExport {
			settings.ExportEnabled = false
		}
		if runNoNotify {
			settings.NotifyEnabled = false
		}

		pipeline := services.NewHarvestPipelineFromSettings(config.DB, settings)
		summary, err := pipeline.RunOnce(cmd.Context(), runTrigger)
		if services.IsBusy(err) {
			return fmt.Errorf("a harvest is already running")
		}
		if summary != nil && summary.Run != nil {
			renderRuns(cmd.OutOrStdout(), []models.HarvestRun{*summary.Run})
		}
		if err != nil {
			return err
		}

		if len(summary.Records) > 0 {
			renderAuctions(cmd.OutOrStdout(), summary.Records, int64(len(summary.Records)))
		}
		if !summary.Success {
			return fmt.Errorf("%w: %s", errRunFailed, summary.Error)
		}
		return nil
	},
}
