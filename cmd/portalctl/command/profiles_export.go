package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/profiles/export"
)

var profilesExportParams = struct {
	BatchSize int
	Output    string
}{}

var profilesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all profiles to a spreadsheet",
	Long:  "The export command writes every stored profile to an xlsx file",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(exportProfiles) },
}

func init() {
	profilesExportCmd.Flags().StringVarP(&profilesExportParams.Output, "output", "o", "profiles.xlsx", "Path of the generated report")
	profilesExportCmd.Flags().IntVar(&profilesExportParams.BatchSize, "batch-size", export.DefaultBatchSize, "Batch size to use when fetching profiles")

	profilesCmd.AddCommand(profilesExportCmd)
}

func exportProfiles(service profiles.Service, logger *zap.SugaredLogger) error {
	list, err := export.Collect(context.TODO(), service, profilesExportParams.BatchSize)
	if err != nil {
		return err
	}

	report, err := export.NewReport(list).Generate()
	if err != nil {
		return fmt.Errorf("unable to generate report: %w", err)
	}
	if err := report.Save(profilesExportParams.Output); err != nil {
		return fmt.Errorf("unable to save report: %w", err)
	}

	logger.Debugw("profiles exported", "output", profilesExportParams.Output)
	fmt.Printf("Exported %v profiles to %s\n", len(list), profilesExportParams.Output)
	return nil
}
