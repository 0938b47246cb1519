package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/menosense/portal/devices"
)

var readingsParams = struct {
	Count int
}{}

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Simulated Device Readings",
	Long:  "The readings command is used to inspect the readings produced by the simulated device",
}

var readingsSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print sample readings",
	Long:  "The sample command prints readings as the simulated device would report them on connect",
	RunE: func(cmd *cobra.Command, args []string) error {
		if readingsParams.Count <= 0 {
			return fmt.Errorf("count must be positive")
		}
		printReadings(os.Stdout, devices.NewGenerator().Sample(readingsParams.Count))
		return nil
	},
}

func init() {
	readingsSampleCmd.Flags().IntVarP(&readingsParams.Count, "count", "n", 5, "Number of readings to print")

	readingsCmd.AddCommand(readingsSampleCmd)
	rootCmd.AddCommand(readingsCmd)
}

func printReadings(w io.Writer, readings []devices.Reading) {
	for _, r := range readings {
		fmt.Fprintf(w, "%s °C\t%d bpm\t%s\t%s\n", r.FormattedTemperature(), r.HeartRate, r.SleepQuality, r.Mood)
	}
}
