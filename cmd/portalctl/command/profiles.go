package command

import (
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "User Profiles",
	Long:  "The profiles command is used to inspect stored user profiles",
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
