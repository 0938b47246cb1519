package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/menosense/portal/pointer"
	"github.com/menosense/portal/profiles"
)

var profilesGetParams = struct {
	Uid string
}{}

var profilesGetCmd = &cobra.Command{
	Use:   "get {uid}",
	Args:  cobra.ExactArgs(1),
	Short: "Print a stored profile",
	Long:  "The get command prints the profile stored for the user with the given uid",
	RunE: func(cmd *cobra.Command, args []string) error {
		profilesGetParams.Uid = args[0]
		return Run(getProfile)
	},
}

func init() {
	profilesCmd.AddCommand(profilesGetCmd)
}

func getProfile(service profiles.Service) error {
	profile, err := service.Get(context.TODO(), profilesGetParams.Uid)
	if err != nil {
		return err
	}

	printProfile(os.Stdout, profile)
	return nil
}

func printProfile(w io.Writer, profile *profiles.Profile) {
	age := "(empty)"
	if profile.Age != nil {
		age = strconv.Itoa(*profile.Age)
	}

	fmt.Fprintf(w, "Uid:          %s\n", profile.Uid)
	fmt.Fprintf(w, "Email:        %s\n", profile.Email)
	fmt.Fprintf(w, "Display Name: %s\n", orEmpty(pointer.ToString(profile.DisplayName)))
	fmt.Fprintf(w, "Age:          %s\n", age)
	fmt.Fprintf(w, "Profession:   %s\n", orEmpty(pointer.ToString(profile.Profession)))
	fmt.Fprintf(w, "Photo:        %s\n", orEmpty(pointer.ToString(profile.Img)))
	fmt.Fprintf(w, "Created:      %s\n", profile.CreatedTime.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated:      %s\n", profile.UpdatedTime.UTC().Format("2006-01-02 15:04:05"))
}

func orEmpty(value string) string {
	if value == "" {
		return "(empty)"
	}
	return value
}
