package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addDirFlags registers the directory flags shared by several commands.
func addDirFlags(cmd *cobra.Command, dirs ...string) {
	for _, d := range dirs {
		switch d {
		case "faces":
			cmd.Flags().String("faces", "", "Enrollment directory with one photo per person")
		case "ledger":
			cmd.Flags().String("ledger", "", "Directory of the daily attendance logs")
		case "models":
			cmd.Flags().String("models", "", "Directory with the dlib model files")
		}
	}
}

// applyDirFlags copies the directory flags that were set on the command line into cfg.
func applyDirFlags(cmd *cobra.Command, cfg *config.Config) {
	if f := cmd.Flags().Lookup("faces"); f != nil && f.Changed {
		cfg.Faces.Dir = mustGetString(cmd, "faces")
	}
	if f := cmd.Flags().Lookup("ledger"); f != nil && f.Changed {
		cfg.Ledger.Dir = mustGetString(cmd, "ledger")
	}
	if f := cmd.Flags().Lookup("models"); f != nil && f.Changed {
		cfg.Models.Dir = mustGetString(cmd, "models")
	}
}
