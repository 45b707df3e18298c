package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Face recognition attendance tracking from a live camera",
	Long: `Attendance watches a camera, recognizes the people enrolled in the faces
directory and writes the first time each of them is seen to a daily CSV log.

Enroll people by putting one photo per person into the faces directory,
named after them (e.g. ada_lovelace.jpg), then run "attendance run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "Config file (default $ATTENDANCE_CONFIG or ./attendance.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig builds the configuration for cmd: defaults, config file, environment
// and finally the persistent flags. It also installs the default logger.
// Commands apply their own flags before calling Validate.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(mustGetString(cmd, "config"))
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = mustGetString(cmd, "log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = mustGetString(cmd, "log-format")
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}
