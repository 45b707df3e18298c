package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/dlib"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track attendance from the camera",
	Long: `Open the camera, recognize enrolled people and log the first time each
of them is seen today. Press q in the video window or Ctrl+C to stop.

Examples:
  # Use the defaults (./faces, camera 0, log in the current directory)
  attendance run

  # Stricter matching on every frame with a second camera
  attendance run --device 1 --tolerance 0.45 --every-frame

  # No window, e.g. on a server; stop with Ctrl+C
  attendance run --headless --ledger /var/lib/attendance`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addDirFlags(runCmd, "faces", "ledger", "models")

	runCmd.Flags().Int("device", 0, "Camera device index")
	runCmd.Flags().Float64("tolerance", constants.DefaultTolerance, "Maximum descriptor distance for a match (lower = stricter)")
	runCmd.Flags().Int("scale", constants.DefaultScaleFactor, "Downsampling factor applied to frames before detection")
	runCmd.Flags().Bool("every-frame", false, "Process every frame instead of every other frame")
	runCmd.Flags().Bool("headless", false, "Run without a video window")
}

// applyRunFlags copies the run flags that were set on the command line into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	applyDirFlags(cmd, cfg)
	if cmd.Flags().Changed("device") {
		cfg.Camera.Device = mustGetInt(cmd, "device")
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Matching.Tolerance = mustGetFloat64(cmd, "tolerance")
	}
	if cmd.Flags().Changed("scale") {
		cfg.Matching.ScaleFactor = mustGetInt(cmd, "scale")
	}
	if cmd.Flags().Changed("every-frame") {
		cfg.Matching.ProcessEveryOtherFrame = !mustGetBool(cmd, "every-frame")
	}
	if cmd.Flags().Changed("headless") {
		cfg.Camera.Headless = mustGetBool(cmd, "headless")
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureFacesDir(cfg.Faces.Dir); err != nil {
		return err
	}
	engine, err := dlib.New(cfg.Models.Dir)
	if err != nil {
		return err
	}
	defer engine.Close()

	reg, err := loadRegistry(ctx, cfg.Faces.Dir, engine)
	if err != nil {
		return err
	}
	printOutcomes(reg)
	if err := checkRegistry(reg); err != nil {
		return err
	}

	cam, err := camera.Open(cfg.Camera.Device)
	if err != nil {
		return err
	}
	defer cam.Close()

	start := time.Now()
	dailyLog, err := ledger.OpenDailyLog(cfg.Ledger.Dir, start)
	if err != nil {
		return err
	}
	defer func() {
		if err := dailyLog.Close(); err != nil {
			slog.Error("closing attendance log", "path", dailyLog.Path(), "error", err)
		}
	}()

	opts := []session.Option{
		session.WithOnMark(func(rec ledger.Record) {
			fmt.Printf("[marked] %s at %s\n", rec.Name, rec.Timestamp.Format(constants.LedgerTimestampLayout))
		}),
	}
	if !cfg.Camera.Headless {
		win := camera.NewWindow(constants.WindowTitle, constants.QuitKey)
		defer win.Close()
		opts = append(opts, session.WithDisplay(win))
	}

	s := session.New(session.Options{
		Tolerance:              cfg.Matching.Tolerance,
		ScaleFactor:            cfg.Matching.ScaleFactor,
		ProcessEveryOtherFrame: cfg.Matching.ProcessEveryOtherFrame,
	}, reg, ledger.New(reg.Names(), dailyLog), engine, engine, cam, opts...)

	if cfg.Camera.Headless {
		fmt.Printf("Tracking %d people headless. Press Ctrl+C to stop.\n", reg.Len())
	} else {
		fmt.Printf("Tracking %d people. Press %q in the video window or Ctrl+C to stop.\n", reg.Len(), constants.QuitKey)
	}

	summary, err := s.Run(ctx)
	if summary != nil {
		printSummary(summary, time.Since(start))
	}
	fmt.Printf("Saved attendance to: %s\n", dailyLog.Path())
	return err
}

func printSummary(summary *session.Summary, elapsed time.Duration) {
	fmt.Println()
	switch summary.Stop {
	case session.StopQuit:
		fmt.Println("Stopped from the video window")
	case session.StopCancelled:
		fmt.Println("Interrupted")
	case session.StopReadFailure:
		fmt.Printf("Camera stopped delivering frames: %v\n", summary.ReadErr)
	}
	fmt.Printf("Session %s: %d frames read, %d processed in %s\n",
		summary.ID, summary.Frames, summary.Processed, elapsed.Round(time.Second))
	fmt.Printf("Present: %d, not seen: %d\n", len(summary.Marked), len(summary.Pending))
	for _, name := range summary.Pending {
		fmt.Printf("  - %s\n", name)
	}
}
