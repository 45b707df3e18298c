package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/dlib"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/registry"
)

// errNotConfigured marks setups that cannot track anyone yet.
var errNotConfigured = errors.New("attendance is not configured")

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Check the enrollment photos without opening the camera",
	Long: `Load every photo in the faces directory the same way "run" does and report
which people were enrolled and which files were skipped.

Examples:
  # Check the default ./faces directory
  attendance enroll

  # Check another directory
  attendance enroll --faces ./class-3b`,
	Args: cobra.NoArgs,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	addDirFlags(enrollCmd, "faces", "models")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyDirFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := ensureFacesDir(cfg.Faces.Dir); err != nil {
		return err
	}
	engine, err := dlib.New(cfg.Models.Dir)
	if err != nil {
		return err
	}
	defer engine.Close()

	reg, err := loadRegistry(cmd.Context(), cfg.Faces.Dir, engine)
	if err != nil {
		return err
	}
	printOutcomes(reg)

	return checkRegistry(reg)
}

// ensureFacesDir creates a missing enrollment directory before any model is
// loaded, so a first run tells the user where to put photos.
func ensureFacesDir(dir string) error {
	created, err := registry.EnsureDir(dir)
	if err != nil {
		return err
	}
	if created {
		return fmt.Errorf("%w: created %s, add one photo per person named after them (e.g. ada_lovelace.jpg)",
			errNotConfigured, dir)
	}
	return nil
}

// loadRegistry loads the enrollment directory with a progress bar.
func loadRegistry(ctx context.Context, dir string, backend *dlib.Engine) (*registry.Registry, error) {
	fmt.Printf("Loading known faces from %s...\n", dir)

	var bar *progressbar.ProgressBar
	reg, err := registry.Load(ctx, dir, backend, backend, registry.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Encoding faces"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		bar.Set(done)
	}))
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return nil, fmt.Errorf("loading known faces: %w", err)
	}
	return reg, nil
}

// printOutcomes prints one line per enrollment file.
func printOutcomes(reg *registry.Registry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, o := range reg.Outcomes() {
		switch {
		case o.Skipped:
			fmt.Fprintf(w, "[skip]\t%s\t%v\n", o.File, o.Reason)
		case o.DuplicateOf != "":
			fmt.Fprintf(w, "[ok]\t%s\t%s (same picture as %s)\n", o.File, o.Name, o.DuplicateOf)
		case o.Faces > 1:
			fmt.Fprintf(w, "[ok]\t%s\t%s (%d faces found, using the first)\n", o.File, o.Name, o.Faces)
		default:
			fmt.Fprintf(w, "[ok]\t%s\t%s\n", o.File, o.Name)
		}
	}
	w.Flush()
	fmt.Printf("Enrolled %d of %d photos (%d skipped)\n", reg.Len(), len(reg.Outcomes()), len(reg.Skipped()))
}

// checkRegistry turns an unusable registry into the error the commands return.
func checkRegistry(reg *registry.Registry) error {
	if reg.Created() {
		return fmt.Errorf("%w: created %s, add one photo per person named after them (e.g. ada_lovelace.jpg)",
			errNotConfigured, reg.Dir())
	}
	if reg.Len() == 0 {
		return fmt.Errorf("%w: no usable face photos in %s (accepted: %v)",
			errNotConfigured, reg.Dir(), registry.AcceptedExtensions)
	}

	seen := make(map[string]bool, reg.Len())
	for _, name := range reg.Names() {
		switch {
		case name == facematch.Unknown:
			fmt.Printf("Warning: a photo named %q can never be marked present, rename it\n", name)
		case seen[name]:
			fmt.Printf("Warning: %q is enrolled more than once and will be marked at most once\n", name)
		}
		seen[name] = true
	}
	return nil
}
