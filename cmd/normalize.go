package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/imageutil"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Convert enrollment photos to upright 8-bit RGB JPEG",
	Long: `Convert every photo in the faces directory to an upright, opaque 8-bit RGB
JPEG so that the face detector can read it. PNG, WebP, BMP and TIFF files are
replaced by a .jpg with the same name and, unless --keep-originals is given,
deleted after a successful conversion. JPEG files are rewritten in place.

Examples:
  # Normalize ./faces
  attendance normalize

  # Shrink large phone photos and keep the originals
  attendance normalize --max-size 1600 --keep-originals`,
	Args: cobra.NoArgs,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	addDirFlags(normalizeCmd, "faces")

	normalizeCmd.Flags().Int("max-size", 0, "Shrink photos so the longest side is at most this many pixels (0 = keep size)")
	normalizeCmd.Flags().Int("quality", constants.NormalizedJPEGQuality, "JPEG quality")
	normalizeCmd.Flags().Bool("keep-originals", false, "Keep non-JPEG originals after conversion (by default they are deleted)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyDirFlags(cmd, cfg)

	opts := imageutil.NormalizeOptions{
		Quality:       mustGetInt(cmd, "quality"),
		MaxSize:       mustGetInt(cmd, "max-size"),
		KeepOriginals: mustGetBool(cmd, "keep-originals"),
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", opts.Quality)
	}

	if err := os.MkdirAll(cfg.Faces.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Faces.Dir, err)
	}
	paths, err := imageutil.NormalizeCandidates(cfg.Faces.Dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", cfg.Faces.Dir, err)
	}
	if len(paths) == 0 {
		fmt.Printf("No photos to normalize in %s\n", cfg.Faces.Dir)
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Normalizing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	results := make([]imageutil.NormalizeResult, 0, len(paths))
	for _, p := range paths {
		results = append(results, imageutil.Normalize(p, opts))
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	var failed, unsupported int
	for _, r := range results {
		src := filepath.Base(r.Source)
		switch {
		case errors.Is(r.Err, imageutil.ErrUnsupported):
			unsupported++
			fmt.Printf("[skip] %s: %v (convert it to JPEG first)\n", src, r.Err)
		case r.Err != nil:
			failed++
			fmt.Printf("[skip] %s: %v\n", src, r.Err)
		case r.Converted():
			fmt.Printf("[converted] %s -> %s\n", src, filepath.Base(r.Output))
		default:
			fmt.Printf("[ok] %s\n", src)
		}
	}

	fmt.Printf("Normalized %d of %d photos", len(results)-failed-unsupported, len(results))
	if failed+unsupported > 0 {
		fmt.Printf(" (%d failed, %d unsupported)", failed, unsupported)
	}
	fmt.Println()
	return nil
}
