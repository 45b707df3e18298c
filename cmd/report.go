package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/registry"
)

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Print the attendance of a day",
	Long: `Print the attendance log of a day (YYYY-MM-DD, default today) as a table,
followed by the enrolled people who were not seen.

Examples:
  # Today
  attendance report

  # A given day
  attendance report 2024-03-01

  # Which days have a log
  attendance report --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addDirFlags(reportCmd, "faces", "ledger")

	reportCmd.Flags().Bool("list", false, "List the days that have a log")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyDirFlags(cmd, cfg)

	if mustGetBool(cmd, "list") {
		dates, err := ledger.ListLogs(cfg.Ledger.Dir)
		if err != nil {
			return fmt.Errorf("listing logs in %s: %w", cfg.Ledger.Dir, err)
		}
		if len(dates) == 0 {
			fmt.Printf("No attendance logs in %s\n", cfg.Ledger.Dir)
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	}

	day := time.Now()
	if len(args) == 1 {
		if day, err = ledger.ParseDate(args[0]); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
		}
	}

	path := ledger.LogPath(cfg.Ledger.Dir, day)
	records, err := ledger.ReadLog(path, time.Local)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No attendance recorded on %s\n", day.Format(constants.LedgerDateLayout))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Attendance on %s (%s)\n\n", day.Format(constants.LedgerDateLayout), path)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFIRST SEEN")
	fmt.Fprintln(w, "----\t----------")
	enrolled, err := registry.EnrolledNames(cfg.Faces.Dir)
	if err != nil {
		return fmt.Errorf("listing enrolled people: %w", err)
	}
	att := ledger.Summarize(records, enrolled)
	for _, rec := range att.Present {
		fmt.Fprintf(w, "%s\t%s\n", rec.Name, rec.Timestamp.Format(time.TimeOnly))
	}
	w.Flush()
	fmt.Printf("\nPresent: %d\n", len(att.Present))

	absent := att.Absent
	if len(absent) > 0 {
		fmt.Printf("Not seen: %d\n", len(absent))
		for _, name := range absent {
			fmt.Printf("  - %s\n", name)
		}
	}
	return nil
}
