package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#888888")).
	Width(18)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the validation run in progress",
	Long:  `Show the validation run in progress on this machine, read from the PID and run info files under $HOME/.data-validator.`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := printStatus(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// printStatus writes the state of the current run, if any
func printStatus(w io.Writer) error {
	pid, err := ReadPIDFile()
	if err != nil || !IsProcessRunning(pid) {
		fmt.Fprintln(w, infoStyle.Render("💤 No validation run in progress"))
		return nil
	}

	info, err := ReadRunInfo()
	if err != nil {
		fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf("🔄 Validation running (pid %d), run info unavailable", pid)))
		return nil
	}

	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", statusLabelStyle.Render(label), value)
	}

	fmt.Fprintln(w, titleStyle.Render("Validation run in progress"))
	fmt.Fprintln(w)
	line("Run ID:", info.RunID)
	line("PID:", fmt.Sprintf("%d", info.PID))
	line("Started:", fmt.Sprintf("%s (%v ago)", info.StartTime.Format("2006-01-02 15:04:05"), time.Since(info.StartTime).Round(time.Second)))
	line("Source:", info.Source)
	line("Target:", info.Target)
	line("Checks:", fmt.Sprintf("%d/%d completed, %d failed (%.0f%%)", info.CompletedChecks, info.TotalChecks, info.FailedChecks, info.Progress*100))
	if info.CurrentCheck != "" {
		line("Current check:", info.CurrentCheck)
	}
	line("Last update:", info.LastUpdate.Format("2006-01-02 15:04:05"))
	return nil
}
