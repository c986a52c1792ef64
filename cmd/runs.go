package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"proxytune/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived optimization runs",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()

		path, err := runStorePath()
		if err != nil {
			log.WithError(err).Error("could not locate run archive")
			os.Exit(1)
		}

		store, err := storage.OpenRunStore(path)
		if err != nil {
			log.WithError(err).Error("could not open run archive")
			os.Exit(1)
		}
		defer store.Close()

		runs := store.List()
		if len(runs) == 0 {
			fmt.Println("No archived runs yet.")
			return
		}

		title := lipgloss.NewStyle().Bold(true)
		for _, r := range runs {
			id := r.ID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Println(title.Render(fmt.Sprintf("%s  (%s)", r.Timestamp.Format("2006-01-02 15:04"), id)))
			fmt.Printf("  iterations %d | baseline %.2f rps | best %.2f rps | %+.2f%%\n",
				r.Iterations, r.InitialRPS, r.BestRPS, r.ImprovementPct)
			fmt.Printf("  best config: %s\n", r.BestConfig)
			if r.ReportPath != "" {
				fmt.Printf("  report: %s\n", r.ReportPath)
			}
			fmt.Println()
		}
	},
}
