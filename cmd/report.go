package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"proxytune/internal/report"
	"proxytune/internal/storage"
)

// report regenerates an HTML report from a saved history JSON, which is
// how an interrupted run still gets a document.
var reportCmd = &cobra.Command{
	Use:   "report <history.json>",
	Short: "Render a report from a saved optimization history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()

		history, err := storage.ReadHistory(args[0])
		if err != nil {
			log.WithError(err).Error("could not load history")
			os.Exit(1)
		}

		out, _ := cmd.Flags().GetString("output")
		gen := &report.Generator{Dir: filepath.Dir(args[0]), Log: log}

		path, err := gen.Generate(history, out)
		if err != nil {
			log.WithError(err).Error("could not generate report")
			os.Exit(1)
		}
		fmt.Printf("Report: %s\n", path)
	},
}

func init() {
	reportCmd.Flags().StringP("output", "o", "", "Report output path")
}
