package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hahahahacnm/medbank/internal/fixture"
	"github.com/hahahahacnm/medbank/internal/question"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local question service backed by a bundle",
	Long:  "Serves the question-bank HTTP API from a JSON bundle, for development and for practicing against a fully local backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		bundlePath, _ := cmd.Flags().GetString("bundle")

		var bundle *question.Bundle
		var err error
		if bundlePath != "" {
			data, rerr := os.ReadFile(bundlePath)
			if rerr != nil {
				return fmt.Errorf("read bundle: %w", rerr)
			}
			bundle, err = question.LoadBundle(data)
		} else {
			bundle, err = question.SampleBundle()
		}
		if err != nil {
			return fmt.Errorf("load bundle: %w", err)
		}

		fmt.Printf("serving %q (%d questions) on %s\n", bundle.Name, len(bundle.Questions), addr)
		return fixture.NewServer(bundle).ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8477", "Listen address")
	serveCmd.Flags().String("bundle", "", "Path to a question bundle JSON file (default: embedded sample)")
}
