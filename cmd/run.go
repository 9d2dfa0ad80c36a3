package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hahahahacnm/medbank/internal/app"
	"github.com/hahahahacnm/medbank/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := app.Options{
		APIBase: flagOrEnv(cmd, "api", "MEDBANK_API"),
		Token:   flagOrEnv(cmd, "token", "MEDBANK_TOKEN"),
		Bank:    flagOrEnv(cmd, "bank", "MEDBANK_BANK"),
		Banks:   splitBanks(flagOrEnv(cmd, "banks", "MEDBANK_BANKS")),
		Store:   st,
	}
	if opts.Bank == "" && len(opts.Banks) > 0 {
		opts.Bank = opts.Banks[0]
	}

	return app.Run(opts)
}
