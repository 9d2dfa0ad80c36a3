package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hahahahacnm/medbank/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <bank> <category>",
	Short: "Clear local chapter progress",
	Long:  "Empties the recorded answer history and resume position for one chapter. Server-side state (mistake book, recurrence counts) is untouched.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		key := store.Key{Subject: args[0], Category: args[1]}
		if err := st.ProgressRepo().Reset(context.Background(), key); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		fmt.Printf("cleared progress for %s / %s\n", key.Subject, key.Category)
		return nil
	},
}
