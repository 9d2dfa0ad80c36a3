package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hahahahacnm/medbank/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "medbank",
	Short: "Terminal question-bank practice for clinical exams",
	Long:  "Medbank — browse chapter catalogs, drill question banks, and rework your mistake book from the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env next to the binary is a convenient place for the API token.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MEDBANK_DB env var)")
	rootCmd.Flags().String("api", "", "Question service base URL (overrides MEDBANK_API env var)")
	rootCmd.Flags().String("token", "", "API bearer token (overrides MEDBANK_TOKEN env var)")
	rootCmd.Flags().String("bank", "", "Question bank to open (overrides MEDBANK_BANK env var)")
	rootCmd.Flags().String("banks", "", "Comma-separated list of switchable banks (overrides MEDBANK_BANKS env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then MEDBANK_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// flagOrEnv returns the flag value when set, the environment variable
// otherwise.
func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}

func splitBanks(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
