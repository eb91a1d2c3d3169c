// budgetbot is the command-line companion for the Budget Mini Bot
// client core: it drives the same bootstrap, settlement planning, and
// transfer APIs the Mini App uses, and can run the local stub API
// server for development.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "budgetbot",
	Short: "Budget Mini Bot client toolkit",
	Long: `budgetbot drives the Budget Mini Bot client core from the terminal:
session bootstrap, profile registration, settlement suggestions, and
transfers, against a real backend or the bundled stub server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup()
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(stubCmd())
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
