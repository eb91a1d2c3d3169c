package main

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/internal/models"
	"github.com/budgetminibot/appcore/internal/stubserver"
)

func stubCmd() *cobra.Command {
	var addr, secret string
	var seedDemo bool
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run the local stub API server",
		Long: `Runs an in-memory stand-in for the Budget Mini Bot backend on the
given address. With --seed it provisions a demo group (ID 42) with two
members and mirrored balances, enough to walk every client flow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stub := stubserver.New(secret)
			if seedDemo {
				stub.SeedGroup(demoGroup())
			}
			return stub.Serve(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", getEnv("STUB_ADDR", ":8080"), "listen address")
	cmd.Flags().StringVar(&secret, "secret", getEnv("STUB_SECRET", "dev-secret"), "token signing secret")
	cmd.Flags().BoolVar(&seedDemo, "seed", true, "provision the demo group")
	return cmd
}

func demoGroup() stubserver.GroupSeed {
	return stubserver.GroupSeed{
		ID:    42,
		Name:  "Demo Flat",
		Rules: "Log every shared expense. Settle up monthly.",
		Members: []stubserver.MemberSeed{
			{UserID: 1001, FirstName: "Anna", ProfileFirstName: "Anna", ProfileLastName: "Ivanova", IncludeInExpenses: true, RulesAccepted: true},
			{UserID: 1002, FirstName: "Boris", ProfileFirstName: "Boris", ProfileLastName: "Petrov", IncludeInExpenses: true, RulesAccepted: true},
		},
		Balances: []models.Balance{
			{UserID: 1001, FirstName: "Anna", Amount: decimal.RequireFromString("-40.00")},
			{UserID: 1002, FirstName: "Boris", Amount: decimal.RequireFromString("40.00")},
		},
	}
}
