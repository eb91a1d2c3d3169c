package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/internal/session"
	"github.com/budgetminibot/appcore/internal/settle"
)

func planCmd() *cobra.Command {
	var flags launchFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Suggest transfers to settle your debts in a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, client, closeStore, err := flags.newBootstrap()
			if err != nil {
				return err
			}
			defer closeStore()

			launch := flags.launch()
			if launch.GroupID == 0 {
				return fmt.Errorf("a target group is required (--group or START_PARAM)")
			}

			st := b.Run(cmd.Context(), launch)
			if st.Phase != session.PhaseReady {
				return fmt.Errorf("session is in phase %s, settle up from the app first", st.Phase)
			}

			ctx := cmd.Context()
			balances, err := client.GroupBalances(ctx, launch.GroupID)
			if err != nil {
				return fmt.Errorf("failed to fetch balances: %w", err)
			}
			members, err := client.GroupMembers(ctx, launch.GroupID)
			if err != nil {
				return fmt.Errorf("failed to fetch members: %w", err)
			}

			suggestions := settle.SuggestTransfers(balances, members, st.User.ID)
			if len(suggestions) == 0 {
				fmt.Println("You are all settled up.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "TO\tUSER ID\tAMOUNT\tREASON")
			for _, t := range suggestions {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", t.ToName, t.ToUserID, t.Amount.StringFixed(2), t.Reason)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
