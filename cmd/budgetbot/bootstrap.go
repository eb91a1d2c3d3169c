package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/internal/session"
)

func bootstrapCmd() *cobra.Command {
	var flags launchFlags
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Run the launch bootstrap and report the resulting phase",
		Long: `Runs the session bootstrap chain the Mini App runs on launch:
token exchange (or stored-token fallback), profile fetch, deep-link
group join, and rules check. Prints the phase the UI would present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, closeStore, err := flags.newBootstrap()
			if err != nil {
				return err
			}
			defer closeStore()

			st := b.Run(cmd.Context(), flags.launch())
			fmt.Printf("phase: %s\n", st.Phase)
			if st.User != nil {
				fmt.Printf("user: %d %s %s\n", st.User.ID, st.User.FirstName, st.User.LastName)
			}
			if st.GroupID != 0 {
				fmt.Printf("group: %d\n", st.GroupID)
			}
			if st.Err != "" {
				fmt.Printf("error: %s\n", st.Err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func registerCmd() *cobra.Command {
	var flags launchFlags
	var firstName, lastName, phone string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Submit the profile registration form",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, closeStore, err := flags.newBootstrap()
			if err != nil {
				return err
			}
			defer closeStore()

			st := b.Run(cmd.Context(), flags.launch())
			if st.Phase != session.PhaseNeedsProfile {
				return fmt.Errorf("session is in phase %s, registration not needed", st.Phase)
			}

			st, err = b.RegisterProfile(cmd.Context(), firstName, lastName, phone)
			if err != nil {
				return fmt.Errorf("registration failed: %s", st.Err)
			}
			fmt.Printf("registered, phase: %s\n", st.Phase)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&firstName, "first", "", "first name")
	cmd.Flags().StringVar(&lastName, "last", "", "last name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
	return cmd
}

func logoutCmd() *cobra.Command {
	var flags launchFlags
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, closeStore, err := flags.newBootstrap()
			if err != nil {
				return err
			}
			defer closeStore()

			b.Logout(cmd.Context())
			fmt.Println("logged out")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
