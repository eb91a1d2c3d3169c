package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/internal/models"
	"github.com/budgetminibot/appcore/internal/session"
	"github.com/budgetminibot/appcore/internal/settle"
)

func sendCmd() *cobra.Command {
	var flags launchFlags
	var toUserID int64
	var amountStr, comment string
	var notifyOnly bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Record a settlement transfer to another member",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(amountStr)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amountStr, err)
			}
			if !amount.IsPositive() {
				return fmt.Errorf("amount must be positive")
			}

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

			if comment == "" {
				comment = settle.ReasonSettleUp
			}
			req := models.TransferRequest{
				GroupID:    launch.GroupID,
				FromUserID: st.User.ID,
				ToUserID:   toUserID,
				Amount:     amount,
				Comment:    comment,
			}
			if notifyOnly {
				if err := client.SendTransferNotification(cmd.Context(), req); err != nil {
					return fmt.Errorf("failed to send notification: %w", err)
				}
				fmt.Printf("notified user %d about %s\n", toUserID, amount.StringFixed(2))
				return nil
			}
			if err := client.SendTransfer(cmd.Context(), req); err != nil {
				return fmt.Errorf("failed to send transfer: %w", err)
			}
			fmt.Printf("recorded transfer of %s to user %d\n", amount.StringFixed(2), toUserID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&toUserID, "to", 0, "recipient user ID")
	cmd.Flags().StringVar(&amountStr, "amount", "", "transfer amount, e.g. 12.50")
	cmd.Flags().StringVar(&comment, "comment", "", "transfer comment")
	cmd.Flags().BoolVar(&notifyOnly, "notify", false, "only notify the recipient, do not record a payment")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
