package models

import "github.com/shopspring/decimal"

// TransferRequest is the payload for sending (or notifying about) a
// peer-to-peer settlement payment.
type TransferRequest struct {
	GroupID    int64           `json:"group_id"`
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Comment    string          `json:"comment,omitempty"`
}
