package models

import "github.com/shopspring/decimal"

// Balance is one group member's net position: positive means the member
// is owed money, negative means they owe, zero means settled.
type Balance struct {
	// UserID identifies the member this balance belongs to.
	UserID int64 `json:"user_id"`

	// FirstName and LastName are the raw names carried on the balance
	// record itself. They are only a fallback for display purposes when
	// the member list does not contain the user.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	// Amount is the signed net balance.
	Amount decimal.Decimal `json:"amount"`
}

// GroupMember is a member entry as returned by the members endpoint,
// used for display-name resolution.
type GroupMember struct {
	UserID int64 `json:"user_id"`

	// FirstName and LastName come from Telegram.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	// ProfileFirstName and ProfileLastName are the names the member
	// entered during registration. Preferred over the Telegram names
	// when present.
	ProfileFirstName string `json:"profile_first_name,omitempty"`
	ProfileLastName  string `json:"profile_last_name,omitempty"`
}
