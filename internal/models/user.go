package models

// UserProfile is the server's user record, cached read-only for the
// duration of a session. Only the fields the bootstrap logic inspects
// are modeled.
type UserProfile struct {
	// ID is the Telegram user ID.
	ID int64 `json:"id"`

	// FirstName and LastName are the names Telegram reported at auth time.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	// ProfileFirstName and ProfileLastName are the names the user entered
	// during registration. Both non-nil means the profile is complete.
	ProfileFirstName *string `json:"profile_first_name"`
	ProfileLastName  *string `json:"profile_last_name"`

	// IsRegisteredInGroup reports membership in the group the profile
	// fetch was scoped to. Nil when the fetch was not group-scoped or the
	// server left the flag out.
	IsRegisteredInGroup *bool `json:"is_registered_in_group"`

	// RulesAccepted reports whether the user has accepted that group's
	// rules. Nil when unknown.
	RulesAccepted *bool `json:"rules_accepted"`

	// IncludeInExpenses is whether the member takes part in expense
	// splitting at all.
	IncludeInExpenses bool `json:"include_in_expenses"`
}

// ProfileComplete reports whether registration has been finished:
// both profile name fields are present.
func (u *UserProfile) ProfileComplete() bool {
	return u != nil && u.ProfileFirstName != nil && u.ProfileLastName != nil
}

// RegisterRequest is the payload for profile registration.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	GroupID   int64  `json:"group_id,omitempty"`
	InitData  string `json:"init_data,omitempty"`
}
