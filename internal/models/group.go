package models

import "strings"

// GroupRules is the rules text a group may require new members to accept.
type GroupRules struct {
	GroupID int64  `json:"group_id"`
	Text    string `json:"text"`
}

// Configured reports whether the group actually has rules to show.
// A nil receiver or blank text both count as "no rules".
func (r *GroupRules) Configured() bool {
	return r != nil && strings.TrimSpace(r.Text) != ""
}
