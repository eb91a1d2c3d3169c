// Package deeplink maps a Telegram start parameter onto a launch intent.
package deeplink

import (
	"strconv"
	"strings"
)

// Screen is the tab override a deep link can request.
type Screen int

const (
	ScreenNone Screen = iota
	ScreenAdmin
	ScreenAddExpense
	ScreenTransfers
)

func (s Screen) String() string {
	switch s {
	case ScreenAdmin:
		return "admin"
	case ScreenAddExpense:
		return "add_expense"
	case ScreenTransfers:
		return "transfers"
	default:
		return "none"
	}
}

// Intent is the parsed launch target. The zero value means "no group,
// no user, no tab override".
type Intent struct {
	GroupID int64
	UserID  int64
	Screen  Screen
}

// Parse extracts an Intent from a start parameter of the form
//
//	[screen_]group_<id>[_user_<id>]
//
// where screen is admin, add_expense or transfers. Absent or malformed
// input never fails; unparsable parts are simply dropped, so "garbage"
// yields the zero Intent.
func Parse(startParam string) Intent {
	var in Intent
	rest := startParam

	for prefix, screen := range map[string]Screen{
		"add_expense": ScreenAddExpense,
		"transfers":   ScreenTransfers,
		"admin":       ScreenAdmin,
	} {
		if rest == prefix {
			in.Screen = screen
			return in
		}
		if after, ok := strings.CutPrefix(rest, prefix+"_"); ok {
			in.Screen = screen
			rest = after
			break
		}
	}

	rest, ok := strings.CutPrefix(rest, "group_")
	if !ok {
		return in
	}

	groupPart, userPart, hasUser := strings.Cut(rest, "_user_")
	if id, err := strconv.ParseInt(groupPart, 10, 64); err == nil && id > 0 {
		in.GroupID = id
	} else {
		return in
	}
	if hasUser {
		if id, err := strconv.ParseInt(userPart, 10, 64); err == nil && id > 0 {
			in.UserID = id
		}
	}
	return in
}
