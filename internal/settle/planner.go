// Package settle computes suggested peer-to-peer transfers from a
// group's current balances.
package settle

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgetminibot/appcore/internal/models"
)

// ReasonSettleUp is the fixed label attached to every suggestion.
const ReasonSettleUp = "debt settlement"

// Transfer is one suggested payment from a debtor to a creditor. It is
// a view-model value, recomputed from the current balances on every call
// and never persisted.
type Transfer struct {
	FromUserID int64
	ToUserID   int64
	ToName     string
	Amount     decimal.Decimal
	Reason     string
}

// SuggestTransfers matches debtors against creditors and returns the
// current user's outgoing suggestions, in the order the debtors appear
// in balances.
//
// The matching is first-fit: each debtor is paired with the first
// creditor in input order, for min(|debt|, credit), and no second
// transfer is emitted for a debtor whose debt exceeds that creditor's
// claim. Creditor claims are NOT decremented between debtors, so two
// debtors can both be matched against the same creditor's full claim.
// This is not a minimal-cashflow settlement; it intentionally mirrors
// the behavior the product shipped with (see DESIGN.md) and must not be
// "fixed" into a balanced allocator without a product decision.
//
// The full bipartite suggestion set is computed internally; only
// transfers where the current user is the sender are returned.
func SuggestTransfers(balances []models.Balance, members []models.GroupMember, currentUserID int64) []Transfer {
	var debtors, creditors []models.Balance
	for _, b := range balances {
		switch {
		case b.Amount.IsNegative():
			debtors = append(debtors, b)
		case b.Amount.IsPositive():
			creditors = append(creditors, b)
		}
	}

	byID := make(map[int64]models.GroupMember, len(members))
	for _, m := range members {
		byID[m.UserID] = m
	}

	var all []Transfer
	for _, d := range debtors {
		for _, c := range creditors {
			if !c.Amount.IsPositive() {
				continue
			}
			amount := d.Amount.Abs()
			if c.Amount.LessThan(amount) {
				amount = c.Amount
			}
			all = append(all, Transfer{
				FromUserID: d.UserID,
				ToUserID:   c.UserID,
				ToName:     displayName(byID, c),
				Amount:     amount,
				Reason:     ReasonSettleUp,
			})
			break
		}
	}

	var mine []Transfer
	for _, t := range all {
		if t.FromUserID == currentUserID {
			mine = append(mine, t)
		}
	}
	return mine
}

// displayName resolves a member's display name, preferring the
// registration profile names, then the Telegram names, then the raw
// names on the balance record itself when the member lookup misses.
func displayName(members map[int64]models.GroupMember, b models.Balance) string {
	first, last := b.FirstName, b.LastName
	if m, ok := members[b.UserID]; ok {
		first = firstNonEmpty(m.ProfileFirstName, m.FirstName)
		last = firstNonEmpty(m.ProfileLastName, m.LastName)
	}
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return "Unknown"
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
