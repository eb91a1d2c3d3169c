package settle

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/budgetminibot/appcore/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSuggestTransfers(t *testing.T) {
	tests := []struct {
		name          string
		balances      []models.Balance
		members       []models.GroupMember
		currentUserID int64
		want          []Transfer
	}{
		{
			name:          "empty balances yields empty result",
			balances:      nil,
			currentUserID: 1,
			want:          nil,
		},
		{
			name: "all settled yields empty result",
			balances: []models.Balance{
				{UserID: 1, Amount: dec("0")},
				{UserID: 2, Amount: dec("0")},
			},
			currentUserID: 1,
			want:          nil,
		},
		{
			name: "single creditor exact match",
			balances: []models.Balance{
				{UserID: 1, FirstName: "Anna", Amount: dec("-100")},
				{UserID: 2, FirstName: "Boris", Amount: dec("100")},
			},
			currentUserID: 1,
			want: []Transfer{
				{FromUserID: 1, ToUserID: 2, ToName: "Boris", Amount: dec("100"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "first match only, no second transfer to cover the remainder",
			balances: []models.Balance{
				{UserID: 1, FirstName: "Anna", Amount: dec("-150")},
				{UserID: 2, FirstName: "Boris", Amount: dec("50")},
				{UserID: 3, FirstName: "Clara", Amount: dec("100")},
			},
			currentUserID: 1,
			want: []Transfer{
				{FromUserID: 1, ToUserID: 2, ToName: "Boris", Amount: dec("50"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "creditor claim is not decremented between debtors",
			balances: []models.Balance{
				{UserID: 1, FirstName: "Anna", Amount: dec("-60")},
				{UserID: 2, FirstName: "Boris", Amount: dec("-40")},
				{UserID: 3, FirstName: "Clara", Amount: dec("100")},
			},
			currentUserID: 2,
			// Anna's transfer already covers 60 of Clara's claim, but
			// Boris is still matched against the full 100.
			want: []Transfer{
				{FromUserID: 2, ToUserID: 3, ToName: "Clara", Amount: dec("40"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "only the current user's transfers are returned",
			balances: []models.Balance{
				{UserID: 1, FirstName: "Anna", Amount: dec("-30")},
				{UserID: 2, FirstName: "Boris", Amount: dec("-20")},
				{UserID: 3, FirstName: "Clara", Amount: dec("50")},
			},
			currentUserID: 2,
			want: []Transfer{
				{FromUserID: 2, ToUserID: 3, ToName: "Clara", Amount: dec("20"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "profile names preferred over telegram and balance names",
			balances: []models.Balance{
				{UserID: 1, FirstName: "raw", Amount: dec("-10")},
				{UserID: 2, FirstName: "tg-first", LastName: "tg-last", Amount: dec("10")},
			},
			members: []models.GroupMember{
				{UserID: 2, FirstName: "tg-first", LastName: "tg-last", ProfileFirstName: "Boris", ProfileLastName: "Petrov"},
			},
			currentUserID: 1,
			want: []Transfer{
				{FromUserID: 1, ToUserID: 2, ToName: "Boris Petrov", Amount: dec("10"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "balance record names used when member lookup misses",
			balances: []models.Balance{
				{UserID: 1, Amount: dec("-10")},
				{UserID: 2, FirstName: "Boris", Amount: dec("10")},
			},
			members:       []models.GroupMember{{UserID: 1}},
			currentUserID: 1,
			want: []Transfer{
				{FromUserID: 1, ToUserID: 2, ToName: "Boris", Amount: dec("10"), Reason: ReasonSettleUp},
			},
		},
		{
			name: "no names anywhere falls back to Unknown",
			balances: []models.Balance{
				{UserID: 1, Amount: dec("-10")},
				{UserID: 2, Amount: dec("10")},
			},
			currentUserID: 1,
			want: []Transfer{
				{FromUserID: 1, ToUserID: 2, ToName: "Unknown", Amount: dec("10"), Reason: ReasonSettleUp},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTransfers(tt.balances, tt.members, tt.currentUserID)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].FromUserID != tt.want[i].FromUserID ||
					got[i].ToUserID != tt.want[i].ToUserID ||
					got[i].ToName != tt.want[i].ToName ||
					got[i].Reason != tt.want[i].Reason ||
					!got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestSuggestTransfersZeroSum feeds random zero-sum balance vectors and
// checks the planner stays well-defined: every suggestion is a positive
// amount from the current user to a creditor, at most one per debtor.
func TestSuggestTransfersZeroSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(51)
		balances := make([]models.Balance, 0, n)
		sum := decimal.Zero
		for i := 0; i < n; i++ {
			amt := decimal.NewFromInt(int64(rng.Intn(20001) - 10000)).Div(decimal.NewFromInt(100))
			if i == n-1 {
				amt = sum.Neg() // force the vector to sum to zero
			}
			sum = sum.Add(amt)
			balances = append(balances, models.Balance{UserID: int64(i + 1), Amount: amt})
		}

		currentUserID := int64(1)
		got := SuggestTransfers(balances, nil, currentUserID)

		if len(got) > 1 {
			t.Fatalf("iter %d: %d transfers for one debtor, want at most 1", iter, len(got))
		}
		for _, tr := range got {
			if tr.FromUserID != currentUserID {
				t.Fatalf("iter %d: transfer from %d, want %d", iter, tr.FromUserID, currentUserID)
			}
			if !tr.Amount.IsPositive() {
				t.Fatalf("iter %d: non-positive amount %s", iter, tr.Amount)
			}
		}
	}
}
