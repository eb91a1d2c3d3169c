package api_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetminibot/appcore/internal/api"
	"github.com/budgetminibot/appcore/internal/models"
	"github.com/budgetminibot/appcore/internal/session"
	"github.com/budgetminibot/appcore/internal/settle"
	"github.com/budgetminibot/appcore/internal/storage"
	"github.com/budgetminibot/appcore/internal/stubserver"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// initDataFor builds a syntactically valid Telegram init data payload
// for the stub.
func initDataFor(t *testing.T, id int64, firstName, lastName string) string {
	t.Helper()
	user, err := json.Marshal(map[string]any{
		"id":         id,
		"first_name": firstName,
		"last_name":  lastName,
	})
	if err != nil {
		t.Fatalf("marshaling user: %v", err)
	}
	return url.Values{
		"user":      {string(user)},
		"auth_date": {"1700000000"},
		"hash":      {"stub"},
	}.Encode()
}

func newStubFixture(t *testing.T) (*stubserver.Server, *api.Client) {
	t.Helper()

	stub := stubserver.New("integration-secret")
	stub.SeedGroup(stubserver.GroupSeed{
		ID:    42,
		Name:  "Flatmates",
		Rules: "Settle up by the end of the month.",
		Members: []stubserver.MemberSeed{
			{UserID: 100, FirstName: "Anna", ProfileFirstName: "Anna", ProfileLastName: "Ivanova", IncludeInExpenses: true, RulesAccepted: true},
			{UserID: 200, FirstName: "Boris", ProfileFirstName: "Boris", ProfileLastName: "Petrov", IncludeInExpenses: true, RulesAccepted: true},
		},
		Balances: []models.Balance{
			{UserID: 100, FirstName: "Anna", Amount: dec("-25.00")},
			{UserID: 200, FirstName: "Boris", Amount: dec("25.00")},
		},
	})

	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)

	client, err := api.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return stub, client
}

func TestBootstrapAgainstStubServer(t *testing.T) {
	_, client := newStubFixture(t)
	b := session.New(client, storage.NewMemoryTokenStore())

	st := b.Run(context.Background(), session.Launch{
		InitData: initDataFor(t, 100, "Anna", "Ivanova"),
		GroupID:  42,
	})
	if st.Phase != session.PhaseReady {
		t.Fatalf("phase = %v (err %q), want ready", st.Phase, st.Err)
	}
	if !st.User.ProfileComplete() {
		t.Errorf("profile not complete: %+v", st.User)
	}
}

func TestRegistrationFlowAgainstStubServer(t *testing.T) {
	_, client := newStubFixture(t)
	tokens := storage.NewMemoryTokenStore()
	b := session.New(client, tokens, session.WithSuccessDelay(10*time.Millisecond))

	// A brand-new Telegram user deep-linked into the group: rules are
	// configured, so acceptance comes before the main screen.
	st := b.Run(context.Background(), session.Launch{
		InitData: initDataFor(t, 300, "Clara", ""),
		GroupID:  42,
	})
	if st.Phase != session.PhaseNeedsProfile {
		t.Fatalf("phase = %v, want needs_profile for a fresh user", st.Phase)
	}

	st, err := b.RegisterProfile(context.Background(), "Clara", "Sidorova", "+79990001122")
	if err != nil {
		t.Fatalf("RegisterProfile failed: %v", err)
	}
	if st.Phase != session.PhaseSuccess {
		t.Fatalf("phase = %v, want success", st.Phase)
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.State().Phase != session.PhaseReady && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := b.State().Phase; got != session.PhaseReady {
		t.Fatalf("phase = %v, want ready after the success delay", got)
	}

	stored, _ := tokens.Load(context.Background())
	if stored == "" {
		t.Error("expected the registration token to be persisted")
	}

	// The persisted token alone must carry a relaunch to Ready.
	b2 := session.New(client, tokens)
	st = b2.Run(context.Background(), session.Launch{GroupID: 42})
	if st.Phase != session.PhaseReady {
		t.Fatalf("relaunch phase = %v, want ready", st.Phase)
	}
}

func TestRulesFlowAgainstStubServer(t *testing.T) {
	stub, client := newStubFixture(t)
	stub.SeedGroup(stubserver.GroupSeed{
		ID:    43,
		Name:  "Ski Trip",
		Rules: "Chip in for fuel.",
		Members: []stubserver.MemberSeed{
			{UserID: 100, FirstName: "Anna", ProfileFirstName: "Anna", ProfileLastName: "Ivanova"},
		},
	})

	b := session.New(client, storage.NewMemoryTokenStore())

	// Registered member of 43 with pending rules and not included in
	// expenses: the rules screen comes first.
	st := b.Run(context.Background(), session.Launch{
		InitData: initDataFor(t, 100, "Anna", "Ivanova"),
		GroupID:  43,
	})
	if st.Phase != session.PhaseNeedsRules {
		t.Fatalf("phase = %v, want needs_rules", st.Phase)
	}

	rules, err := client.GroupRules(context.Background(), 43)
	if err != nil {
		t.Fatalf("GroupRules failed: %v", err)
	}
	if rules.Text != "Chip in for fuel." {
		t.Errorf("rules text = %q", rules.Text)
	}

	st = b.AcceptRules(context.Background())
	if st.Phase != session.PhaseReady {
		t.Fatalf("phase after acceptance = %v, want ready", st.Phase)
	}
}

func TestPlanAndSendTransferAgainstStubServer(t *testing.T) {
	stub, client := newStubFixture(t)
	b := session.New(client, storage.NewMemoryTokenStore())

	st := b.Run(context.Background(), session.Launch{
		InitData: initDataFor(t, 100, "Anna", "Ivanova"),
		GroupID:  42,
	})
	if st.Phase != session.PhaseReady {
		t.Fatalf("phase = %v, want ready", st.Phase)
	}

	ctx := context.Background()
	balances, err := client.GroupBalances(ctx, 42)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	members, err := client.GroupMembers(ctx, 42)
	if err != nil {
		t.Fatalf("GroupMembers failed: %v", err)
	}

	suggestions := settle.SuggestTransfers(balances, members, st.User.ID)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	tr := suggestions[0]
	if tr.ToUserID != 200 || tr.ToName != "Boris Petrov" || !tr.Amount.Equal(dec("25.00")) {
		t.Errorf("suggestion = %+v", tr)
	}

	err = client.SendTransfer(ctx, models.TransferRequest{
		GroupID:    42,
		FromUserID: tr.FromUserID,
		ToUserID:   tr.ToUserID,
		Amount:     tr.Amount,
		Comment:    tr.Reason,
	})
	if err != nil {
		t.Fatalf("SendTransfer failed: %v", err)
	}

	recorded := stub.Transfers()
	if len(recorded) != 1 || recorded[0].ToUserID != 200 {
		t.Errorf("recorded transfers = %+v", recorded)
	}
}
