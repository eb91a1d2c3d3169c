package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/budgetminibot/appcore/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "not-a-url", "/relative/path"} {
		if _, err := New(base); err == nil {
			t.Errorf("New(%q) succeeded, want error", base)
		}
	}
}

func TestClientDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != BasePath+"/users/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true, "data": {"id": 7, "first_name": "Anna", "include_in_expenses": true}}`))
	}))

	profile, err := client.Me(context.Background(), 0)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if profile.ID != 7 || profile.FirstName != "Anna" || !profile.IncludeInExpenses {
		t.Errorf("profile = %+v", profile)
	}
	if profile.ProfileFirstName != nil {
		t.Errorf("ProfileFirstName = %v, want nil for omitted field", *profile.ProfileFirstName)
	}
}

func TestClientMapsRejectionToError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "message": "group has no rules"}`))
	}))

	err := client.AcceptRules(context.Background(), 42)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T (%v), want *Error", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "group has no rules" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClientSuccessFalseWithOKStatusIsStillAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "already a member"}`))
	}))

	err := client.JoinGroup(context.Background(), 42)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T (%v), want *Error", err, err)
	}
	if apiErr.Message != "already a member" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestClientUnauthorizedMatchesSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "message": "invalid token"}`))
	}))

	_, err := client.Me(context.Background(), 0)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized match", err)
	}
}

func TestClientShapeMismatchIsDecodeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": "not-an-object"}`))
	}))

	_, err := client.Me(context.Background(), 0)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %T (%v), want *DecodeError", err, err)
	}
}

func TestClientNonJSONBodyIsDecodeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))

	_, err := client.Me(context.Background(), 0)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %T (%v), want *DecodeError", err, err)
	}
}

func TestClientSendsAuthAndRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{"success": true}`))
	}))

	client.SetToken("tok-1")
	if err := client.JoinGroup(context.Background(), 42); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-Id header")
	}

	client.ClearToken()
	if err := client.JoinGroup(context.Background(), 42); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q after ClearToken, want empty", gotAuth)
	}
}

func TestMeScopesGroupQuery(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success": true, "data": {"id": 1}}`))
	}))

	if _, err := client.Me(context.Background(), 42); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if gotQuery != "group_id=42" {
		t.Errorf("query = %q, want group_id=42", gotQuery)
	}

	if _, err := client.Me(context.Background(), 0); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty when unscoped", gotQuery)
	}
}

func TestAuthTelegramMissingTokenIsDecodeError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {}}`))
	}))

	_, err := client.AuthTelegram(context.Background(), "init")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %T (%v), want *DecodeError", err, err)
	}
}

func TestGroupBalancesDecodesDecimals(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": [
			{"user_id": 1, "first_name": "Anna", "amount": "-12.50"},
			{"user_id": 2, "first_name": "Boris", "amount": "12.50"}
		]}`))
	}))

	balances, err := client.GroupBalances(context.Background(), 42)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if !balances[0].Amount.Neg().Equal(balances[1].Amount) {
		t.Errorf("balances do not mirror: %s vs %s", balances[0].Amount, balances[1].Amount)
	}
	var req models.TransferRequest
	req.Amount = balances[1].Amount
	if req.Amount.String() != "12.5" {
		t.Errorf("amount = %s, want 12.5", req.Amount)
	}
}
