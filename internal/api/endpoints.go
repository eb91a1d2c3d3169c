package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/budgetminibot/appcore/internal/models"
)

// authResult is the payload of both token-issuing endpoints.
type authResult struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// AuthTelegram exchanges Telegram init data for a session token. The
// init data is forwarded verbatim; the server owns its validation.
// The returned token is NOT installed on the client automatically.
func (c *Client) AuthTelegram(ctx context.Context, initData string) (string, error) {
	body := struct {
		InitData string `json:"init_data"`
	}{InitData: initData}

	var res authResult
	if err := c.do(ctx, "auth.telegram", http.MethodPost, "/auth/telegram", nil, body, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", &DecodeError{Endpoint: "auth.telegram", Err: fmt.Errorf("missing token in response")}
	}
	return res.Token, nil
}

// Register submits the profile-registration form and returns the created
// profile together with a fresh session token.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, string, error) {
	var res authResult
	if err := c.do(ctx, "auth.register", http.MethodPost, "/auth/register", nil, req, &res); err != nil {
		return nil, "", err
	}
	if res.User == nil || res.Token == "" {
		return nil, "", &DecodeError{Endpoint: "auth.register", Err: fmt.Errorf("missing user or token in response")}
	}
	return res.User, res.Token, nil
}

// Me fetches the current user's profile. A non-zero groupID scopes the
// registration and rules flags to that group.
func (c *Client) Me(ctx context.Context, groupID int64) (*models.UserProfile, error) {
	var query url.Values
	if groupID != 0 {
		query = url.Values{"group_id": {strconv.FormatInt(groupID, 10)}}
	}

	var profile models.UserProfile
	if err := c.do(ctx, "users.me", http.MethodGet, "/users/me", query, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GroupRules fetches the group's rules text.
func (c *Client) GroupRules(ctx context.Context, groupID int64) (*models.GroupRules, error) {
	var rules models.GroupRules
	path := fmt.Sprintf("/groups/%d/rules", groupID)
	if err := c.do(ctx, "groups.rules", http.MethodGet, path, nil, nil, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

// AcceptRules records the user's acceptance of the group's rules.
func (c *Client) AcceptRules(ctx context.Context, groupID int64) error {
	body := struct {
		GroupID int64 `json:"group_id"`
	}{GroupID: groupID}
	return c.do(ctx, "rules.accept", http.MethodPost, "/rules/accept-rules", nil, body, nil)
}

// JoinGroup adds the current user to the group. Joining a group the
// user already belongs to succeeds on the server side, so callers can
// retry freely.
func (c *Client) JoinGroup(ctx context.Context, groupID int64) error {
	path := fmt.Sprintf("/groups/%d/join", groupID)
	return c.do(ctx, "groups.join", http.MethodPost, path, nil, nil, nil)
}

// GroupBalances fetches the per-member net balances of a group.
func (c *Client) GroupBalances(ctx context.Context, groupID int64) ([]models.Balance, error) {
	var balances []models.Balance
	path := fmt.Sprintf("/groups/%d/balances", groupID)
	if err := c.do(ctx, "groups.balances", http.MethodGet, path, nil, nil, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// GroupMembers fetches the member list of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	path := fmt.Sprintf("/groups/%d/members", groupID)
	if err := c.do(ctx, "groups.members", http.MethodGet, path, nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// SendTransfer records a settlement payment.
func (c *Client) SendTransfer(ctx context.Context, req models.TransferRequest) error {
	return c.do(ctx, "transfers.send", http.MethodPost, "/transfers/", nil, req, nil)
}

// SendTransferNotification notifies the recipient about a transfer
// without recording a payment.
func (c *Client) SendTransferNotification(ctx context.Context, req models.TransferRequest) error {
	return c.do(ctx, "transfers.notify", http.MethodPost, "/transfers/send-notification", nil, req, nil)
}
