package stubserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/budgetminibot/appcore/internal/models"
)

// envelope is the normalized response shape every endpoint uses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// telegramUser is the user object embedded in Telegram init data.
type telegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// parseInitData reads the user out of a Telegram init data payload. The
// stub accepts any syntactically valid payload; signature verification
// belongs to the real backend.
func parseInitData(initData string) (*telegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}
	raw := values.Get("user")
	if raw == "" {
		return nil, errMissingToken
	}
	var user telegramUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errInvalidToken
	}
	return &user, nil
}

func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitData string `json:"init_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tgUser, err := parseInitData(req.InitData)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}

	s.mu.Lock()
	u := s.upsertUser(tgUser.ID, tgUser.FirstName, tgUser.LastName)
	profile := s.profileOf(u, 0)
	s.mu.Unlock()

	token, err := s.tokens.generate(u.id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeOK(w, map[string]any{"token": token, "user": profile})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "first and last name are required")
		return
	}

	s.mu.Lock()
	var u *userRecord
	if tgUser, err := parseInitData(req.InitData); err == nil {
		u = s.upsertUser(tgUser.ID, tgUser.FirstName, tgUser.LastName)
	} else {
		s.nextID++
		u = s.upsertUser(s.nextID, "", "")
	}
	first, last := req.FirstName, req.LastName
	u.profileFirst, u.profileLast = &first, &last
	u.phone = req.Phone
	if req.GroupID != 0 {
		s.joinLocked(u, req.GroupID)
	}
	profile := s.profileOf(u, req.GroupID)
	s.mu.Unlock()

	token, err := s.tokens.generate(u.id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeOK(w, map[string]any{"token": token, "user": profile})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)

	s.mu.Lock()
	u := s.users[requestUserID(r)]
	var profile *models.UserProfile
	if u != nil {
		profile = s.profileOf(u, groupID)
	}
	s.mu.Unlock()

	if profile == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeOK(w, profile)
}

func (s *Server) handleGroupRules(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	s.mu.Lock()
	g := s.groups[groupID]
	s.mu.Unlock()

	if g == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeOK(w, models.GroupRules{GroupID: g.id, Text: g.rules})
}

// joinLocked adds the user to the group, keeping existing flags when
// already a member. Callers hold s.mu.
func (s *Server) joinLocked(u *userRecord, groupID int64) {
	if m := u.memberships[groupID]; m != nil {
		m.registered = true
		return
	}
	u.memberships[groupID] = &membership{registered: true, include: true}
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groups[groupID] == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	u := s.users[requestUserID(r)]
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	// Joining an already-joined group succeeds: callers retry freely.
	s.joinLocked(u, groupID)
	writeOK(w, nil)
}

func (s *Server) handleAcceptRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID int64 `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[requestUserID(r)]
	if u == nil || u.memberships[req.GroupID] == nil {
		writeError(w, http.StatusBadRequest, "not a member of this group")
		return
	}
	u.memberships[req.GroupID].rulesAccepted = true
	writeOK(w, nil)
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	s.mu.Lock()
	g := s.groups[groupID]
	s.mu.Unlock()

	if g == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if g.balances == nil {
		writeOK(w, []models.Balance{})
		return
	}
	writeOK(w, g.balances)
}

func (s *Server) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groups[groupID] == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	members := s.membersOf(groupID)
	if members == nil {
		members = []models.GroupMember{}
	}
	writeOK(w, members)
}

func (s *Server) handleSendTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	s.mu.Lock()
	s.transfers = append(s.transfers, req)
	s.mu.Unlock()

	writeOK(w, nil)
}

// handleTransferNotification acknowledges a notification request
// without recording a payment. The stub has no one to notify.
func (s *Server) handleTransferNotification(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	s.logger.Info("transfer notification", "from", req.FromUserID, "to", req.ToUserID)
	writeOK(w, nil)
}

// Transfers returns the transfers recorded so far, for test assertions.
func (s *Server) Transfers() []models.TransferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TransferRequest, len(s.transfers))
	copy(out, s.transfers)
	return out
}
