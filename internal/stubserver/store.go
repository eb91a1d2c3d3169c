package stubserver

import (
	"github.com/budgetminibot/appcore/internal/models"
)

// membership is one user's standing within one group.
type membership struct {
	registered    bool
	rulesAccepted bool
	include       bool
}

type userRecord struct {
	id           int64
	firstName    string
	lastName     string
	profileFirst *string
	profileLast  *string
	phone        string
	memberships  map[int64]*membership
}

type groupRecord struct {
	id       int64
	name     string
	rules    string
	balances []models.Balance
}

// MemberSeed describes one pre-provisioned group member.
type MemberSeed struct {
	UserID            int64
	FirstName         string
	LastName          string
	ProfileFirstName  string
	ProfileLastName   string
	IncludeInExpenses bool
	RulesAccepted     bool
}

// GroupSeed describes one pre-provisioned group.
type GroupSeed struct {
	ID       int64
	Name     string
	Rules    string
	Members  []MemberSeed
	Balances []models.Balance
}

// SeedGroup provisions a group, its members, and their balances. Called
// before serving; tests and the demo command use it to set the scene.
func (s *Server) SeedGroup(seed GroupSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[seed.ID] = &groupRecord{
		id:       seed.ID,
		name:     seed.Name,
		rules:    seed.Rules,
		balances: seed.Balances,
	}

	for _, m := range seed.Members {
		u := s.users[m.UserID]
		if u == nil {
			u = &userRecord{
				id:          m.UserID,
				memberships: make(map[int64]*membership),
			}
			s.users[m.UserID] = u
		}
		u.firstName = m.FirstName
		u.lastName = m.LastName
		if m.ProfileFirstName != "" {
			first, last := m.ProfileFirstName, m.ProfileLastName
			u.profileFirst, u.profileLast = &first, &last
		}
		u.memberships[seed.ID] = &membership{
			registered:    true,
			rulesAccepted: m.RulesAccepted,
			include:       m.IncludeInExpenses,
		}
	}
}

// upsertUser finds or creates a user by Telegram ID, refreshing the
// Telegram-provided names.
func (s *Server) upsertUser(id int64, firstName, lastName string) *userRecord {
	u := s.users[id]
	if u == nil {
		u = &userRecord{id: id, memberships: make(map[int64]*membership)}
		s.users[id] = u
	}
	if firstName != "" {
		u.firstName = firstName
	}
	if lastName != "" {
		u.lastName = lastName
	}
	return u
}

// profileOf renders a user as the profile payload, scoped to groupID
// when non-zero. Outside a group scope the membership flags stay nil.
func (s *Server) profileOf(u *userRecord, groupID int64) *models.UserProfile {
	p := &models.UserProfile{
		ID:               u.id,
		FirstName:        u.firstName,
		LastName:         u.lastName,
		ProfileFirstName: u.profileFirst,
		ProfileLastName:  u.profileLast,
	}
	if groupID != 0 {
		m := u.memberships[groupID]
		if m == nil {
			f := false
			p.IsRegisteredInGroup = &f
			p.RulesAccepted = &f
		} else {
			registered, accepted := m.registered, m.rulesAccepted
			p.IsRegisteredInGroup = &registered
			p.RulesAccepted = &accepted
			p.IncludeInExpenses = m.include
		}
	}
	return p
}

// membersOf renders a group's member list.
func (s *Server) membersOf(groupID int64) []models.GroupMember {
	var members []models.GroupMember
	for _, u := range s.users {
		m := u.memberships[groupID]
		if m == nil || !m.registered {
			continue
		}
		gm := models.GroupMember{
			UserID:    u.id,
			FirstName: u.firstName,
			LastName:  u.lastName,
		}
		if u.profileFirst != nil {
			gm.ProfileFirstName = *u.profileFirst
		}
		if u.profileLast != nil {
			gm.ProfileLastName = *u.profileLast
		}
		members = append(members, gm)
	}
	return members
}
