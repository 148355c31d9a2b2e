package domain

import "time"

// Role is a member's role inside a family group. Dispatch never filters by
// role; it is carried for reporting only.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) String() string { return string(r) }

// FamilyGroup is the audience of a dispatch.
type FamilyGroup struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links a user to a family group. Read-only from the dispatch
// subsystem's perspective.
type Membership struct {
	ID       string
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// Preference is a per (user, channel) delivery setting. Destination holds a
// channel-specific address: an email address, a phone number, or for PUSH a
// serialized subscription payload.
type Preference struct {
	ID          string
	UserID      string
	Channel     Channel
	Enabled     bool
	Destination string
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Eligible reports whether the preference may receive deliveries:
// it must be enabled and verified.
func (p Preference) Eligible() bool {
	return p.Enabled && p.VerifiedAt != nil
}

// Recipient is one group member together with all of their channel
// preferences, eligible or not.
type Recipient struct {
	User        User
	Preferences []Preference
}
