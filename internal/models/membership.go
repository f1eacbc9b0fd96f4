package models

import "time"

type Scope string

const (
	ScopeTeam  Scope = "team"
	ScopeGroup Scope = "group"
)

// Role is ordered by authority: a lower value outranks a higher one.
type Role int

const (
	RoleOwner   Role = 0
	RoleManager Role = 1
	RoleMember  Role = 2
)

func (r Role) Valid() bool {
	return r >= RoleOwner && r <= RoleMember
}

// Invitable reports whether the role can be granted by invite or role change.
func (r Role) Invitable() bool {
	return r == RoleManager || r == RoleMember
}

// AtLeast reports whether r carries at least the authority of min.
func (r Role) AtLeast(min Role) bool {
	return r <= min
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	case RoleMember:
		return "member"
	default:
		return "unknown"
	}
}

type MemberStatus int

const (
	MemberStatusDisabled MemberStatus = 0
	MemberStatusNormal   MemberStatus = 1
	MemberStatusInviting MemberStatus = 2
	MemberStatusRejected MemberStatus = 3
)

func (s MemberStatus) String() string {
	switch s {
	case MemberStatusDisabled:
		return "disabled"
	case MemberStatusNormal:
		return "normal"
	case MemberStatusInviting:
		return "inviting"
	case MemberStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// CanTransition reports whether a relation row may move from s to next.
func (s MemberStatus) CanTransition(next MemberStatus) bool {
	switch s {
	case MemberStatusDisabled:
		return next == MemberStatusNormal
	case MemberStatusInviting:
		return next == MemberStatusNormal || next == MemberStatusRejected
	case MemberStatusRejected:
		return next == MemberStatusInviting
	default:
		return false
	}
}

// Membership holds the columns shared by every membership table.
type Membership struct {
	Base
	UserID       string       `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Role         Role         `gorm:"not null" json:"role"`
	Status       MemberStatus `gorm:"not null;index" json:"status"`
	DisplayOrder *int         `json:"display_order"`
	Color        string       `gorm:"type:varchar(7)" json:"color"`
	JoinedAt     *time.Time   `json:"joined_at"`
}

type TeamMember struct {
	Membership
	TeamID string `gorm:"type:varchar(36);not null;index" json:"team_id"`
}

type GroupMember struct {
	Membership
	TaskGroupID string `gorm:"type:varchar(36);not null;index" json:"task_group_id"`
	Alias       string `gorm:"type:varchar(100)" json:"alias"`
}

// Member is the scope-neutral view of a TeamMember or GroupMember row.
type Member struct {
	Membership
	Scope   Scope  `json:"scope"`
	ScopeID string `json:"scope_id"`
	Alias   string `json:"alias,omitempty"`
}

func (m *Member) Active() bool {
	return m.Status == MemberStatusNormal
}

func (m *TeamMember) ToMember() *Member {
	return &Member{Membership: m.Membership, Scope: ScopeTeam, ScopeID: m.TeamID}
}

func (m *GroupMember) ToMember() *Member {
	return &Member{Membership: m.Membership, Scope: ScopeGroup, ScopeID: m.TaskGroupID, Alias: m.Alias}
}

func NewTeamMember(m *Member) *TeamMember {
	return &TeamMember{Membership: m.Membership, TeamID: m.ScopeID}
}

func NewGroupMember(m *Member) *GroupMember {
	return &GroupMember{Membership: m.Membership, TaskGroupID: m.ScopeID, Alias: m.Alias}
}
