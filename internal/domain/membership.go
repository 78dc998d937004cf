package domain

import (
	"strings"
	"time"
)

// Actor identifies whose membership set a group record belongs to.
type Actor string

const (
	ActorDevice      Actor = "device"
	ActorPrimaryUser Actor = "primary_user"
	ActorLatestUser  Actor = "latest_user"
)

// MembershipKind describes how a directory object ended up in a group.
type MembershipKind string

const (
	MembershipAssigned      MembershipKind = "assigned"
	MembershipDynamic       MembershipKind = "dynamic"
	MembershipDirectoryRole MembershipKind = "directory_role"
)

// GroupMembership is one fully-resolved group record for a single actor.
// Member counts are optional enrichment: nil means "not fetched", which is
// distinct from a group that genuinely has zero members.
type GroupMembership struct {
	GroupID           string
	DisplayName       string
	Kind              MembershipKind
	DeviceMemberCount *int
	UserMemberCount   *int
	DynamicRuleText   string
}

// Device is the managed endpoint a resolution run is scoped to.
type Device struct {
	ID             string
	DisplayName    string
	PrimaryUserUPN string
	LatestUserUPN  string
	OS             string
	CapturedAt     time.Time
}

// HasDistinctLatestUser reports whether the most-recently logged-on user is
// a different principal than the primary user. Comparison is by UPN; an
// empty latest UPN means there is no separate latest-user actor.
func (d *Device) HasDistinctLatestUser() bool {
	if d.LatestUserUPN == "" {
		return false
	}
	return !strings.EqualFold(d.PrimaryUserUPN, d.LatestUserUPN)
}
