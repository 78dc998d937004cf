// Package membership builds fast membership-test indexes over the raw
// group lists of the three actors (device, primary user, latest user).
package membership

import (
	"strings"

	"assignlens/internal/domain"
)

// Index is a read-only membership lookup for one actor, keyed by group id.
// An empty index matches nothing.
type Index struct {
	byID map[string]domain.GroupMembership
}

// Build constructs an Index from an actor's membership records. Group ids
// are unique within one actor's set; on a duplicate the first record wins.
func Build(ms []domain.GroupMembership) *Index {
	idx := &Index{byID: make(map[string]domain.GroupMembership, len(ms))}
	for _, m := range ms {
		if m.GroupID == "" {
			continue
		}
		if _, ok := idx.byID[m.GroupID]; !ok {
			idx.byID[m.GroupID] = m
		}
	}
	return idx
}

// Contains reports whether the actor is a member of the group.
func (i *Index) Contains(groupID string) bool {
	_, ok := i.byID[groupID]
	return ok
}

// Lookup returns the actor's membership record for the group, if any.
func (i *Index) Lookup(groupID string) (domain.GroupMembership, bool) {
	m, ok := i.byID[groupID]
	return m, ok
}

// Len returns the number of groups in the index.
func (i *Index) Len() int { return len(i.byID) }

// ActorSet bundles the three per-actor indexes for one resolution run,
// together with the user principal names needed for row attribution.
type ActorSet struct {
	Device      *Index
	PrimaryUser *Index
	LatestUser  *Index

	PrimaryUserUPN string
	LatestUserUPN  string
}

// NewActorSet builds all three indexes from raw membership lists.
func NewActorSet(device, primary, latest []domain.GroupMembership, primaryUPN, latestUPN string) *ActorSet {
	return &ActorSet{
		Device:         Build(device),
		PrimaryUser:    Build(primary),
		LatestUser:     Build(latest),
		PrimaryUserUPN: primaryUPN,
		LatestUserUPN:  latestUPN,
	}
}

// HasDistinctLatestUser reports whether the latest logged-on user is a
// different principal than the primary user. When false, the latest-user
// index is not consulted during resolution.
func (a *ActorSet) HasDistinctLatestUser() bool {
	if a.LatestUserUPN == "" {
		return false
	}
	return !strings.EqualFold(a.PrimaryUserUPN, a.LatestUserUPN)
}
