// Package resolve implements the assignment resolution engine: it maps an
// asset's assignment-target list plus the actor membership indexes into the
// resolved "this applies because of that group" rows, one engine shared by
// applications, configuration policies, and scripts.
package resolve

import (
	"assignlens/internal/domain"
	"assignlens/internal/membership"
)

// UnknownGroupName is the group name of the synthetic fallback row emitted
// when the platform reports an asset active on the device but none of its
// targets matched any actor membership.
const UnknownGroupName = "unknown (possible nested group, removed assignment, or user-targeted group not evaluated)"

// Built-in target display names.
const (
	AllUsersGroupName   = "All Users"
	AllDevicesGroupName = "All Devices"
)

// Options carries the per-asset-class variation points. The engine itself
// is identical across classes.
type Options struct {
	// UnknownGroupName overrides the fallback row's group name; the
	// default phrasing in UnknownGroupName is used when empty.
	UnknownGroupName string
}

// Resolver resolves assignments for one device-resolution run. It holds no
// mutable state: the same inputs always produce the same rows.
type Resolver struct {
	actors  *membership.ActorSet
	filters *FilterAnnotator
}

// New creates a Resolver over one actor set and filter table.
func New(actors *membership.ActorSet, filters *FilterAnnotator) *Resolver {
	return &Resolver{actors: actors, filters: filters}
}

// ResolveAll resolves every asset in a class collection and returns the
// concatenated, per-asset deduplicated rows.
func (r *Resolver) ResolveAll(assets []domain.Assignable, opts Options) []domain.ResolvedAssignment {
	var rows []domain.ResolvedAssignment
	for i := range assets {
		rows = append(rows, r.Resolve(&assets[i], opts)...)
	}
	return rows
}

// Resolve produces the resolved rows for a single asset: one candidate row
// per matching target, then the Unknown fallback when the platform-active
// signal is unexplained, then tuple-level deduplication.
func (r *Resolver) Resolve(asset *domain.Assignable, opts Options) []domain.ResolvedAssignment {
	var rows []domain.ResolvedAssignment
	for _, target := range asset.Assignments {
		if row, ok := r.resolveTarget(asset, target); ok {
			rows = append(rows, row)
		}
	}

	// Absence of a resolvable group is not an error. When telemetry says
	// the asset is active here and no target explained it, report it.
	if len(rows) == 0 && asset.ReportedActive {
		name := opts.UnknownGroupName
		if name == "" {
			name = UnknownGroupName
		}
		rows = append(rows, domain.ResolvedAssignment{
			AssetID:   asset.ID,
			AssetName: asset.DisplayName,
			Context:   domain.ContextUnknown,
			GroupName: name,
		})
	}

	return r.dedupe(rows)
}

// resolveTarget classifies one target against the actor set. The second
// return value is false when the target contributes nothing (a group
// target no actor is a member of, or an unrecognized variant).
func (r *Resolver) resolveTarget(asset *domain.Assignable, target domain.AssignmentTarget) (domain.ResolvedAssignment, bool) {
	row := domain.ResolvedAssignment{
		AssetID:   asset.ID,
		AssetName: asset.DisplayName,
	}

	switch target.Kind {
	case domain.TargetAllUsers:
		row.Context = domain.ContextUser
		row.GroupName = AllUsersGroupName

	case domain.TargetAllDevices:
		row.Context = domain.ContextDevice
		row.GroupName = AllDevicesGroupName

	case domain.TargetGroupInclude, domain.TargetGroupExclude:
		match, ok := r.matchGroup(target.GroupID)
		if !ok {
			return domain.ResolvedAssignment{}, false
		}
		row.Context = match.context
		row.GroupName = match.membership.DisplayName
		row.GroupID = target.GroupID
		row.UserPrincipalName = match.userUPN
		if target.Kind == domain.TargetGroupInclude {
			row.IncludeExclude = domain.Included
		} else {
			row.IncludeExclude = domain.Excluded
		}

	default:
		// Unrecognized wire variant: logged by the caller at ingest
		// time, contributes no row here.
		return domain.ResolvedAssignment{}, false
	}

	ann := r.filters.Resolve(target.FilterID, target.FilterMode)
	if ann.Mode != domain.FilterModeNone {
		row.FilterID = target.FilterID
		row.FilterName = ann.DisplayName
		row.FilterMode = ann.Mode
	}

	return row, true
}

// groupMatch is the outcome of probing one group id against all actors.
type groupMatch struct {
	context    domain.AssignmentContext
	membership domain.GroupMembership
	userUPN    string
}

// matchGroup probes the actors in contract order: device first, then the
// primary user (upgrading a device hit to the mixed context), then the
// latest logged-on user, but only when that is a distinct principal and
// the primary user did not already supply the user-side match.
func (r *Resolver) matchGroup(groupID string) (groupMatch, bool) {
	var (
		match   groupMatch
		matched bool
	)

	if m, ok := r.actors.Device.Lookup(groupID); ok {
		match = groupMatch{context: domain.ContextDevice, membership: m}
		matched = true
	}

	userMatched := false
	if m, ok := r.actors.PrimaryUser.Lookup(groupID); ok {
		match = upgrade(match, matched, m, r.actors.PrimaryUserUPN)
		matched = true
		userMatched = true
	}

	if !userMatched && r.actors.HasDistinctLatestUser() {
		if m, ok := r.actors.LatestUser.Lookup(groupID); ok {
			match = upgrade(match, matched, m, r.actors.LatestUserUPN)
			matched = true
		}
	}

	return match, matched
}

// upgrade merges a user-side membership hit into the current match: a
// prior device hit becomes mixed (keeping the device's group record), no
// prior hit becomes a plain user match.
func upgrade(current groupMatch, deviceMatched bool, m domain.GroupMembership, upn string) groupMatch {
	if deviceMatched {
		current.context = domain.ContextMixed
		current.userUPN = upn
		return current
	}
	return groupMatch{context: domain.ContextUser, membership: m, userUPN: upn}
}

// dedupe coalesces rows with identical dedup tuples. When duplicates carry
// different user principal names, the primary user's name wins over the
// latest user's, which wins over blank.
func (r *Resolver) dedupe(rows []domain.ResolvedAssignment) []domain.ResolvedAssignment {
	if len(rows) < 2 {
		return rows
	}

	out := make([]domain.ResolvedAssignment, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		key := row.AssetID + "\x1f" + row.DedupKey()
		at, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, row)
			continue
		}
		switch {
		case out[at].UserPrincipalName == "":
			out[at].UserPrincipalName = row.UserPrincipalName
		case row.UserPrincipalName == r.actors.PrimaryUserUPN && out[at].UserPrincipalName != r.actors.PrimaryUserUPN:
			out[at].UserPrincipalName = row.UserPrincipalName
		}
	}
	return out
}
