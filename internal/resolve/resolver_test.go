package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignlens/internal/domain"
	"assignlens/internal/membership"
)

const (
	primaryUPN = "alice@contoso.com"
	latestUPN  = "bob@contoso.com"
)

func actorSet(device, primary, latest []domain.GroupMembership) *membership.ActorSet {
	return membership.NewActorSet(device, primary, latest, primaryUPN, latestUPN)
}

func group(id, name string) domain.GroupMembership {
	return domain.GroupMembership{GroupID: id, DisplayName: name, Kind: domain.MembershipAssigned}
}

func newResolver(actors *membership.ActorSet, filters ...domain.AssignmentFilter) *Resolver {
	return New(actors, NewFilterAnnotator(filters))
}

func TestResolve_AllDevicesTarget(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{
		ID:             "app-1",
		DisplayName:    "7-Zip",
		Class:          domain.AssetClassApp,
		Assignments:    []domain.AssignmentTarget{{Kind: domain.TargetAllDevices}},
		ReportedActive: true,
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextDevice, rows[0].Context)
	assert.Equal(t, "All Devices", rows[0].GroupName)
	assert.Equal(t, domain.IncludeExcludeNone, rows[0].IncludeExclude)
	assert.Empty(t, rows[0].GroupID)
}

func TestResolve_AllUsersTarget(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{
		ID:          "app-2",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetAllUsers}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUser, rows[0].Context)
	assert.Equal(t, "All Users", rows[0].GroupName)
	assert.Equal(t, domain.IncludeExcludeNone, rows[0].IncludeExclude)
}

func TestResolve_DeviceGroupInclude(t *testing.T) {
	r := newResolver(actorSet([]domain.GroupMembership{group("g1", "Kiosk Devices")}, nil, nil))
	asset := domain.Assignable{
		ID:          "pol-1",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g1"}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextDevice, rows[0].Context)
	assert.Equal(t, domain.Included, rows[0].IncludeExclude)
	assert.Equal(t, "Kiosk Devices", rows[0].GroupName)
	assert.Equal(t, "g1", rows[0].GroupID)
	assert.Empty(t, rows[0].UserPrincipalName)
}

func TestResolve_GroupExclude(t *testing.T) {
	r := newResolver(actorSet(nil, []domain.GroupMembership{group("g2", "Blocked Users")}, nil))
	asset := domain.Assignable{
		ID:          "app-3",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupExclude, GroupID: "g2"}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUser, rows[0].Context)
	assert.Equal(t, domain.Excluded, rows[0].IncludeExclude)
	assert.Equal(t, primaryUPN, rows[0].UserPrincipalName)
}

func TestResolve_MixedContext(t *testing.T) {
	// The same group holds both the device and the primary user: the row
	// must come out mixed, never plain Device or plain User.
	shared := group("g3", "Finance")
	r := newResolver(actorSet(
		[]domain.GroupMembership{shared},
		[]domain.GroupMembership{shared},
		nil,
	))
	asset := domain.Assignable{
		ID:          "pol-2",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g3"}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextMixed, rows[0].Context)
	assert.Equal(t, "Finance", rows[0].GroupName)
	assert.Equal(t, primaryUPN, rows[0].UserPrincipalName)
}

func TestResolve_LatestUserOnlyMatch(t *testing.T) {
	// Only the latest logged-on user (a distinct principal) is in g1:
	// user context, latest user's group display name, latest user's UPN.
	r := newResolver(actorSet(nil, nil, []domain.GroupMembership{group("g1", "Night Shift")}))
	asset := domain.Assignable{
		ID:          "scr-1",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g1"}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUser, rows[0].Context)
	assert.Equal(t, "Night Shift", rows[0].GroupName)
	assert.Equal(t, latestUPN, rows[0].UserPrincipalName)
}

func TestResolve_LatestUserIgnoredWhenSameAsPrimary(t *testing.T) {
	actors := membership.NewActorSet(
		nil, nil,
		[]domain.GroupMembership{group("g1", "Night Shift")},
		"alice@contoso.com", "ALICE@contoso.com",
	)
	r := newResolver(actors)
	asset := domain.Assignable{
		ID:             "scr-2",
		Assignments:    []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g1"}},
		ReportedActive: true,
	}

	// The latest-user set is the same principal, so it is not consulted;
	// with no other match the platform-active signal falls back to Unknown.
	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUnknown, rows[0].Context)
}

func TestResolve_PrimaryUserBeatsLatestUser(t *testing.T) {
	shared := group("g1", "Shared Group")
	r := newResolver(actorSet(nil, []domain.GroupMembership{shared}, []domain.GroupMembership{shared}))
	asset := domain.Assignable{
		ID:          "app-4",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g1"}},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUser, rows[0].Context)
	assert.Equal(t, primaryUPN, rows[0].UserPrincipalName)
}

func TestResolve_UnknownFallback(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{
		ID:          "app-5",
		DisplayName: "Company Portal",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "not-a-member"},
		},
		ReportedActive: true,
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUnknown, rows[0].Context)
	assert.Equal(t, UnknownGroupName, rows[0].GroupName)
	assert.Equal(t, domain.IncludeExcludeNone, rows[0].IncludeExclude)
	assert.Empty(t, rows[0].FilterName)
	assert.Empty(t, rows[0].FilterMode)
}

func TestResolve_UnknownFallbackCustomPhrasing(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{ID: "scr-3", ReportedActive: true}

	rows := r.Resolve(&asset, Options{UnknownGroupName: "unknown (script state reported without visible assignment)"})
	require.Len(t, rows, 1)
	assert.Equal(t, "unknown (script state reported without visible assignment)", rows[0].GroupName)
}

func TestResolve_NoFallbackWhenInactive(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{
		ID:          "app-6",
		Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "not-a-member"}},
	}

	assert.Empty(t, r.Resolve(&asset, Options{}))
}

func TestResolve_NoFallbackWhenAnyTargetMatched(t *testing.T) {
	r := newResolver(actorSet([]domain.GroupMembership{group("g1", "Kiosks")}, nil, nil))
	asset := domain.Assignable{
		ID: "app-7",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g1"},
			{Kind: domain.TargetGroupInclude, GroupID: "not-a-member"},
		},
		ReportedActive: true,
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextDevice, rows[0].Context)
}

func TestResolve_UnknownTargetVariantContributesNothing(t *testing.T) {
	r := newResolver(actorSet(nil, nil, nil))
	asset := domain.Assignable{
		ID:             "app-8",
		Assignments:    []domain.AssignmentTarget{{Kind: domain.TargetUnknown}},
		ReportedActive: true,
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ContextUnknown, rows[0].Context)
}

func TestResolve_FilterAnnotation(t *testing.T) {
	r := newResolver(
		actorSet([]domain.GroupMembership{group("g1", "Laptops")}, nil, nil),
		domain.AssignmentFilter{ID: "f1", DisplayName: "Corporate Windows 11", RuleText: `(device.osVersion -startsWith "10.0.22")`},
	)
	asset := domain.Assignable{
		ID: "app-9",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g1", FilterID: "f1", FilterMode: domain.FilterModeInclude},
		},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Corporate Windows 11", rows[0].FilterName)
	assert.Equal(t, "f1", rows[0].FilterID)
	assert.Equal(t, domain.FilterModeInclude, rows[0].FilterMode)
}

func TestResolve_UnknownFilterKeepsRawID(t *testing.T) {
	r := newResolver(actorSet([]domain.GroupMembership{group("g1", "Laptops")}, nil, nil))
	asset := domain.Assignable{
		ID: "app-10",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g1", FilterID: "missing", FilterMode: domain.FilterModeExclude},
		},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].FilterName)
	assert.Equal(t, "missing", rows[0].FilterID)
	assert.Equal(t, domain.FilterModeExclude, rows[0].FilterMode)
}

func TestResolve_Deduplication(t *testing.T) {
	// Two targets over the same physical group produce one row.
	r := newResolver(actorSet([]domain.GroupMembership{group("g1", "Laptops")}, nil, nil))
	asset := domain.Assignable{
		ID: "app-11",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g1"},
			{Kind: domain.TargetGroupInclude, GroupID: "g1"},
		},
	}

	rows := r.Resolve(&asset, Options{})
	assert.Len(t, rows, 1)
}

func TestResolve_DedupPrefersPrimaryUPN(t *testing.T) {
	// Two distinct groups share a display name; one matches via the
	// latest user, the other via the primary user. Coalesced row keeps
	// the primary user's UPN regardless of target order.
	r := newResolver(actorSet(
		nil,
		[]domain.GroupMembership{group("g-b", "Field Staff")},
		[]domain.GroupMembership{group("g-a", "Field Staff")},
	))
	asset := domain.Assignable{
		ID: "app-12",
		Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g-a"},
			{Kind: domain.TargetGroupInclude, GroupID: "g-b"},
		},
	}

	rows := r.Resolve(&asset, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, primaryUPN, rows[0].UserPrincipalName)
}

func TestResolve_NoDuplicateTuplesEver(t *testing.T) {
	r := newResolver(actorSet(
		[]domain.GroupMembership{group("g1", "Laptops"), group("g2", "Kiosks")},
		[]domain.GroupMembership{group("g1", "Laptops"), group("g3", "Sales")},
		nil,
	))
	assets := []domain.Assignable{
		{ID: "a1", Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetAllDevices},
			{Kind: domain.TargetGroupInclude, GroupID: "g1"},
			{Kind: domain.TargetGroupInclude, GroupID: "g1"},
			{Kind: domain.TargetGroupExclude, GroupID: "g2"},
			{Kind: domain.TargetGroupInclude, GroupID: "g3"},
		}, ReportedActive: true},
		{ID: "a2", Assignments: []domain.AssignmentTarget{{Kind: domain.TargetAllUsers}}},
	}

	rows := r.ResolveAll(assets, Options{})
	seen := map[string]bool{}
	for _, row := range rows {
		key := row.AssetID + "|" + row.DedupKey()
		assert.False(t, seen[key], "duplicate tuple for %s", key)
		seen[key] = true
	}
}

func TestResolve_UnknownRowCountMatchesUnexplainedActives(t *testing.T) {
	r := newResolver(actorSet([]domain.GroupMembership{group("g1", "Laptops")}, nil, nil))
	assets := []domain.Assignable{
		// active, explained by membership: no unknown row
		{ID: "a1", Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "g1"}}, ReportedActive: true},
		// active, unexplained: one unknown row
		{ID: "a2", Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "gX"}}, ReportedActive: true},
		// active, no assignments at all: one unknown row
		{ID: "a3", ReportedActive: true},
		// inactive, unexplained: nothing
		{ID: "a4", Assignments: []domain.AssignmentTarget{{Kind: domain.TargetGroupInclude, GroupID: "gX"}}},
		// active, explained by built-in: no unknown row
		{ID: "a5", Assignments: []domain.AssignmentTarget{{Kind: domain.TargetAllDevices}}, ReportedActive: true},
	}

	rows := r.ResolveAll(assets, Options{})
	unknown := 0
	for _, row := range rows {
		if row.Context == domain.ContextUnknown {
			unknown++
		}
	}
	assert.Equal(t, 2, unknown)
}

func TestResolve_Idempotent(t *testing.T) {
	r := newResolver(actorSet(
		[]domain.GroupMembership{group("g1", "Laptops")},
		[]domain.GroupMembership{group("g2", "Sales")},
		[]domain.GroupMembership{group("g3", "Night Shift")},
	), domain.AssignmentFilter{ID: "f1", DisplayName: "Win11"})

	assets := []domain.Assignable{
		{ID: "a1", Assignments: []domain.AssignmentTarget{
			{Kind: domain.TargetGroupInclude, GroupID: "g1", FilterID: "f1", FilterMode: domain.FilterModeInclude},
			{Kind: domain.TargetGroupInclude, GroupID: "g2"},
			{Kind: domain.TargetGroupInclude, GroupID: "g3"},
		}},
		{ID: "a2", ReportedActive: true},
	}

	first := r.ResolveAll(assets, Options{})
	second := r.ResolveAll(assets, Options{})
	assert.Equal(t, first, second)
}
