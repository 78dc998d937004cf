package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignlens/internal/domain"
)

func testPolicy(id, name string, instances ...domain.SettingInstance) *domain.PolicySettings {
	return &domain.PolicySettings{
		PolicyID:   id,
		PolicyName: name,
		Instances:  instances,
		Definitions: map[string]domain.SettingDefinition{
			"def-timeout": {ID: "def-timeout", DisplayName: "Timeout"},
			"def-mode": {
				ID: "def-mode", DisplayName: "Scan Mode",
				OptionLabels: map[string]string{"def-mode_0": "Disabled", "def-mode_1": "Enabled"},
			},
			"def-firewall": {ID: "def-firewall", DisplayName: "Firewall"},
			"def-rules":    {ID: "def-rules", DisplayName: "Rules"},
			"def-urls":     {ID: "def-urls", DisplayName: "Blocked URLs"},
			"def-app": {
				ID: "def-app", DisplayName: "Allowed App Types",
				OptionLabels: map[string]string{"def-app_0": "Store Apps", "def-app_1": "Win32 Apps"},
			},
		},
	}
}

func TestWalk_SimpleLeaf(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "30",
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 1)
	assert.Equal(t, "Timeout", leaves[0].QualifiedName)
	assert.Equal(t, "30", leaves[0].Value)
	assert.Equal(t, "p1", leaves[0].OwnerPolicyID)
	assert.Equal(t, "Baseline", leaves[0].OwnerPolicy)
	assert.True(t, leaves[0].Comparable)
}

func TestWalk_ChoiceResolvesOptionLabel(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingChoice, DefinitionID: "def-mode", Value: "def-mode_1",
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 1)
	assert.Equal(t, "Scan Mode", leaves[0].QualifiedName)
	assert.Equal(t, "Enabled", leaves[0].Value)
}

func TestWalk_ChoiceChildrenGetBreadcrumbPrefix(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingChoice, DefinitionID: "def-mode", Value: "def-mode_1",
		Children: []domain.SettingInstance{
			{Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "60"},
		},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 2)
	assert.Equal(t, "Scan Mode \\ Timeout", leaves[1].QualifiedName)
	assert.True(t, leaves[1].Comparable)
}

func TestWalk_GroupRecursesWithoutOwnLeaf(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingGroup, DefinitionID: "def-firewall",
		Children: []domain.SettingInstance{
			{Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "30"},
		},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 1)
	assert.Equal(t, "Firewall \\ Timeout", leaves[0].QualifiedName)
}

func TestWalk_CollectionLeavesNotComparable(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingGroupCollection, DefinitionID: "def-rules",
		Items: []domain.SettingInstance{
			{Kind: domain.SettingGroup, DefinitionID: "def-rules", Children: []domain.SettingInstance{
				{Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "30"},
			}},
			{Kind: domain.SettingGroup, DefinitionID: "def-rules", Children: []domain.SettingInstance{
				{Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "60"},
			}},
		},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 2)
	assert.Equal(t, "Rules[0] \\ Timeout", leaves[0].QualifiedName)
	assert.Equal(t, "Rules[1] \\ Timeout", leaves[1].QualifiedName)
	for _, l := range leaves {
		assert.False(t, l.Comparable, "leaf under a collection must not be comparable")
	}
}

func TestWalk_SimpleCollectionItems(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingSimpleCollection, DefinitionID: "def-urls",
		Items: []domain.SettingInstance{
			{Kind: domain.SettingSimple, DefinitionID: "def-urls", Value: "https://a.example"},
			{Kind: domain.SettingSimple, DefinitionID: "def-urls", Value: "https://b.example"},
		},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 2)
	assert.Equal(t, "Blocked URLs[0]", leaves[0].QualifiedName)
	assert.Equal(t, "https://a.example", leaves[0].Value)
	assert.False(t, leaves[0].Comparable)
}

func TestWalk_ChoiceCollectionResolvesItemLabels(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingChoiceCollection, DefinitionID: "def-app",
		Items: []domain.SettingInstance{
			{Kind: domain.SettingChoice, DefinitionID: "def-app", Value: "def-app_1"},
			{Kind: domain.SettingChoice, DefinitionID: "def-app", Value: "def-app_0"},
		},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 2)
	assert.Equal(t, "Allowed App Types[0]", leaves[0].QualifiedName)
	assert.Equal(t, "Win32 Apps", leaves[0].Value)
	assert.Equal(t, "Allowed App Types[1]", leaves[1].QualifiedName)
	assert.Equal(t, "Store Apps", leaves[1].Value)
	for _, l := range leaves {
		assert.False(t, l.Comparable)
	}
}

func TestWalk_UnknownVariantPlaceholder(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingUnknown, DefinitionID: "def-timeout",
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 1)
	assert.Equal(t, UnsupportedValue, leaves[0].Value)
	assert.False(t, leaves[0].Comparable)
}

func TestWalk_UnknownDefinitionFallsBackToRawID(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingSimple, DefinitionID: "vendor_unusual_setting", Value: "1",
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 1)
	assert.Equal(t, "vendor_unusual_setting", leaves[0].QualifiedName)
}

func TestWalk_DeepNesting(t *testing.T) {
	ps := testPolicy("p1", "Baseline", domain.SettingInstance{
		Kind: domain.SettingGroup, DefinitionID: "def-firewall",
		Children: []domain.SettingInstance{{
			Kind: domain.SettingChoice, DefinitionID: "def-mode", Value: "def-mode_0",
			Children: []domain.SettingInstance{{
				Kind: domain.SettingGroup, DefinitionID: "def-rules",
				Children: []domain.SettingInstance{{
					Kind: domain.SettingSimple, DefinitionID: "def-timeout", Value: "5",
				}},
			}},
		}},
	})

	leaves := Walk(ps)
	require.Len(t, leaves, 2)
	assert.Equal(t, "Firewall \\ Scan Mode", leaves[0].QualifiedName)
	assert.Equal(t, "Firewall \\ Scan Mode \\ Rules \\ Timeout", leaves[1].QualifiedName)
}
