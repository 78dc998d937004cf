package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignlens/internal/domain"
	"assignlens/internal/settings"
)

const policySettingsJSON = `{
	"policyId": "p1",
	"policyName": "Defender Baseline",
	"settings": [
		{"settingInstance": {
			"@odata.type": "#microsoft.graph.deviceManagementConfigurationChoiceSettingInstance",
			"settingDefinitionId": "def-rtp",
			"choiceSettingValue": {
				"value": "def-rtp_1",
				"children": [
					{
						"@odata.type": "#microsoft.graph.deviceManagementConfigurationSimpleSettingInstance",
						"settingDefinitionId": "def-timeout",
						"simpleSettingValue": {"value": 30}
					}
				]
			}
		}},
		{"settingInstance": {
			"@odata.type": "#microsoft.graph.deviceManagementConfigurationSimpleSettingCollectionInstance",
			"settingDefinitionId": "def-paths",
			"simpleSettingCollectionValue": [
				{"value": "C:\\temp"},
				{"value": "D:\\scratch"}
			]
		}},
		{"settingInstance": {
			"@odata.type": "#microsoft.graph.deviceManagementConfigurationGroupSettingCollectionInstance",
			"settingDefinitionId": "def-rules",
			"groupSettingCollectionValue": [
				{"children": [{
					"@odata.type": "#microsoft.graph.deviceManagementConfigurationSimpleSettingInstance",
					"settingDefinitionId": "def-name",
					"simpleSettingValue": {"value": "Allow DNS"}
				}]}
			]
		}},
		{"settingInstance": {
			"@odata.type": "#microsoft.graph.deviceManagementConfigurationFutureSettingInstance",
			"settingDefinitionId": "def-mystery"
		}}
	],
	"definitions": [
		{
			"@odata.type": "#microsoft.graph.deviceManagementConfigurationChoiceSettingDefinition",
			"id": "def-rtp", "displayName": "Real-Time Protection",
			"options": [
				{"itemId": "def-rtp_0", "displayName": "Disabled"},
				{"itemId": "def-rtp_1", "displayName": "Enabled"}
			]
		},
		{"id": "def-timeout", "displayName": "Timeout"},
		{"id": "def-paths", "displayName": "Excluded Paths"},
		{"id": "def-rules", "displayName": "Firewall Rules"},
		{"id": "def-name", "displayName": "Rule Name"}
	]
}`

func TestDecodePolicySettings(t *testing.T) {
	ps, err := NewDecoder(nil).DecodePolicySettings([]byte(policySettingsJSON))
	require.NoError(t, err)

	assert.Equal(t, "p1", ps.PolicyID)
	assert.Equal(t, "Defender Baseline", ps.PolicyName)
	require.Len(t, ps.Instances, 4)

	choice := ps.Instances[0]
	assert.Equal(t, domain.SettingChoice, choice.Kind)
	assert.Equal(t, "def-rtp_1", choice.Value)
	require.Len(t, choice.Children, 1)
	assert.Equal(t, domain.SettingSimple, choice.Children[0].Kind)
	assert.Equal(t, "30", choice.Children[0].Value)

	coll := ps.Instances[1]
	assert.Equal(t, domain.SettingSimpleCollection, coll.Kind)
	require.Len(t, coll.Items, 2)
	assert.Equal(t, `C:\temp`, coll.Items[0].Value)

	groupColl := ps.Instances[2]
	assert.Equal(t, domain.SettingGroupCollection, groupColl.Kind)
	require.Len(t, groupColl.Items, 1)
	assert.Equal(t, domain.SettingGroup, groupColl.Items[0].Kind)

	unknown := ps.Instances[3]
	assert.Equal(t, domain.SettingUnknown, unknown.Kind)

	// definition metadata
	rtp := ps.Definitions["def-rtp"]
	assert.Equal(t, "Enabled", rtp.OptionLabels["def-rtp_1"])
}

func TestDecodePolicySettings_RoundTripThroughWalker(t *testing.T) {
	ps, err := NewDecoder(nil).DecodePolicySettings([]byte(policySettingsJSON))
	require.NoError(t, err)

	leaves := settings.Walk(ps)

	byName := map[string]domain.SettingLeaf{}
	for _, l := range leaves {
		byName[l.QualifiedName] = l
	}

	rtp, ok := byName["Real-Time Protection"]
	require.True(t, ok)
	assert.Equal(t, "Enabled", rtp.Value)
	assert.True(t, rtp.Comparable)

	timeout, ok := byName["Real-Time Protection \\ Timeout"]
	require.True(t, ok)
	assert.Equal(t, "30", timeout.Value)

	path, ok := byName["Excluded Paths[0]"]
	require.True(t, ok)
	assert.False(t, path.Comparable)

	rule, ok := byName["Firewall Rules[0] \\ Rule Name"]
	require.True(t, ok)
	assert.False(t, rule.Comparable)

	mystery, ok := byName["def-mystery"]
	require.True(t, ok)
	assert.Equal(t, settings.UnsupportedValue, mystery.Value)
	assert.False(t, mystery.Comparable)
}

func TestDecodePolicySettings_BadJSON(t *testing.T) {
	_, err := NewDecoder(nil).DecodePolicySettings([]byte(`[]`))
	require.Error(t, err)
}
