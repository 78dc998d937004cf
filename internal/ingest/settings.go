package ingest

import (
	"encoding/json"
	"fmt"

	"assignlens/internal/domain"
)

// Setting-instance wire discriminators (settings catalog).
const (
	wireSimpleSetting           = "#microsoft.graph.deviceManagementConfigurationSimpleSettingInstance"
	wireChoiceSetting           = "#microsoft.graph.deviceManagementConfigurationChoiceSettingInstance"
	wireSettingGroup            = "#microsoft.graph.deviceManagementConfigurationSettingGroupInstance"
	wireSimpleSettingCollection = "#microsoft.graph.deviceManagementConfigurationSimpleSettingCollectionInstance"
	wireChoiceSettingCollection = "#microsoft.graph.deviceManagementConfigurationChoiceSettingCollectionInstance"
	wireGroupSettingCollection  = "#microsoft.graph.deviceManagementConfigurationGroupSettingCollectionInstance"

	wireChoiceDefinition = "#microsoft.graph.deviceManagementConfigurationChoiceSettingDefinition"
)

// rawSettingInstance mirrors the polymorphic wire shape: which value field
// is populated depends on the discriminator.
type rawSettingInstance struct {
	ODataType    string `json:"@odata.type"`
	DefinitionID string `json:"settingDefinitionId"`

	SimpleValue           *rawSimpleValue      `json:"simpleSettingValue"`
	ChoiceValue           *rawChoiceValue      `json:"choiceSettingValue"`
	SimpleCollectionValue []rawSimpleValue     `json:"simpleSettingCollectionValue"`
	ChoiceCollectionValue []rawChoiceValue     `json:"choiceSettingCollectionValue"`
	GroupCollectionValue  []rawGroupValue      `json:"groupSettingCollectionValue"`
	GroupValue            *rawGroupValue       `json:"settingGroupValue"`
	Children              []rawSettingInstance `json:"children"`
}

type rawSimpleValue struct {
	Value json.RawMessage `json:"value"`
}

type rawChoiceValue struct {
	Value    string               `json:"value"`
	Children []rawSettingInstance `json:"children"`
}

type rawGroupValue struct {
	Children []rawSettingInstance `json:"children"`
}

// rawPolicySettings is the persisted export shape for one policy:
// the instance list plus sibling definition metadata.
type rawPolicySettings struct {
	PolicyID    string `json:"policyId"`
	PolicyName  string `json:"policyName"`
	Settings    []struct {
		Instance rawSettingInstance `json:"settingInstance"`
	} `json:"settings"`
	Definitions []rawSettingDefinition `json:"definitions"`
}

type rawSettingDefinition struct {
	ODataType   string `json:"@odata.type"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Options     []struct {
		ItemID      string `json:"itemId"`
		DisplayName string `json:"displayName"`
	} `json:"options"`
}

// DecodePolicySettings decodes one policy's settings export.
func (d *Decoder) DecodePolicySettings(data []byte) (*domain.PolicySettings, error) {
	var raw rawPolicySettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode policy settings: %w", err)
	}

	ps := &domain.PolicySettings{
		PolicyID:    raw.PolicyID,
		PolicyName:  raw.PolicyName,
		Definitions: make(map[string]domain.SettingDefinition, len(raw.Definitions)),
	}

	for _, def := range raw.Definitions {
		sd := domain.SettingDefinition{ID: def.ID, DisplayName: def.DisplayName}
		if def.ODataType == wireChoiceDefinition && len(def.Options) > 0 {
			sd.OptionLabels = make(map[string]string, len(def.Options))
			for _, opt := range def.Options {
				sd.OptionLabels[opt.ItemID] = opt.DisplayName
			}
		}
		ps.Definitions[sd.ID] = sd
	}

	for _, s := range raw.Settings {
		ps.Instances = append(ps.Instances, d.decodeSettingInstance(s.Instance, raw.PolicyID))
	}
	return ps, nil
}

// decodeSettingInstance maps one polymorphic wire node onto the
// SettingInstance sum type.
func (d *Decoder) decodeSettingInstance(raw rawSettingInstance, policyID string) domain.SettingInstance {
	inst := domain.SettingInstance{DefinitionID: raw.DefinitionID}

	switch raw.ODataType {
	case wireSimpleSetting:
		inst.Kind = domain.SettingSimple
		if raw.SimpleValue != nil {
			inst.Value = scalarString(raw.SimpleValue.Value)
		}

	case wireChoiceSetting:
		inst.Kind = domain.SettingChoice
		if raw.ChoiceValue != nil {
			inst.Value = raw.ChoiceValue.Value
			inst.Children = d.decodeChildren(raw.ChoiceValue.Children, policyID)
		}

	case wireSettingGroup:
		inst.Kind = domain.SettingGroup
		switch {
		case raw.GroupValue != nil:
			inst.Children = d.decodeChildren(raw.GroupValue.Children, policyID)
		default:
			inst.Children = d.decodeChildren(raw.Children, policyID)
		}

	case wireSimpleSettingCollection:
		inst.Kind = domain.SettingSimpleCollection
		for _, v := range raw.SimpleCollectionValue {
			inst.Items = append(inst.Items, domain.SettingInstance{
				Kind:         domain.SettingSimple,
				DefinitionID: raw.DefinitionID,
				Value:        scalarString(v.Value),
			})
		}

	case wireChoiceSettingCollection:
		inst.Kind = domain.SettingChoiceCollection
		for _, v := range raw.ChoiceCollectionValue {
			inst.Items = append(inst.Items, domain.SettingInstance{
				Kind:         domain.SettingChoice,
				DefinitionID: raw.DefinitionID,
				Value:        v.Value,
				Children:     d.decodeChildren(v.Children, policyID),
			})
		}

	case wireGroupSettingCollection:
		inst.Kind = domain.SettingGroupCollection
		for _, v := range raw.GroupCollectionValue {
			inst.Items = append(inst.Items, domain.SettingInstance{
				Kind:         domain.SettingGroup,
				DefinitionID: raw.DefinitionID,
				Children:     d.decodeChildren(v.Children, policyID),
			})
		}

	default:
		d.logger.Warn("unrecognized setting instance variant",
			"policy", policyID, "odata_type", raw.ODataType, "definition", raw.DefinitionID)
		inst.Kind = domain.SettingUnknown
	}

	return inst
}

func (d *Decoder) decodeChildren(raws []rawSettingInstance, policyID string) []domain.SettingInstance {
	if len(raws) == 0 {
		return nil
	}
	children := make([]domain.SettingInstance, 0, len(raws))
	for _, raw := range raws {
		children = append(children, d.decodeSettingInstance(raw, policyID))
	}
	return children
}

// scalarString renders a simple setting value (string, integer, or bool on
// the wire) as its display string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numbers and booleans round-trip through their literal JSON form.
	return string(raw)
}
