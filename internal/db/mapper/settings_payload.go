// Package mapper converts between snapshot-store rows and domain types.
package mapper

import (
	"encoding/json"
	"fmt"

	"assignlens/internal/domain"
)

// settingsPayload is the stored JSON shape for one policy's setting trees.
// Instances are recursive, so the store keeps them as a document rather
// than flattening them into rows.
type settingsPayload struct {
	Instances   []settingInstance            `json:"instances"`
	Definitions map[string]settingDefinition `json:"definitions,omitempty"`
}

type settingInstance struct {
	Kind         string            `json:"kind"`
	DefinitionID string            `json:"definitionId"`
	Value        string            `json:"value,omitempty"`
	Children     []settingInstance `json:"children,omitempty"`
	Items        []settingInstance `json:"items,omitempty"`
}

type settingDefinition struct {
	DisplayName  string            `json:"displayName"`
	OptionLabels map[string]string `json:"optionLabels,omitempty"`
}

// SettingsToPayload serializes a policy's setting trees for storage.
func SettingsToPayload(ps *domain.PolicySettings) ([]byte, error) {
	p := settingsPayload{
		Instances: instancesToPayload(ps.Instances),
	}
	if len(ps.Definitions) > 0 {
		p.Definitions = make(map[string]settingDefinition, len(ps.Definitions))
		for id, def := range ps.Definitions {
			p.Definitions[id] = settingDefinition{
				DisplayName:  def.DisplayName,
				OptionLabels: def.OptionLabels,
			}
		}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal settings payload for %s: %w", ps.PolicyID, err)
	}
	return data, nil
}

// SettingsFromPayload reconstructs a policy's setting trees from storage.
func SettingsFromPayload(policyID, policyName string, data []byte) (*domain.PolicySettings, error) {
	var p settingsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal settings payload for %s: %w", policyID, err)
	}

	ps := &domain.PolicySettings{
		PolicyID:   policyID,
		PolicyName: policyName,
		Instances:  instancesFromPayload(p.Instances),
	}
	if len(p.Definitions) > 0 {
		ps.Definitions = make(map[string]domain.SettingDefinition, len(p.Definitions))
		for id, def := range p.Definitions {
			ps.Definitions[id] = domain.SettingDefinition{
				ID:           id,
				DisplayName:  def.DisplayName,
				OptionLabels: def.OptionLabels,
			}
		}
	}
	return ps, nil
}

func instancesToPayload(in []domain.SettingInstance) []settingInstance {
	if len(in) == 0 {
		return nil
	}
	out := make([]settingInstance, len(in))
	for i, inst := range in {
		out[i] = settingInstance{
			Kind:         string(inst.Kind),
			DefinitionID: inst.DefinitionID,
			Value:        inst.Value,
			Children:     instancesToPayload(inst.Children),
			Items:        instancesToPayload(inst.Items),
		}
	}
	return out
}

func instancesFromPayload(in []settingInstance) []domain.SettingInstance {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.SettingInstance, len(in))
	for i, inst := range in {
		out[i] = domain.SettingInstance{
			Kind:         domain.SettingKind(inst.Kind),
			DefinitionID: inst.DefinitionID,
			Value:        inst.Value,
			Children:     instancesFromPayload(inst.Children),
			Items:        instancesFromPayload(inst.Items),
		}
	}
	return out
}
