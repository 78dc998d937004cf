// Package settings flattens nested configuration-policy setting trees into
// leaf tuples and classifies cross-policy repetition as conflicting,
// duplicated, or additive.
package settings

import (
	"fmt"

	"assignlens/internal/domain"
)

// UnsupportedValue is the display value emitted for an unrecognized
// setting-instance variant. It keeps the setting visible in reports
// without ever entering conflict analysis.
const UnsupportedValue = "(unsupported setting type)"

// breadcrumbSep joins nested setting names into the qualified path.
const breadcrumbSep = " \\ "

// Walk flattens one policy's setting-instance trees into leaves tagged
// with the owning policy. Leaves found under a collection container, and
// placeholders for unknown variants, come back with Comparable=false.
func Walk(ps *domain.PolicySettings) []domain.SettingLeaf {
	var leaves []domain.SettingLeaf
	for _, inst := range ps.Instances {
		leaves = append(leaves, walkInstance(inst, ps, "", false, false)...)
	}
	return leaves
}

// walkInstance folds one node. prefix is the breadcrumb of the enclosing
// groups/choices; inCollection is sticky once a collection is entered;
// suppressName drops the node's own breadcrumb segment without losing its
// definition id, so option labels still resolve.
func walkInstance(inst domain.SettingInstance, ps *domain.PolicySettings, prefix string, inCollection, suppressName bool) []domain.SettingLeaf {
	name := ""
	if !suppressName {
		name = definitionName(ps, inst.DefinitionID)
	}
	qualified := joinPath(prefix, name)

	switch inst.Kind {
	case domain.SettingSimple:
		return []domain.SettingLeaf{leaf(ps, inst.DefinitionID, qualified, inst.Value, !inCollection)}

	case domain.SettingChoice:
		leaves := []domain.SettingLeaf{leaf(ps, inst.DefinitionID, qualified, optionLabel(ps, inst.DefinitionID, inst.Value), !inCollection)}
		for _, child := range inst.Children {
			leaves = append(leaves, walkInstance(child, ps, qualified, inCollection, false)...)
		}
		return leaves

	case domain.SettingGroup:
		var leaves []domain.SettingLeaf
		for _, child := range inst.Children {
			leaves = append(leaves, walkInstance(child, ps, qualified, inCollection, false)...)
		}
		return leaves

	case domain.SettingSimpleCollection, domain.SettingChoiceCollection, domain.SettingGroupCollection:
		// Collection items are independent repeated instances. They are
		// walked for display but nothing below this point is comparable.
		// Items usually repeat the collection's definition; the indexed
		// breadcrumb already names them, so the repeated segment is
		// suppressed while the id stays usable for label lookup.
		var leaves []domain.SettingLeaf
		for i, item := range inst.Items {
			itemPrefix := fmt.Sprintf("%s[%d]", qualified, i)
			repeated := item.DefinitionID == inst.DefinitionID
			leaves = append(leaves, walkInstance(item, ps, itemPrefix, true, repeated)...)
		}
		return leaves

	default:
		return []domain.SettingLeaf{leaf(ps, inst.DefinitionID, qualified, UnsupportedValue, false)}
	}
}

func leaf(ps *domain.PolicySettings, defID, qualified, value string, comparable bool) domain.SettingLeaf {
	return domain.SettingLeaf{
		DefinitionID:  defID,
		QualifiedName: qualified,
		Value:         value,
		OwnerPolicyID: ps.PolicyID,
		OwnerPolicy:   ps.PolicyName,
		Comparable:    comparable,
	}
}

// definitionName resolves a definition id to its display name, falling
// back to the raw id when the sibling metadata does not cover it.
func definitionName(ps *domain.PolicySettings, defID string) string {
	if def, ok := ps.Definitions[defID]; ok && def.DisplayName != "" {
		return def.DisplayName
	}
	return defID
}

// optionLabel resolves a choice's selected option id to its display label,
// falling back to the raw option id.
func optionLabel(ps *domain.PolicySettings, defID, optionID string) string {
	if def, ok := ps.Definitions[defID]; ok {
		if label, ok := def.OptionLabels[optionID]; ok {
			return label
		}
	}
	return optionID
}

func joinPath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	}
	return prefix + breadcrumbSep + name
}
