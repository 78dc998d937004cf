package settings

import (
	"sort"

	"assignlens/internal/domain"
)

// Analyzer classifies cross-policy setting repetition. It is pure over its
// inputs; the same leaves always yield the same report regardless of the
// order policies were walked in.
type Analyzer struct {
	additive *AdditiveList
}

// NewAnalyzer creates an Analyzer with the given allow-list. A nil list
// uses the embedded defaults.
func NewAnalyzer(additive *AdditiveList) *Analyzer {
	if additive == nil {
		additive = DefaultAdditiveList()
	}
	return &Analyzer{additive: additive}
}

type leafKey struct {
	definitionID  string
	qualifiedName string
}

// Analyze groups comparable leaves by (definition, qualified name) and
// classifies every group that spans at least two policies.
func (a *Analyzer) Analyze(leaves []domain.SettingLeaf) domain.ConflictReport {
	groups := make(map[leafKey][]domain.SettingLeaf)
	var order []leafKey
	for _, l := range leaves {
		if !l.Comparable {
			continue
		}
		key := leafKey{definitionID: l.DefinitionID, qualifiedName: l.QualifiedName}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], l)
	}

	// Deterministic output independent of input order.
	sort.Slice(order, func(i, j int) bool {
		if order[i].qualifiedName != order[j].qualifiedName {
			return order[i].qualifiedName < order[j].qualifiedName
		}
		return order[i].definitionID < order[j].definitionID
	})

	var report domain.ConflictReport
	for _, key := range order {
		members := groups[key]
		if distinctPolicies(members) < 2 {
			continue
		}

		cg := domain.ConflictGroup{
			DefinitionID:  key.definitionID,
			QualifiedName: key.qualifiedName,
			Leaves:        sortedByPolicy(members),
		}

		switch {
		case a.additive.Matches(key.qualifiedName):
			cg.Class = domain.ClassWarning
			cg.Additive = true
			report.Warnings = append(report.Warnings, cg)
		case distinctValues(members) == 1:
			cg.Class = domain.ClassWarning
			report.Warnings = append(report.Warnings, cg)
		default:
			cg.Class = domain.ClassConflict
			report.Conflicts = append(report.Conflicts, cg)
		}
	}
	return report
}

func distinctPolicies(leaves []domain.SettingLeaf) int {
	seen := make(map[string]struct{}, len(leaves))
	for _, l := range leaves {
		seen[l.OwnerPolicyID] = struct{}{}
	}
	return len(seen)
}

func distinctValues(leaves []domain.SettingLeaf) int {
	seen := make(map[string]struct{}, len(leaves))
	for _, l := range leaves {
		seen[l.Value] = struct{}{}
	}
	return len(seen)
}

func sortedByPolicy(leaves []domain.SettingLeaf) []domain.SettingLeaf {
	out := make([]domain.SettingLeaf, len(leaves))
	copy(out, leaves)
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerPolicy != out[j].OwnerPolicy {
			return out[i].OwnerPolicy < out[j].OwnerPolicy
		}
		return out[i].Value < out[j].Value
	})
	return out
}
