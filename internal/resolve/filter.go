package resolve

import (
	"strings"

	"assignlens/internal/domain"
)

// FilterAnnotator resolves a target's filter id/mode into display form.
// It is a pure lookup over the caller-supplied filter table and never
// fails: an unknown id yields an annotation with an empty display name so
// the caller can fall back to rendering the raw id.
type FilterAnnotator struct {
	byID map[string]domain.AssignmentFilter
}

// NewFilterAnnotator builds an annotator from the flat filter table.
func NewFilterAnnotator(filters []domain.AssignmentFilter) *FilterAnnotator {
	a := &FilterAnnotator{byID: make(map[string]domain.AssignmentFilter, len(filters))}
	for _, f := range filters {
		if f.ID != "" {
			a.byID[f.ID] = f
		}
	}
	return a
}

// Resolve annotates one filter reference. A missing id or a "none" mode
// resolves to the zero annotation (no filter).
func (a *FilterAnnotator) Resolve(filterID string, mode domain.FilterMode) domain.FilterAnnotation {
	normalized := NormalizeFilterMode(string(mode))
	if filterID == "" || normalized == domain.FilterModeNone {
		return domain.FilterAnnotation{}
	}

	ann := domain.FilterAnnotation{Mode: normalized}
	if f, ok := a.byID[filterID]; ok {
		ann.DisplayName = f.DisplayName
		ann.RuleText = f.RuleText
	}
	return ann
}

// NormalizeFilterMode maps the wire spellings of a filter mode onto the
// enum. "none" (any case) and empty both mean no filter.
func NormalizeFilterMode(raw string) domain.FilterMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "include":
		return domain.FilterModeInclude
	case "exclude":
		return domain.FilterModeExclude
	default:
		return domain.FilterModeNone
	}
}
