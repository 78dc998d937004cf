package domain

// AssignmentFilter is one entry of the flat filter lookup table supplied by
// the snapshot collaborator.
type AssignmentFilter struct {
	ID          string
	DisplayName string
	RuleText    string
	Platform    string
}

// FilterAnnotation is the resolved display form of a target's filter
// reference. A zero value means "no filter".
type FilterAnnotation struct {
	DisplayName string
	RuleText    string
	Mode        FilterMode
}
