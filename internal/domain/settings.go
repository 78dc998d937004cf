package domain

// SettingKind is the closed set of setting-instance variants in a
// configuration policy's settings tree.
type SettingKind string

const (
	SettingSimple           SettingKind = "simple"
	SettingChoice           SettingKind = "choice"
	SettingGroup            SettingKind = "group"
	SettingSimpleCollection SettingKind = "simple_collection"
	SettingChoiceCollection SettingKind = "choice_collection"
	SettingGroupCollection  SettingKind = "group_collection"
	SettingUnknown          SettingKind = "unknown"
)

// IsCollection reports whether the variant holds repeated independent
// items. Collection items are never cross-compared between policies.
func (k SettingKind) IsCollection() bool {
	switch k {
	case SettingSimpleCollection, SettingChoiceCollection, SettingGroupCollection:
		return true
	}
	return false
}

// SettingInstance is one node of a policy's nested settings tree.
//
//   - Simple: Value holds the scalar.
//   - Choice: Value holds the selected option id (resolved to a label via
//     the sibling definition); Children holds nested child instances.
//   - Group: Children only.
//   - *Collection: Items holds the repeated instances, one per element.
//   - Unknown: unrecognized wire variant, rendered as a placeholder.
type SettingInstance struct {
	Kind         SettingKind
	DefinitionID string
	Value        string
	Children     []SettingInstance
	Items        []SettingInstance
}

// SettingDefinition is sibling metadata for one setting definition:
// its display name and, for choice settings, the option id → label map.
type SettingDefinition struct {
	ID           string
	DisplayName  string
	OptionLabels map[string]string
}

// PolicySettings is one policy's raw settings tree plus the definition
// metadata needed to resolve names and choice labels.
type PolicySettings struct {
	PolicyID    string
	PolicyName  string
	Instances   []SettingInstance
	Definitions map[string]SettingDefinition
}

// SettingLeaf is one flattened (definition, name, value) tuple tagged with
// the owning policy. Comparable is false for leaves found under a
// collection container and for unknown-variant placeholders; such leaves
// are display-only and never enter conflict analysis.
type SettingLeaf struct {
	DefinitionID  string `json:"definitionId"`
	QualifiedName string `json:"qualifiedName"`
	Value         string `json:"value"`
	OwnerPolicyID string `json:"ownerPolicyId"`
	OwnerPolicy   string `json:"ownerPolicy"`
	Comparable    bool   `json:"comparable"`
}

// ConflictClass classifies a cross-policy repeated setting.
type ConflictClass string

const (
	ClassConflict ConflictClass = "conflict"
	ClassWarning  ConflictClass = "warning"
)

// ConflictGroup is one repeated setting across ≥2 policies, with its
// member leaves kept for display.
type ConflictGroup struct {
	DefinitionID  string        `json:"definitionId"`
	QualifiedName string        `json:"qualifiedName"`
	Class         ConflictClass `json:"class"`
	// Additive is true when the setting is on the additive allow-list:
	// values merge across policies, so differing values are expected.
	Additive bool          `json:"additive"`
	Leaves   []SettingLeaf `json:"leaves"`
}

// ConflictReport is the extended-mode output of one resolution run.
type ConflictReport struct {
	Conflicts []ConflictGroup `json:"conflicts"`
	Warnings  []ConflictGroup `json:"warnings"`
}

// HasIssues reports whether the analysis found anything worth surfacing.
func (r *ConflictReport) HasIssues() bool {
	return len(r.Conflicts) > 0 || len(r.Warnings) > 0
}
