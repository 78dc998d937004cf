package domain

// TargetKind is the closed set of assignment-target variants. Wire-level
// type discriminators are mapped to this enum once, at the ingest boundary;
// nothing downstream switches on raw strings.
type TargetKind string

const (
	TargetAllUsers     TargetKind = "all_users"
	TargetAllDevices   TargetKind = "all_devices"
	TargetGroupInclude TargetKind = "group_include"
	TargetGroupExclude TargetKind = "group_exclude"

	// TargetUnknown is an unrecognized wire variant. It is kept so the
	// asset stays visible in reports instead of being silently dropped.
	TargetUnknown TargetKind = "unknown"
)

// FilterMode narrows an assignment target with an optional device filter.
type FilterMode string

const (
	FilterModeNone    FilterMode = ""
	FilterModeInclude FilterMode = "include"
	FilterModeExclude FilterMode = "exclude"
)

// AssignmentTarget is one deployment target of an assignable asset.
// GroupID is set only for the two group variants.
type AssignmentTarget struct {
	Kind       TargetKind
	GroupID    string
	FilterID   string
	FilterMode FilterMode
}

// AssetClass distinguishes the three assignable collections.
type AssetClass string

const (
	AssetClassApp    AssetClass = "application"
	AssetClassPolicy AssetClass = "policy"
	AssetClassScript AssetClass = "script"
)

// Assignable is the generic envelope for one application, configuration
// policy, or script, as delivered by the snapshot collaborator.
type Assignable struct {
	ID          string
	DisplayName string
	Class       AssetClass
	// AssetType is the normalized platform type name, e.g.
	// "win32LobApp" or "deviceHealthScript". Opaque to the resolver.
	AssetType   string
	Assignments []AssignmentTarget
	// State is the asset-class-specific install or compliance state as
	// reported by the platform ("Installed", "Compliant", ...).
	State string
	// ReportedActive is the platform telemetry side-channel: true when
	// the platform says this asset is active/applicable on the device.
	// It only drives the Unknown-context fallback row.
	ReportedActive bool
}

// AssignmentContext records which actor's membership explained an
// assignment: the device, a user, both at once, or nobody.
type AssignmentContext string

const (
	ContextDevice  AssignmentContext = "Device"
	ContextUser    AssignmentContext = "User"
	ContextMixed   AssignmentContext = "Device/User"
	ContextUnknown AssignmentContext = "Unknown"
)

// IncludeExclude tags group-targeted rows; built-in targets leave it empty.
type IncludeExclude string

const (
	IncludeExcludeNone IncludeExclude = ""
	Included           IncludeExclude = "Included"
	Excluded           IncludeExclude = "Excluded"
)

// ResolvedAssignment is one output row: this asset applies (or is excluded)
// because of this group, in this context, through this filter.
type ResolvedAssignment struct {
	AssetID        string            `json:"assetId"`
	AssetName      string            `json:"assetName"`
	Context        AssignmentContext `json:"context"`
	IncludeExclude IncludeExclude    `json:"includeExclude,omitempty"`
	GroupName      string            `json:"groupName"`
	GroupID        string            `json:"groupId,omitempty"`
	// UserPrincipalName is the UPN of the user actor whose membership
	// produced the row; empty for device-only and built-in rows.
	UserPrincipalName string     `json:"userPrincipalName,omitempty"`
	FilterName        string     `json:"filterName,omitempty"`
	FilterID          string     `json:"filterId,omitempty"`
	FilterMode        FilterMode `json:"filterMode,omitempty"`
}

// DedupKey is the coalescing identity of a resolved row: two rows for the
// same asset with equal keys describe the same physical assignment and are
// merged into one.
func (r *ResolvedAssignment) DedupKey() string {
	return string(r.Context) + "\x1f" + string(r.IncludeExclude) + "\x1f" +
		r.GroupName + "\x1f" + r.FilterName + "\x1f" + string(r.FilterMode)
}
