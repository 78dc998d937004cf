package domain

import (
	"context"
	"time"
)

// DeviceRepository reads managed devices from the snapshot store.
type DeviceRepository interface {
	GetByID(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	Upsert(ctx context.Context, d *Device) error
}

// MembershipRepository reads per-actor group memberships for a device.
type MembershipRepository interface {
	ListForActor(ctx context.Context, deviceID string, actor Actor) ([]GroupMembership, error)
	Replace(ctx context.Context, deviceID string, actor Actor, ms []GroupMembership) error
}

// AssignableRepository reads the per-class assignable collections.
type AssignableRepository interface {
	ListByClass(ctx context.Context, class AssetClass) ([]Assignable, error)
	Replace(ctx context.Context, class AssetClass, assets []Assignable) error
}

// FilterRepository reads the flat assignment-filter lookup table.
type FilterRepository interface {
	List(ctx context.Context) ([]AssignmentFilter, error)
	Replace(ctx context.Context, filters []AssignmentFilter) error
}

// SettingsRepository reads raw policy settings trees for extended mode.
// GetByPolicyID returns a NotFoundError when the snapshot holds no settings
// for the policy; callers treat that as "skip", not as failure.
type SettingsRepository interface {
	GetByPolicyID(ctx context.Context, policyID string) (*PolicySettings, error)
	Upsert(ctx context.Context, ps *PolicySettings) error
}

// GroupCounts carries the member-count enrichment for one group.
type GroupCounts struct {
	DeviceMembers int
	UserMembers   int
}

// DirectoryClient is the remote directory-lookup port used by the
// enrichment collaborator. One call resolves one batch of group ids; the
// batch size ceiling is enforced by the caller, not the implementation.
type DirectoryClient interface {
	GroupCounts(ctx context.Context, groupIDs []string) (map[string]GroupCounts, error)
}

// APIKeyRecord is a stored API key (hash only) for HTTP auth.
type APIKeyRecord struct {
	KeyHash   string
	Subject   string
	CreatedAt time.Time
}

// APIKeyRepository looks up API keys by SHA-256 hash.
type APIKeyRepository interface {
	GetByHash(ctx context.Context, hash string) (*APIKeyRecord, error)
	Create(ctx context.Context, rec *APIKeyRecord) error
}
