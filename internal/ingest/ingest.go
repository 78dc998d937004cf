// Package ingest is the input boundary: it decodes Graph-style JSON
// exports into domain values, mapping every "@odata.type" discriminator
// onto the closed enums exactly once. Nothing outside this package ever
// compares raw wire strings.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"assignlens/internal/domain"
	"assignlens/internal/resolve"
)

// Assignment-target wire discriminators.
const (
	wireAllUsers     = "#microsoft.graph.allLicensedUsersAssignmentTarget"
	wireAllDevices   = "#microsoft.graph.allDevicesAssignmentTarget"
	wireGroupInclude = "#microsoft.graph.groupAssignmentTarget"
	wireGroupExclude = "#microsoft.graph.exclusionGroupAssignmentTarget"

	wireDirectoryRole = "#microsoft.graph.directoryRole"
	dynamicGroupType  = "DynamicMembership"
)

// Decoder translates raw export records into domain values. Unrecognized
// variants are logged and kept as placeholders, never dropped (the report
// must show that something was there).
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a Decoder. A nil logger discards warnings.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger.With("component", "ingest")}
}

// rawAssignment is one entry of an asset's "assignments" collection.
type rawAssignment struct {
	ID     string    `json:"id"`
	Intent string    `json:"intent"`
	Target rawTarget `json:"target"`
}

type rawTarget struct {
	ODataType  string `json:"@odata.type"`
	GroupID    string `json:"groupId"`
	FilterID   string `json:"deviceAndAppManagementAssignmentFilterId"`
	FilterType string `json:"deviceAndAppManagementAssignmentFilterType"`
}

// decodeTarget maps one wire target onto the AssignmentTarget union.
func (d *Decoder) decodeTarget(raw rawTarget, assetID string) domain.AssignmentTarget {
	target := domain.AssignmentTarget{
		FilterID:   raw.FilterID,
		FilterMode: resolve.NormalizeFilterMode(raw.FilterType),
	}

	switch raw.ODataType {
	case wireAllUsers:
		target.Kind = domain.TargetAllUsers
	case wireAllDevices:
		target.Kind = domain.TargetAllDevices
	case wireGroupInclude:
		target.Kind = domain.TargetGroupInclude
		target.GroupID = raw.GroupID
	case wireGroupExclude:
		target.Kind = domain.TargetGroupExclude
		target.GroupID = raw.GroupID
	default:
		d.logger.Warn("unrecognized assignment target variant",
			"asset", assetID, "odata_type", raw.ODataType)
		target.Kind = domain.TargetUnknown
	}
	return target
}

// rawAssignable covers the envelope fields shared by application, policy,
// and script exports. The different asset classes spell the display name
// differently ("displayName" vs "name"); both are accepted.
type rawAssignable struct {
	ID          string          `json:"id"`
	ODataType   string          `json:"@odata.type"`
	DisplayName string          `json:"displayName"`
	Name        string          `json:"name"`
	State       string          `json:"state"`
	Active      bool            `json:"active"`
	Assignments []rawAssignment `json:"assignments"`
}

// DecodeAssignables decodes one asset-class collection.
func (d *Decoder) DecodeAssignables(data []byte, class domain.AssetClass) ([]domain.Assignable, error) {
	var raws []rawAssignable
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s collection: %w", class, err)
	}

	assets := make([]domain.Assignable, 0, len(raws))
	for _, raw := range raws {
		name := raw.DisplayName
		if name == "" {
			name = raw.Name
		}
		asset := domain.Assignable{
			ID:             raw.ID,
			DisplayName:    name,
			Class:          class,
			AssetType:      normalizeTypeTag(raw.ODataType),
			State:          raw.State,
			ReportedActive: raw.Active,
		}
		for _, a := range raw.Assignments {
			asset.Assignments = append(asset.Assignments, d.decodeTarget(a.Target, raw.ID))
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// rawGroup is one membership record from a directory export.
type rawGroup struct {
	ODataType         string   `json:"@odata.type"`
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	GroupTypes        []string `json:"groupTypes"`
	MembershipRule    string   `json:"membershipRule"`
	DeviceMemberCount *int     `json:"deviceMemberCount"`
	UserMemberCount   *int     `json:"userMemberCount"`
}

// DecodeMemberships decodes one actor's raw group list.
func (d *Decoder) DecodeMemberships(data []byte) ([]domain.GroupMembership, error) {
	var raws []rawGroup
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}

	ms := make([]domain.GroupMembership, 0, len(raws))
	for _, raw := range raws {
		ms = append(ms, domain.GroupMembership{
			GroupID:           raw.ID,
			DisplayName:       raw.DisplayName,
			Kind:              membershipKind(raw),
			DeviceMemberCount: raw.DeviceMemberCount,
			UserMemberCount:   raw.UserMemberCount,
			DynamicRuleText:   raw.MembershipRule,
		})
	}
	return ms, nil
}

func membershipKind(raw rawGroup) domain.MembershipKind {
	if raw.ODataType == wireDirectoryRole {
		return domain.MembershipDirectoryRole
	}
	for _, gt := range raw.GroupTypes {
		if gt == dynamicGroupType {
			return domain.MembershipDynamic
		}
	}
	if raw.MembershipRule != "" {
		return domain.MembershipDynamic
	}
	return domain.MembershipAssigned
}

// rawFilter is one assignment-filter record.
type rawFilter struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Rule        string `json:"rule"`
	Platform    string `json:"platform"`
}

// DecodeFilters decodes the flat filter table.
func (d *Decoder) DecodeFilters(data []byte) ([]domain.AssignmentFilter, error) {
	var raws []rawFilter
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}

	filters := make([]domain.AssignmentFilter, 0, len(raws))
	for _, raw := range raws {
		filters = append(filters, domain.AssignmentFilter{
			ID:          raw.ID,
			DisplayName: raw.DisplayName,
			RuleText:    raw.Rule,
			Platform:    raw.Platform,
		})
	}
	return filters, nil
}

// rawDevice is one managed-device record.
type rawDevice struct {
	ID              string `json:"id"`
	DeviceName      string `json:"deviceName"`
	UPN             string `json:"userPrincipalName"`
	LastLogOnUser   string `json:"lastLogOnUserPrincipalName"`
	OperatingSystem string `json:"operatingSystem"`
}

// DecodeDevices decodes the managed-device collection.
func (d *Decoder) DecodeDevices(data []byte) ([]domain.Device, error) {
	var raws []rawDevice
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}

	devices := make([]domain.Device, 0, len(raws))
	for _, raw := range raws {
		devices = append(devices, domain.Device{
			ID:             raw.ID,
			DisplayName:    raw.DeviceName,
			PrimaryUserUPN: raw.UPN,
			LatestUserUPN:  raw.LastLogOnUser,
			OS:             raw.OperatingSystem,
		})
	}
	return devices, nil
}

// normalizeTypeTag strips the "#microsoft.graph." prefix so the stored
// asset type reads like a bare type name.
func normalizeTypeTag(odataType string) string {
	return strings.TrimPrefix(odataType, "#microsoft.graph.")
}
