package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"assignlens/internal/domain"
	"assignlens/internal/ingest"
)

// Snapshot directory layout. Every file is optional; missing files leave
// the corresponding tables untouched.
const (
	devicesFile      = "devices.json"
	applicationsFile = "applications.json"
	policiesFile     = "policies.json"
	scriptsFile      = "scripts.json"
	filtersFile      = "filters.json"
	membershipsDir   = "memberships"
	settingsDir      = "settings"
)

// Enricher annotates memberships with directory lookups before storage.
type Enricher interface {
	Annotate(ctx context.Context, ms []domain.GroupMembership) ([]domain.GroupMembership, error)
}

// ImportSummary counts what one snapshot import wrote.
type ImportSummary struct {
	Devices      int `json:"devices"`
	Memberships  int `json:"memberships"`
	Applications int `json:"applications"`
	Policies     int `json:"policies"`
	Scripts      int `json:"scripts"`
	Filters      int `json:"filters"`
	SettingsDocs int `json:"settingsDocs"`
}

// SnapshotService imports exported tenant snapshots into the store.
type SnapshotService struct {
	devices     domain.DeviceRepository
	memberships domain.MembershipRepository
	assets      domain.AssignableRepository
	filters     domain.FilterRepository
	settings    domain.SettingsRepository
	enricher    Enricher
	decoder     *ingest.Decoder
	logger      *slog.Logger
}

// NewSnapshotService creates a SnapshotService. enricher may be nil to
// skip directory enrichment entirely.
func NewSnapshotService(
	devices domain.DeviceRepository,
	memberships domain.MembershipRepository,
	assets domain.AssignableRepository,
	filters domain.FilterRepository,
	settingsRepo domain.SettingsRepository,
	enricher Enricher,
	logger *slog.Logger,
) *SnapshotService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SnapshotService{
		devices:     devices,
		memberships: memberships,
		assets:      assets,
		filters:     filters,
		settings:    settingsRepo,
		enricher:    enricher,
		decoder:     ingest.NewDecoder(logger),
		logger:      logger.With("component", "snapshot"),
	}
}

// actorMemberships is the on-disk shape of memberships/<deviceID>.json.
type actorMemberships struct {
	Device      json.RawMessage `json:"device"`
	PrimaryUser json.RawMessage `json:"primaryUser"`
	LatestUser  json.RawMessage `json:"latestUser"`
}

// ImportDir loads a snapshot directory into the store. Per-device and
// per-policy files that fail to decode are skipped with a warning so one
// corrupt export entry cannot sink the whole import.
func (s *SnapshotService) ImportDir(ctx context.Context, dir string) (*ImportSummary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.ErrValidation("snapshot directory %s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, domain.ErrValidation("snapshot path %s is not a directory", dir)
	}

	summary := &ImportSummary{}

	if err := s.importDevices(ctx, dir, summary); err != nil {
		return nil, err
	}
	if err := s.importMemberships(ctx, dir, summary); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		file  string
		class domain.AssetClass
		count *int
	}{
		{applicationsFile, domain.AssetClassApp, &summary.Applications},
		{policiesFile, domain.AssetClassPolicy, &summary.Policies},
		{scriptsFile, domain.AssetClassScript, &summary.Scripts},
	} {
		if err := s.importClass(ctx, dir, c.file, c.class, c.count); err != nil {
			return nil, err
		}
	}
	if err := s.importFilters(ctx, dir, summary); err != nil {
		return nil, err
	}
	if err := s.importSettings(ctx, dir, summary); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot imported",
		"dir", dir,
		"devices", summary.Devices,
		"applications", summary.Applications,
		"policies", summary.Policies,
		"scripts", summary.Scripts,
		"filters", summary.Filters,
		"settings_docs", summary.SettingsDocs)

	return summary, nil
}

func (s *SnapshotService) importDevices(ctx context.Context, dir string, summary *ImportSummary) error {
	data, ok, err := readOptional(filepath.Join(dir, devicesFile))
	if err != nil || !ok {
		return err
	}
	devices, err := s.decoder.DecodeDevices(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", devicesFile, err)
	}
	capturedAt := time.Now().UTC()
	for i := range devices {
		if devices[i].CapturedAt.IsZero() {
			devices[i].CapturedAt = capturedAt
		}
		if err := s.devices.Upsert(ctx, &devices[i]); err != nil {
			return fmt.Errorf("store device %s: %w", devices[i].ID, err)
		}
	}
	summary.Devices = len(devices)
	return nil
}

func (s *SnapshotService) importMemberships(ctx context.Context, dir string, summary *ImportSummary) error {
	root := filepath.Join(dir, membershipsDir)
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", root, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		deviceID := strings.TrimSuffix(entry.Name(), ".json")

		data, err := os.ReadFile(filepath.Join(root, entry.Name()))
		if err != nil {
			return fmt.Errorf("read memberships for %s: %w", deviceID, err)
		}
		var raw actorMemberships
		if err := json.Unmarshal(data, &raw); err != nil {
			s.logger.Warn("skipping undecodable membership file", "device_id", deviceID, "error", err)
			continue
		}

		for _, a := range []struct {
			actor domain.Actor
			data  json.RawMessage
		}{
			{domain.ActorDevice, raw.Device},
			{domain.ActorPrimaryUser, raw.PrimaryUser},
			{domain.ActorLatestUser, raw.LatestUser},
		} {
			if len(a.data) == 0 {
				continue
			}
			ms, err := s.decoder.DecodeMemberships(a.data)
			if err != nil {
				s.logger.Warn("skipping undecodable membership list",
					"device_id", deviceID, "actor", string(a.actor), "error", err)
				continue
			}
			if s.enricher != nil {
				enriched, err := s.enricher.Annotate(ctx, ms)
				if err != nil {
					return fmt.Errorf("enrich memberships for %s: %w", deviceID, err)
				}
				ms = enriched
			}
			if err := s.memberships.Replace(ctx, deviceID, a.actor, ms); err != nil {
				return fmt.Errorf("store memberships for %s/%s: %w", deviceID, a.actor, err)
			}
			summary.Memberships += len(ms)
		}
	}
	return nil
}

func (s *SnapshotService) importClass(ctx context.Context, dir, file string, class domain.AssetClass, count *int) error {
	data, ok, err := readOptional(filepath.Join(dir, file))
	if err != nil || !ok {
		return err
	}
	assets, err := s.decoder.DecodeAssignables(data, class)
	if err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	if err := s.assets.Replace(ctx, class, assets); err != nil {
		return fmt.Errorf("store %s collection: %w", class, err)
	}
	*count = len(assets)
	return nil
}

func (s *SnapshotService) importFilters(ctx context.Context, dir string, summary *ImportSummary) error {
	data, ok, err := readOptional(filepath.Join(dir, filtersFile))
	if err != nil || !ok {
		return err
	}
	filters, err := s.decoder.DecodeFilters(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", filtersFile, err)
	}
	if err := s.filters.Replace(ctx, filters); err != nil {
		return fmt.Errorf("store filters: %w", err)
	}
	summary.Filters = len(filters)
	return nil
}

func (s *SnapshotService) importSettings(ctx context.Context, dir string, summary *ImportSummary) error {
	root := filepath.Join(dir, settingsDir)
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", root, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		ps, err := s.decoder.DecodePolicySettings(data)
		if err != nil {
			s.logger.Warn("skipping undecodable settings file", "file", entry.Name(), "error", err)
			continue
		}
		if ps.PolicyID == "" {
			ps.PolicyID = strings.TrimSuffix(entry.Name(), ".json")
		}
		if err := s.settings.Upsert(ctx, ps); err != nil {
			return fmt.Errorf("store settings for %s: %w", ps.PolicyID, err)
		}
		summary.SettingsDocs++
	}
	return nil
}

// readOptional reads a snapshot file, reporting absence without error.
func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}
