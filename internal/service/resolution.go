// Package service orchestrates snapshot access and the resolution engine
// into the operations the API and CLI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"assignlens/internal/domain"
	"assignlens/internal/membership"
	"assignlens/internal/resolve"
	"assignlens/internal/settings"
)

// ResolutionService answers "what applies to this device, and why".
type ResolutionService struct {
	devices     domain.DeviceRepository
	memberships domain.MembershipRepository
	assets      domain.AssignableRepository
	filters     domain.FilterRepository
	settings    domain.SettingsRepository
	analyzer    *settings.Analyzer
	logger      *slog.Logger
}

// NewResolutionService creates a ResolutionService. analyzer may be nil,
// in which case the built-in additive allow-list is used for extended runs.
func NewResolutionService(
	devices domain.DeviceRepository,
	memberships domain.MembershipRepository,
	assets domain.AssignableRepository,
	filters domain.FilterRepository,
	settingsRepo domain.SettingsRepository,
	analyzer *settings.Analyzer,
	logger *slog.Logger,
) *ResolutionService {
	if analyzer == nil {
		analyzer = settings.NewAnalyzer(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResolutionService{
		devices:     devices,
		memberships: memberships,
		assets:      assets,
		filters:     filters,
		settings:    settingsRepo,
		analyzer:    analyzer,
		logger:      logger.With("component", "resolution"),
	}
}

// ListDevices returns every device in the snapshot.
func (s *ResolutionService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.devices.List(ctx)
}

// BuildReport runs a full device-resolution pass. With extended set, the
// report also carries the cross-policy conflict analysis for every policy
// that applies to the device.
func (s *ResolutionService) BuildReport(ctx context.Context, deviceID string, extended bool) (*domain.DeviceReport, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	actors, err := s.loadActors(ctx, device)
	if err != nil {
		return nil, err
	}

	filterList, err := s.filters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load filters: %w", err)
	}
	resolver := resolve.New(actors, resolve.NewFilterAnnotator(filterList))

	report := &domain.DeviceReport{
		RunID:       uuid.NewString(),
		Device:      *device,
		GeneratedAt: time.Now().UTC(),
	}

	report.Applications, err = s.resolveClass(ctx, resolver, domain.AssetClassApp)
	if err != nil {
		return nil, err
	}
	report.Policies, err = s.resolveClass(ctx, resolver, domain.AssetClassPolicy)
	if err != nil {
		return nil, err
	}
	report.Scripts, err = s.resolveClass(ctx, resolver, domain.AssetClassScript)
	if err != nil {
		return nil, err
	}

	if extended {
		conflicts, err := s.analyzeConflicts(ctx, report.Policies)
		if err != nil {
			return nil, err
		}
		report.Conflicts = conflicts
	}

	s.logger.Info("report built",
		"run_id", report.RunID,
		"device_id", deviceID,
		"applications", len(report.Applications),
		"policies", len(report.Policies),
		"scripts", len(report.Scripts),
		"extended", extended)

	return report, nil
}

func (s *ResolutionService) loadActors(ctx context.Context, device *domain.Device) (*membership.ActorSet, error) {
	deviceMS, err := s.memberships.ListForActor(ctx, device.ID, domain.ActorDevice)
	if err != nil {
		return nil, fmt.Errorf("load device memberships: %w", err)
	}
	primaryMS, err := s.memberships.ListForActor(ctx, device.ID, domain.ActorPrimaryUser)
	if err != nil {
		return nil, fmt.Errorf("load primary user memberships: %w", err)
	}
	latestMS, err := s.memberships.ListForActor(ctx, device.ID, domain.ActorLatestUser)
	if err != nil {
		return nil, fmt.Errorf("load latest user memberships: %w", err)
	}
	return membership.NewActorSet(deviceMS, primaryMS, latestMS, device.PrimaryUserUPN, device.LatestUserUPN), nil
}

func (s *ResolutionService) resolveClass(ctx context.Context, resolver *resolve.Resolver, class domain.AssetClass) ([]domain.ResolvedAssignment, error) {
	assets, err := s.assets.ListByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("load %s collection: %w", class, err)
	}
	return resolver.ResolveAll(assets, resolve.Options{}), nil
}

// analyzeConflicts walks the setting trees of every policy with at least
// one non-excluded resolved row and compares their leaves. Policies the
// snapshot holds no settings for are skipped, not failed.
func (s *ResolutionService) analyzeConflicts(ctx context.Context, policyRows []domain.ResolvedAssignment) (*domain.ConflictReport, error) {
	var leaves []domain.SettingLeaf
	seen := make(map[string]bool)
	for _, row := range policyRows {
		if row.IncludeExclude == domain.Excluded || seen[row.AssetID] {
			continue
		}
		seen[row.AssetID] = true

		ps, err := s.settings.GetByPolicyID(ctx, row.AssetID)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				s.logger.Debug("no settings in snapshot", "policy_id", row.AssetID)
				continue
			}
			return nil, fmt.Errorf("load settings for %s: %w", row.AssetID, err)
		}
		leaves = append(leaves, settings.Walk(ps)...)
	}

	report := s.analyzer.Analyze(leaves)
	return &report, nil
}
