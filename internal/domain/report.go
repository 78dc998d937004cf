package domain

import "time"

// DeviceReport is the full outcome of one device-resolution run. Row order
// within each class is unspecified; consumers sort for display.
type DeviceReport struct {
	RunID        string               `json:"runId"`
	Device       Device               `json:"device"`
	GeneratedAt  time.Time            `json:"generatedAt"`
	Applications []ResolvedAssignment `json:"applications"`
	Policies     []ResolvedAssignment `json:"policies"`
	Scripts      []ResolvedAssignment `json:"scripts"`
	// Conflicts is nil unless the run was extended.
	Conflicts *ConflictReport `json:"conflicts,omitempty"`
}
