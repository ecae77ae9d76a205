package models

import "time"

// OverlayStateVersion is the current snapshot layout version.
const OverlayStateVersion = 1

// OverlayState is the serialisable runtime state layered over the imported dataset.
// Every field is optional on read so older snapshots keep loading.
type OverlayState struct {
	Version     int                                    `json:"version"`
	Attendance  map[string]map[string]AttendanceStatus `json:"attendance,omitempty"`
	Evaluations map[string]map[string]Evaluation       `json:"evaluations,omitempty"`
	Overrides   map[string]map[string]float64          `json:"overrides,omitempty"`
	SourcePath  string                                 `json:"source_path,omitempty"`
	UpdatedAt   time.Time                              `json:"updated_at"`
}

// NewOverlayState returns an empty overlay.
func NewOverlayState() *OverlayState {
	s := &OverlayState{Version: OverlayStateVersion}
	s.Normalize()
	return s
}

// Normalize fills nil maps left by older or partial snapshots.
func (s *OverlayState) Normalize() {
	if s.Attendance == nil {
		s.Attendance = make(map[string]map[string]AttendanceStatus)
	}
	if s.Evaluations == nil {
		s.Evaluations = make(map[string]map[string]Evaluation)
	}
	if s.Overrides == nil {
		s.Overrides = make(map[string]map[string]float64)
	}
	if s.Version == 0 {
		s.Version = OverlayStateVersion
	}
}
