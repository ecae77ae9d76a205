package models

import (
	"fmt"
	"strings"
)

// AttendanceStatus is the attendance mark a teacher records for a student.
type AttendanceStatus string

const (
	AttendancePresent    AttendanceStatus = "present"
	AttendanceAbsent     AttendanceStatus = "absent"
	AttendanceUnrecorded AttendanceStatus = "unrecorded"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceUnrecorded:
		return true
	default:
		return false
	}
}

// ParseAttendanceStatus accepts the canonical values plus the legacy Spanish labels.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present", "presente":
		return AttendancePresent, nil
	case "absent", "ausente":
		return AttendanceAbsent, nil
	case "unrecorded", "sin_registro":
		return AttendanceUnrecorded, nil
	default:
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
}
