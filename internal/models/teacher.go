package models

// RosterEntry is a distinct student taught by a teacher.
type RosterEntry struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Program  string `json:"program"`
}

// Teacher holds programs taught and the derived roster.
type Teacher struct {
	Username string        `json:"username"`
	Name     string        `json:"name"`
	Programs []string      `json:"programs"`
	Students []RosterEntry `json:"students"`
}

// Teaches reports whether the student appears on the roster.
func (t *Teacher) Teaches(student string) bool {
	for _, s := range t.Students {
		if s.Username == student {
			return true
		}
	}
	return false
}

// Program is purely derived from enrollments.
type Program struct {
	Name     string   `json:"name"`
	Students []string `json:"students"`
	Subjects []string `json:"subjects"`
}
