package models

// Student owns its ordered enrollments.
type Student struct {
	Username    string       `json:"username"`
	Name        string       `json:"name"`
	Program     string       `json:"program"`
	Enrollments []Enrollment `json:"enrollments"`
}

// TeacherUsernames returns the distinct teachers of the student in first-seen order.
func (s *Student) TeacherUsernames() []string {
	seen := make(map[string]struct{}, len(s.Enrollments))
	result := make([]string, 0, len(s.Enrollments))
	for _, e := range s.Enrollments {
		if e.TeacherUsername == "" {
			continue
		}
		if _, ok := seen[e.TeacherUsername]; ok {
			continue
		}
		seen[e.TeacherUsername] = struct{}{}
		result = append(result, e.TeacherUsername)
	}
	return result
}

// TakesSubject reports whether the student has at least one enrollment in subject.
func (s *Student) TakesSubject(subject string) bool {
	for _, e := range s.Enrollments {
		if e.Subject == subject {
			return true
		}
	}
	return false
}

// TaughtBy reports whether any enrollment in subject belongs to teacher.
// A subject may appear once per teacher.
func (s *Student) TaughtBy(subject, teacher string) bool {
	for _, e := range s.Enrollments {
		if e.Subject == subject && e.TeacherUsername == teacher {
			return true
		}
	}
	return false
}
