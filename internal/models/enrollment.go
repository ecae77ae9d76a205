package models

// Enrollment is one student's registration in one subject.
// Grade is the effective grade; OriginalGrade is what the imported dataset said.
// A nil grade means the enrollment has not been graded yet.
type Enrollment struct {
	Subject         string   `json:"subject"`
	Grade           *float64 `json:"grade"`
	OriginalGrade   *float64 `json:"original_grade"`
	Overridden      bool     `json:"overridden"`
	TeacherName     string   `json:"teacher_name"`
	TeacherUsername string   `json:"teacher_username"`
}

// Graded reports whether the enrollment carries an effective grade.
func (e Enrollment) Graded() bool {
	return e.Grade != nil
}

// Passing reports whether the effective grade reaches PassingGrade.
func (e Enrollment) Passing() bool {
	return e.Grade != nil && *e.Grade >= PassingGrade
}
