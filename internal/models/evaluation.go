package models

import "time"

// Question is a single Likert-style evaluation question (answers 1-5).
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

const (
	// MinAnswerValue and MaxAnswerValue bound evaluation answers.
	MinAnswerValue = 1.0
	MaxAnswerValue = 5.0
)

// Answer is a single answer value for a question.
type Answer struct {
	QuestionID int     `json:"question_id"`
	Value      float64 `json:"value"`
}

// Evaluation is a student's one-time evaluation of a teacher.
type Evaluation struct {
	ID              string    `json:"id"`
	StudentUsername string    `json:"student_username"`
	TeacherUsername string    `json:"teacher_username"`
	Answers         []Answer  `json:"answers"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// DefaultQuestions is used when the workbook carries no usable question sheet.
func DefaultQuestions() []Question {
	return []Question{
		{ID: 1, Text: "¿El docente explica los temas con claridad?"},
		{ID: 2, Text: "¿El docente muestra dominio del tema?"},
		{ID: 3, Text: "¿El docente es puntual y cumple el horario?"},
		{ID: 4, Text: "¿El docente fomenta la participación activa?"},
		{ID: 5, Text: "¿El docente brinda retroalimentación oportuna?"},
		{ID: 6, Text: "¿El docente utiliza recursos didácticos adecuados?"},
		{ID: 7, Text: "¿El docente genera un ambiente de respeto?"},
		{ID: 8, Text: "¿Recomendarías este docente a otros estudiantes?"},
	}
}
