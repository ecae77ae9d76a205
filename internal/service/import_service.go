package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/pkg/config"
)

// ErrMalformedWorkbook is wrapped by Parse when the workbook has no usable enrollment sheet.
var ErrMalformedWorkbook = errors.New("malformed records workbook")

type column int

const (
	colProgram column = iota
	colStudentName
	colStudentUsername
	colStudentPassword
	colTeacherName
	colTeacherUsername
	colTeacherPassword
	colSubject
	colGrade
)

// Header aliases, compared after foldHeader.
var columnAliases = map[column][]string{
	colProgram:         {"programa", "program"},
	colStudentName:     {"estudiante", "student", "student name"},
	colStudentUsername: {"usuario estudiante", "student username"},
	colStudentPassword: {"contrasena estudiante", "student password"},
	colTeacherName:     {"docente", "teacher", "teacher name"},
	colTeacherUsername: {"usuario docente", "teacher username"},
	colTeacherPassword: {"contrasena doc", "contrasena docente", "teacher password"},
	colSubject:         {"materia", "subject"},
	colGrade:           {"nota", "grade"},
}

var questionSheetKeywords = []string{"pregunta", "evaluaci", "question", "evaluation"}

// importRow is one normalised enrollment-like row of the primary sheet.
type importRow struct {
	Program         string
	StudentName     string
	StudentUsername string
	StudentPassword string
	TeacherName     string
	TeacherUsername string
	TeacherPassword string
	Subject         string
	Grade           *float64
}

// DatasetImporter turns a records workbook into a normalised dataset.
type DatasetImporter struct {
	admin  config.AdminConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDatasetImporter constructs the importer.
func NewDatasetImporter(admin config.AdminConfig, logger *zap.Logger) *DatasetImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if admin.Username == "" {
		admin.Username = "admin"
	}
	if admin.Password == "" {
		admin.Password = "admin2024"
	}
	if admin.Name == "" {
		admin.Name = "Administrador del Sistema"
	}
	return &DatasetImporter{admin: admin, logger: logger, now: time.Now}
}

// Load parses the workbook at path and substitutes the default dataset on any failure.
func (i *DatasetImporter) Load(path string) *models.Dataset {
	ds, err := i.Parse(path)
	if err != nil {
		i.logger.Warn("records import failed, using default dataset", zap.String("path", path), zap.Error(err))
		return i.Default()
	}
	return ds
}

// Parse reads the workbook at path. Errors are never partially applied.
func (i *DatasetImporter) Parse(path string) (*models.Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty source path", ErrMalformedWorkbook)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrMalformedWorkbook)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	records, err := parseEnrollmentRows(rows)
	if err != nil {
		return nil, err
	}

	var questions []models.Question
	if name := findQuestionSheet(sheets[1:]); name != "" {
		qrows, err := f.GetRows(name)
		if err != nil {
			i.logger.Warn("question sheet unreadable, using default questions", zap.String("sheet", name), zap.Error(err))
		} else {
			questions = parseQuestionRows(qrows)
		}
	}

	ds := i.build(records, questions)
	ds.Source = path
	i.logger.Info("records workbook imported",
		zap.String("path", path),
		zap.Int("students", len(ds.Students)),
		zap.Int("teachers", len(ds.Teachers)),
		zap.Int("questions", len(ds.Questions)),
	)
	return ds, nil
}

// Default returns the built-in demonstration dataset.
func (i *DatasetImporter) Default() *models.Dataset {
	ds := i.build(defaultRows(), nil)
	ds.Fallback = true
	return ds
}

func (i *DatasetImporter) build(rows []importRow, questions []models.Question) *models.Dataset {
	b := newDatasetBuilder()
	for _, row := range rows {
		b.add(row)
	}
	ds := b.finish()
	ds.Users[models.NormalizeUsername(i.admin.Username)] = &models.User{
		Username: models.NormalizeUsername(i.admin.Username),
		Password: i.admin.Password,
		Role:     models.RoleAdmin,
		Name:     i.admin.Name,
	}
	if len(questions) == 0 {
		questions = models.DefaultQuestions()
	}
	ds.Questions = questions
	ds.ImportedAt = i.now().UTC()
	return ds
}

// datasetBuilder accumulates rows keeping first-seen order for derived sets.
type datasetBuilder struct {
	ds              *models.Dataset
	teacherPrograms map[string]*orderedSet
	programStudents map[string]*orderedSet
	programSubjects map[string]*orderedSet
}

func newDatasetBuilder() *datasetBuilder {
	return &datasetBuilder{
		ds:              models.NewDataset(),
		teacherPrograms: make(map[string]*orderedSet),
		programStudents: make(map[string]*orderedSet),
		programSubjects: make(map[string]*orderedSet),
	}
}

func (b *datasetBuilder) add(row importRow) {
	ds := b.ds
	if row.StudentUsername != "" {
		if _, ok := ds.Users[row.StudentUsername]; !ok {
			ds.Users[row.StudentUsername] = &models.User{
				Username: row.StudentUsername,
				Password: row.StudentPassword,
				Role:     models.RoleStudent,
				Name:     row.StudentName,
				Program:  row.Program,
			}
		}
		student, ok := ds.Students[row.StudentUsername]
		if !ok {
			student = &models.Student{
				Username:    row.StudentUsername,
				Name:        row.StudentName,
				Program:     row.Program,
				Enrollments: []models.Enrollment{},
			}
			ds.Students[row.StudentUsername] = student
		}
		if row.Subject != "" {
			student.Enrollments = append(student.Enrollments, models.Enrollment{
				Subject:         row.Subject,
				Grade:           row.Grade,
				OriginalGrade:   row.Grade,
				TeacherName:     row.TeacherName,
				TeacherUsername: row.TeacherUsername,
			})
		}
	}

	if row.TeacherUsername != "" {
		if _, ok := ds.Users[row.TeacherUsername]; !ok {
			ds.Users[row.TeacherUsername] = &models.User{
				Username: row.TeacherUsername,
				Password: row.TeacherPassword,
				Role:     models.RoleTeacher,
				Name:     row.TeacherName,
			}
		}
		teacher, ok := ds.Teachers[row.TeacherUsername]
		if !ok {
			teacher = &models.Teacher{
				Username: row.TeacherUsername,
				Name:     row.TeacherName,
				Students: []models.RosterEntry{},
			}
			ds.Teachers[row.TeacherUsername] = teacher
			b.teacherPrograms[row.TeacherUsername] = newOrderedSet()
		}
		if row.Program != "" {
			b.teacherPrograms[row.TeacherUsername].add(row.Program)
		}
		if row.StudentUsername != "" && row.StudentName != "" && !teacher.Teaches(row.StudentUsername) {
			teacher.Students = append(teacher.Students, models.RosterEntry{
				Username: row.StudentUsername,
				Name:     row.StudentName,
				Program:  row.Program,
			})
		}
	}

	if row.Program != "" {
		if _, ok := b.programStudents[row.Program]; !ok {
			b.programStudents[row.Program] = newOrderedSet()
			b.programSubjects[row.Program] = newOrderedSet()
		}
		if row.StudentUsername != "" {
			b.programStudents[row.Program].add(row.StudentUsername)
		}
		if row.Subject != "" {
			b.programSubjects[row.Program].add(row.Subject)
		}
	}
}

func (b *datasetBuilder) finish() *models.Dataset {
	ds := b.ds
	for username, teacher := range ds.Teachers {
		teacher.Programs = b.teacherPrograms[username].values()
		if user, ok := ds.Users[username]; ok && user.Role == models.RoleTeacher {
			user.Programs = append([]string(nil), teacher.Programs...)
		}
	}
	for name, students := range b.programStudents {
		ds.Programs[name] = &models.Program{
			Name:     name,
			Students: students.values(),
			Subjects: b.programSubjects[name].values(),
		}
	}
	return ds
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	return append([]string{}, s.items...)
}

func parseEnrollmentRows(rows [][]string) ([]importRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: primary sheet is empty", ErrMalformedWorkbook)
	}
	index := mapColumns(rows[0])
	_, hasStudent := index[colStudentUsername]
	_, hasTeacher := index[colTeacherUsername]
	if !hasStudent && !hasTeacher {
		return nil, fmt.Errorf("%w: no student or teacher username column", ErrMalformedWorkbook)
	}

	records := make([]importRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		get := func(c column) string {
			idx, ok := index[c]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}
		records = append(records, importRow{
			Program:         get(colProgram),
			StudentName:     get(colStudentName),
			StudentUsername: models.NormalizeUsername(get(colStudentUsername)),
			StudentPassword: get(colStudentPassword),
			TeacherName:     get(colTeacherName),
			TeacherUsername: models.NormalizeUsername(get(colTeacherUsername)),
			TeacherPassword: get(colTeacherPassword),
			Subject:         get(colSubject),
			Grade:           parseGrade(get(colGrade)),
		})
	}
	return records, nil
}

func mapColumns(header []string) map[column]int {
	lookup := make(map[string]column)
	for col, aliases := range columnAliases {
		for _, alias := range aliases {
			lookup[alias] = col
		}
	}
	index := make(map[column]int)
	for i, raw := range header {
		col, ok := lookup[foldHeader(raw)]
		if !ok {
			continue
		}
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	return index
}

// foldHeader lowercases, strips accents and collapses separators so
// "Contraseña_estudiante" and "contrasena estudiante" compare equal.
func foldHeader(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// parseGrade accepts "4", "4.5" and "4,5". Blank, non-numeric and non-finite values are ungraded.
func parseGrade(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func findQuestionSheet(sheets []string) string {
	for _, name := range sheets {
		lower := strings.ToLower(name)
		for _, keyword := range questionSheetKeywords {
			if strings.Contains(lower, keyword) {
				return name
			}
		}
	}
	return ""
}

func parseQuestionRows(rows [][]string) []models.Question {
	if len(rows) < 2 {
		return nil
	}
	idCol, textCol := -1, -1
	for i, raw := range rows[0] {
		switch foldHeader(raw) {
		case "id":
			if idCol < 0 {
				idCol = i
			}
		case "pregunta", "question":
			if textCol < 0 {
				textCol = i
			}
		}
	}
	if textCol < 0 {
		textCol = 0
	}

	questions := make([]models.Question, 0, len(rows)-1)
	for n, cells := range rows[1:] {
		if textCol >= len(cells) {
			continue
		}
		text := strings.TrimSpace(cells[textCol])
		if text == "" {
			continue
		}
		id := n + 1
		if idCol >= 0 && idCol < len(cells) {
			if parsed, err := strconv.Atoi(strings.TrimSpace(cells[idCol])); err == nil && parsed > 0 {
				id = parsed
			}
		}
		questions = append(questions, models.Question{ID: id, Text: text})
	}
	return questions
}
