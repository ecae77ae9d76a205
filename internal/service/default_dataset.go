package service

// Demonstration roster used whenever no workbook can be imported. All grades start ungraded.

const (
	progTurismo    = "Gestión De Turismo De Reuniones, Incentivos Y Convenciones"
	progExperience = "Gestión Estratégica de la experiencia"
	progMarketing  = "Marketing Digital para hoteles"
	progSales      = "Sales Upgrade: Dominando Las Tecnologías"
	progLeadership = "Liderazgo y Desarrollo de equipos"
	progSkills     = "Habilidades para el siglo XXI"
	progAI         = "IA y estrategia digital para el tiempo compartido"
	progAnalytics  = "Analítica de negocios de Alojamiento"
)

type demoTeacher struct {
	username string
	name     string
}

var demoTeachers = map[string]demoTeacher{
	"doc01": {"doc01", "Edgar Blanco"},
	"doc02": {"doc02", "Eduardo Pacheco"},
	"doc03": {"doc03", "Ramiro Parias"},
	"doc04": {"doc04", "Ingrid Duque"},
	"doc05": {"doc05", "Camilo Ayala"},
}

const demoTeacherPassword = "123"

type demoStudent struct {
	username string
	name     string
	password string
	program  string
	// subject -> teacher username
	courses [][2]string
}

var demoStudents = []demoStudent{
	{"est12", "Ximena", "789", progTurismo, [][2]string{{"Presupuestos", "doc01"}}},
	{"est06", "Katerine", "789", progExperience, [][2]string{{"Presupuestos", "doc01"}}},
	{"est11", "Eliana", "789", progMarketing, [][2]string{{"Presupuestos", "doc01"}}},
	{"est01", "David", "987", progSales, [][2]string{{"Presupuestos", "doc01"}, {"Normatividad", "doc05"}}},
	{"est03", "Claudia", "789", progSales, [][2]string{{"Diseño", "doc02"}, {"Costos", "doc03"}, {"Normatividad", "doc05"}}},
	{"est07", "Camila", "789", progLeadership, [][2]string{{"Diseño", "doc02"}}},
	{"est02", "Laura", "789", progSales, [][2]string{{"Diseño", "doc02"}, {"Analítica", "doc04"}}},
	{"est08", "Sofia", "789", progSkills, [][2]string{{"Costos", "doc03"}}},
	{"est04", "Arturo", "789", progSales, [][2]string{{"Costos", "doc03"}, {"Analítica", "doc04"}}},
	{"est09", "María", "789", progAI, [][2]string{{"Analítica", "doc04"}}},
	{"est10", "Jonatan", "789", progAnalytics, [][2]string{{"Normatividad", "doc05"}}},
	{"est05", "Heither", "789", progSales, [][2]string{{"Normatividad", "doc05"}}},
}

func defaultRows() []importRow {
	rows := make([]importRow, 0, 20)
	for _, s := range demoStudents {
		for _, course := range s.courses {
			teacher := demoTeachers[course[1]]
			rows = append(rows, importRow{
				Program:         s.program,
				StudentName:     s.name,
				StudentUsername: s.username,
				StudentPassword: s.password,
				TeacherName:     teacher.name,
				TeacherUsername: teacher.username,
				TeacherPassword: demoTeacherPassword,
				Subject:         course[0],
			})
		}
	}
	return rows
}
