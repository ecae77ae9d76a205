package models

import "time"

// Dataset is the normalized result of importing a records workbook.
type Dataset struct {
	Users      map[string]*User    `json:"users"`
	Students   map[string]*Student `json:"students"`
	Teachers   map[string]*Teacher `json:"teachers"`
	Programs   map[string]*Program `json:"programs"`
	Questions  []Question          `json:"questions"`
	Source     string              `json:"source,omitempty"`
	Fallback   bool                `json:"fallback"`
	ImportedAt time.Time           `json:"imported_at"`
}

// NewDataset returns an empty dataset with initialised maps.
func NewDataset() *Dataset {
	return &Dataset{
		Users:    make(map[string]*User),
		Students: make(map[string]*Student),
		Teachers: make(map[string]*Teacher),
		Programs: make(map[string]*Program),
	}
}

// Clone returns a deep copy. Callers may mutate the copy freely.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Users:      make(map[string]*User, len(d.Users)),
		Students:   make(map[string]*Student, len(d.Students)),
		Teachers:   make(map[string]*Teacher, len(d.Teachers)),
		Programs:   make(map[string]*Program, len(d.Programs)),
		Questions:  append([]Question(nil), d.Questions...),
		Source:     d.Source,
		Fallback:   d.Fallback,
		ImportedAt: d.ImportedAt,
	}
	for k, u := range d.Users {
		cp := *u
		cp.Programs = append([]string(nil), u.Programs...)
		out.Users[k] = &cp
	}
	for k, s := range d.Students {
		cp := *s
		cp.Enrollments = make([]Enrollment, len(s.Enrollments))
		for i, e := range s.Enrollments {
			e.Grade = copyFloat(e.Grade)
			e.OriginalGrade = copyFloat(e.OriginalGrade)
			cp.Enrollments[i] = e
		}
		out.Students[k] = &cp
	}
	for k, t := range d.Teachers {
		cp := *t
		cp.Programs = append([]string(nil), t.Programs...)
		cp.Students = append([]RosterEntry(nil), t.Students...)
		out.Teachers[k] = &cp
	}
	for k, p := range d.Programs {
		cp := *p
		cp.Students = append([]string(nil), p.Students...)
		cp.Subjects = append([]string(nil), p.Subjects...)
		out.Programs[k] = &cp
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
