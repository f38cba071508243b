package labels

import "strings"

// HandbookCategories are the module-handbook field categories in label id
// order.
var HandbookCategories = []string{
	"MODULE_NAME",
	"MODULE_NR",
	"MODULE_TYPE",
	"MODULE_CREDITS",
	"MODULE_SEMESTER",
	"MODULE_HOURS",
	"MODULE_SELF_STUDY_HOURS",
	"MODULE_DURATION",
	"MODULE_SEM_TYPE",
	"MODULE_LANGUAGE",
	"MODULE_MANAGER",
	"MODULE_CONTENT",
	"MODULE_OUTCOMES",
	"MODULE_PREREQUISITES",
	"MODULE_TEACH_LEARN_METHODS",
	"MODULE_EXAM_FORMAT",
	"MODULE_PASSING_CRETERIA",
	"MODULE_GRADING",
	"MODULE_DEGREE_PROGRAM",
	"MODULE_GRADE_IMPROVEMENT",
	"MODULE_LITERATURE",
	"COURSE_NAME",
	"COURSE_NR",
	"MODULE_INSTRUCTOR",
	"COURSE_TEACHING_FORM",
	"COURSE_SWS",
	"MODULE_FACULTY",
	"MODULE_SCHOOL",
}

// Default returns a fresh table over HandbookCategories.
func Default() *Table {
	t, err := NewTable(HandbookCategories)
	if err != nil {
		panic("labels: handbook categories invalid: " + err.Error())
	}
	return t
}

// Aliases maps the many header spellings found in handbooks to a single
// category. Lookups are exact after newline/space normalization.
type Aliases struct {
	byHeader map[string]string
}

// NewAliases builds an alias index from category -> header variants.
func NewAliases(variants map[string][]string) *Aliases {
	a := &Aliases{byHeader: make(map[string]string)}
	for category, headers := range variants {
		for _, h := range headers {
			a.byHeader[normalizeHeader(h)] = category
		}
	}
	return a
}

// Lookup returns the category for a header.
func (a *Aliases) Lookup(header string) (string, bool) {
	c, ok := a.byHeader[normalizeHeader(header)]
	return c, ok
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(h), " ")
}

// DefaultAliases returns the header variants seen in German and English
// module handbooks.
func DefaultAliases() *Aliases {
	return NewAliases(map[string][]string{
		"MODULE_NAME":                {"Modulname", "Lehrveranstaltung", "Teilmodulname", "Module description", "Module Name", "Module titel"},
		"MODULE_NR":                  {"Modul Nr.", "Modulkürzel", "Teilmodulkürzel", "Module code", "Module", "Identifier"},
		"MODULE_TYPE":                {"Art", "Mode", "Module level"},
		"MODULE_CREDITS":             {"Leistungspunkte", "ECTS credit points", "ECTS Credits"},
		"MODULE_SEMESTER":            {"Semester", "Where in the curriculum", "Recommended\nSemester (Study\nstart winter)", "Recommended\nSemester (Study\nstart summer)"},
		"MODULE_HOURS":               {"Arbeitsaufwand", "Arbeitsaufwand und Credit Points", "Workload", "Contact time (WSH)", "Total hours (h)", "Contact hours (h)"},
		"MODULE_SELF_STUDY_HOURS":    {"Selbststudium", "Self-study hours (h)"},
		"MODULE_DURATION":            {"Moduldauer", "Dauer, zeitliche Gliederung und Häufigkeit des Angebots", "Duration", "Duration (Semester)"},
		"MODULE_SEM_TYPE":            {"Angebotsturnus", "Repetition in the academic\nyear", "Cycle (Semester)"},
		"MODULE_LANGUAGE":            {"Sprache", "Lehrsprache", "Language"},
		"MODULE_MANAGER":             {"Modulverantwortliche Person", "Modulverantwortliche(r)", "Teilmodulverantwortliche(r)", "Lecturer responsible for the\nmodule", "Person in Charge", "Module coordinator"},
		"MODULE_CONTENT":             {"Lerninhalt", "Inhalt", "Contents", "Content"},
		"MODULE_OUTCOMES":            {"Qualifikationsziele / Lernergebnisse", "Ziele", "Learning objectives /\ncompetences", "Learning Targets", "Learning Objectives/\nLearning Outcomes"},
		"MODULE_PREREQUISITES":       {"Empfohlene Voraussetzungen für die Teilnahme", "Notwendige Kenntnisse", "Empfohlene Kenntnisse", "Recommended requirements", "Prerequisites", "(Study-Specific)\nPrerequisites", "(recommended)\nRequirements"},
		"MODULE_TEACH_LEARN_METHODS": {"Lehr- und Lernformen"},
		"MODULE_EXAM_FORMAT":         {"Prüfungsform", "Prüfungsform, Prüfungsdauer und Prüfungsvoraussetzung", "Examinations", "Examination", "Examination duration (min)"},
		"MODULE_PASSING_CRETERIA":    {"BestehenderModulabschlussprüfung", "Voraussetzung für die Vergabe von Leistungspunkten", "Requirements according to\nthe Examination Regulations", "Further Required\nQualifications", "Requirements for\nExamination", "Examination Terms"},
		"MODULE_GRADING":             {"Benotung", "Assessment"},
		"MODULE_DEGREE_PROGRAM":      {"Verwendbarkeit des Moduls", "Studiengangsniveau", "Applicability of the module", "Program"},
		"MODULE_GRADE_IMPROVEMENT":   {"Notenverbesserung nach §25 (2)"},
		"MODULE_LITERATURE":          {"Literatur", "Literature", "References"},
		"COURSE_NAME":                {"Kursname", "Title"},
		"COURSE_NR":                  {"Kurs-Nr."},
		"MODULE_INSTRUCTOR":          {"Dozent/in", "Weitere Lehrende", "Lecturer", "Instructors"},
		"COURSE_TEACHING_FORM":       {"Lehrform", "Type"},
		"COURSE_SWS":                 {"SWS"},
		"MODULE_FACULTY":             {"Faculty responsible for the\nmodule"},
		"MODULE_SCHOOL":              {"Institute responsible for the\nmodule"},
	})
}
