package domain

// Course describes one tracked course. The pipeline computes one completion
// percentage per roster email for each course.
type Course struct {
	ID    string // short ascii id used in column/table identifiers ("cg", "python", ...)
	Name  string // legacy display name used in output headers ("ЦГ", "Питон", "Андан")
	Table string // per-course sink table in the split-tables store

	// ExcludedColumns is a denylist of lowercase substrings; export columns
	// whose header contains any of them are never treated as activities.
	// Maintained by hand against the real exports, not derived from data.
	ExcludedColumns []string
}

// PercentHeader is the legacy consolidated-output column name for the course.
func (c Course) PercentHeader() string {
	return "Процент_" + c.Name
}

// cgExcludedColumns removes the administrative, promotional, survey and
// reference-material columns from the Digital Literacy export. The list must
// stay byte-for-byte in sync with the legacy pipeline to reproduce its output.
var cgExcludedColumns = []string{
	"take away", "шпаргалка", "консультация", "общая информация", "промо-ролик",
	"поддержка студентов", "пояснение", "случайный вариант для студентов с овз",
	"материалы по модулю", "копия", "демонстрационный вариант", "спецификация",
	"демо-версия", "правила проведения независимого экзамена",
	"порядок организации и проведения независимых экзаменов",
	"интерактивный тренажер правил нэ", "пересдачи в сентябре", "незрячих и слабовидящих",
	"проекты с использование tei", "тренировочный тест", "ключевые принципы tei",
	"базовые возможности tie", "специальные модули tei", "будут идентичными",
	"опрос", "тест по модулю", "анкета", "user information", "страна", "user_id", "данные о пользователе",
}

// DefaultCourses returns the three tracked courses in legacy order:
// Digital Literacy, Python, Data Analysis.
func DefaultCourses() []Course {
	return []Course{
		{ID: "cg", Name: "ЦГ", Table: "course_cg", ExcludedColumns: cgExcludedColumns},
		{ID: "python", Name: "Питон", Table: "course_python"},
		{ID: "analysis", Name: "Андан", Table: "course_analysis"},
	}
}
