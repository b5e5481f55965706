package domain

// RosterRecord is one enrolled student as resolved from an uploaded roster
// file. Email is the canonical identity: lowercased and trimmed, guaranteed to
// contain the institutional domain marker. Fields the source file lacked are
// left empty, never dropped from the schema.
type RosterRecord struct {
	FullName       string
	Email          string
	Campus         string
	Faculty        string
	Program        string
	ProgramVersion string
	Group          string
	Year           string // course level within the program ("1".."4")
}

// CompletionRecord is one (student, course) completion percentage produced by
// the extractor. One independent set exists per course.
type CompletionRecord struct {
	Email   string
	Percent Percent
}

// ConsolidatedRecord is a roster record joined with the completion percentage
// of every tracked course, keyed by Course.ID. Missing course data stays an
// unknown Percent.
type ConsolidatedRecord struct {
	RosterRecord
	Completion map[string]Percent
}
