package model

import "time"

// OutcomeSets holds the deduplicated user keys per outcome category.
type OutcomeSets struct {
	Deleted        []string
	NoMatchingFile []string
	UserNotFound   []string
	Errors         []string
}

// RunReport is the persistent record of one run. The JSON field names are
// part of the report format consumed by downstream tooling and must not
// change.
type RunReport struct {
	DateStarted              string   `json:"dateStarted"`
	DateCompleted            string   `json:"dateCompleted"`
	CompletedWithDeletion    []string `json:"completedWithDeletion"`
	CompletedWithoutDeletion []string `json:"completedWithoutDeletion"`
	Error                    []string `json:"error"`
	UserNotFound             []string `json:"userNotFound"`
}

// NewRunReport builds the report for a run spanning start to end.
func NewRunReport(start, end time.Time, sets OutcomeSets) *RunReport {
	return &RunReport{
		DateStarted:              start.Format(time.RFC3339),
		DateCompleted:            end.Format(time.RFC3339),
		CompletedWithDeletion:    orEmpty(sets.Deleted),
		CompletedWithoutDeletion: orEmpty(sets.NoMatchingFile),
		Error:                    orEmpty(sets.Errors),
		UserNotFound:             orEmpty(sets.UserNotFound),
	}
}

// orEmpty keeps empty categories as [] rather than null in the JSON output.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
