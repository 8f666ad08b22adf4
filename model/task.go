package model

// TaskRecord is one parsed line of the mapping input: delete TargetFilename
// from the personal files of the user identified by UserKey.
type TaskRecord struct {
	UserKey        string
	TargetFilename string
}

// Outcome classifies the terminal state of one deletion task.
type Outcome int

const (
	OutcomeDeleted Outcome = iota
	OutcomeNoMatchingFile
	OutcomeUserNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeNoMatchingFile:
		return "no_matching_file"
	case OutcomeUserNotFound:
		return "user_not_found"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// TaskResult is the terminal classification of one record. Err is carried for
// logging only and never leaves the task boundary.
type TaskResult struct {
	Record       TaskRecord
	Outcome      Outcome
	FilesDeleted int
	Err          error
}
