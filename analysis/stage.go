package analysis

import "fmt"

// Stage is a step of an analysis. Runs move forward through the stages in
// order, or to Failed from any of them.
type Stage int

const (
	Init Stage = iota
	ModelLoaded
	ParentsResolved
	Simulated
	Scored
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case Init:
		return "Init"
	case ModelLoaded:
		return "ModelLoaded"
	case ParentsResolved:
		return "ParentsResolved"
	case Simulated:
		return "Simulated"
	case Scored:
		return "Scored"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	}

	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error reports the stage an analysis was in when it failed. It unwraps to
// the error that caused the failure.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed at stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
