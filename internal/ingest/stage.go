package ingest

import "fmt"

// Stage is a company's position in the ingest pipeline.
type Stage int

const (
	StagePending Stage = iota
	StageFetched
	StageValidated
	StageNormalized
	StageLoaded
	StageSkipped
)

var stageNames = [...]string{"pending", "fetched", "validated", "normalized", "loaded", "skipped"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// CanTransition reports whether a company may move from s to next. The happy
// path advances one stage at a time; any stage before Loaded may drop to
// Skipped. Loaded and Skipped are terminal.
func (s Stage) CanTransition(next Stage) bool {
	switch {
	case s == StageLoaded || s == StageSkipped:
		return false
	case next == StageSkipped:
		return true
	default:
		return next == s+1
	}
}
