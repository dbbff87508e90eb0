package sync

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// RunReport aggregates per-asset outcomes for one run.
type RunReport struct {
	Direction Direction
	DryRun    bool

	Assets      int
	Transferred int
	Skipped     int
	Warnings    int
	Pruned      int
	PrunedBytes int64
}

func (r *RunReport) Record(outcome Outcome) {
	switch outcome {
	case OutcomePushed, OutcomePulled, OutcomeWouldPush, OutcomeWouldPull:
		r.Transferred++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeSkippedMissingSource:
		r.Warnings++
	}
}

func (r *RunReport) RecordPrune(deletions []Deletion) {
	for _, d := range deletions {
		r.Pruned++
		r.PrunedBytes += d.Size
	}
}

func (r *RunReport) Summary() string {
	verb := "pushed"
	if r.Direction == Pull {
		verb = "pulled"
	}
	if r.DryRun {
		verb = "would have " + verb
	}

	s := fmt.Sprintf("%d assets: %d %s, %d skipped, %d warnings",
		r.Assets, r.Transferred, verb, r.Skipped, r.Warnings)
	if r.Pruned > 0 {
		s += fmt.Sprintf(", %d versions pruned (%s)", r.Pruned, humanize.Bytes(uint64(r.PrunedBytes)))
	}
	return s
}
