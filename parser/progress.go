package parser

import "sync"

// Stage is a phase of a parse call. Stages only move forward.
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageExtracting   Stage = "extracting"
	StageProcessing   Stage = "processing"
	StageFinalizing   Stage = "finalizing"
)

func (s Stage) rank() int {
	switch s {
	case StageInitializing:
		return 0
	case StageExtracting:
		return 1
	case StageProcessing:
		return 2
	case StageFinalizing:
		return 3
	}
	return -1
}

// Progress is reported to the caller at every stage transition and after
// each processed slide.
type Progress struct {
	Stage        Stage  `json:"stage"`
	Percent      int    `json:"progress"` // 0-100
	CurrentSlide int    `json:"currentSlide,omitempty"`
	TotalSlides  int    `json:"totalSlides,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ProgressFunc receives progress updates. Calls never overlap.
type ProgressFunc func(Progress)

// progressReporter serializes callbacks and keeps both the stage and the
// percentage monotonic. Nothing is reported after the finalizing stage.
type progressReporter struct {
	mu      sync.Mutex
	fn      ProgressFunc
	stage   Stage
	percent int
	closed  bool
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, percent: -1}
}

func (r *progressReporter) report(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || p.Stage.rank() < 0 {
		return
	}
	if r.stage != "" && p.Stage.rank() < r.stage.rank() {
		return
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	if p.Percent < r.percent {
		p.Percent = r.percent
	}
	r.stage = p.Stage
	r.percent = p.Percent
	if p.Stage == StageFinalizing {
		r.closed = true
	}
	if r.fn != nil {
		r.fn(p)
	}
}
