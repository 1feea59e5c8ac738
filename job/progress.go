package job

import (
	"animvid/models"
)

// progress counts step boundaries and turns them into events. The job
// goroutine is its only writer.
type progress struct {
	done, total int
	stage       string
	fraction    float64
	emit        func(models.Event)
}

func newProgress(sources int, emit func(models.Event)) *progress {
	return &progress{total: 2 * sources, emit: emit}
}

// setStage announces a new stage without moving the fraction.
func (p *progress) setStage(stage string) {
	p.stage = stage
	p.send(models.Event{Kind: models.EventProgress, Stage: stage})
}

// advance marks n steps done. The last step is never reported here; only
// the terminal event of a completed job may carry 1.
func (p *progress) advance(n int, message string) {
	p.done = min(p.done+n, p.total)
	if p.done >= p.total {
		return
	}
	f := float64(p.done) / float64(p.total)
	if f > p.fraction {
		p.fraction = f
	}
	p.send(models.Event{Kind: models.EventProgress, Message: message})
}

func (p *progress) advisory(msg string) {
	p.send(models.Event{Kind: models.EventAdvisory, Message: msg})
}

func (p *progress) sourceError(source string, err error) {
	p.send(models.Event{Kind: models.EventSourceError, Source: source, Message: err.Error()})
}

func (p *progress) finish(state models.JobState, summary string) {
	if state == models.JobStateCompleted {
		p.fraction = 1
	}
	p.send(models.Event{Kind: models.EventDone, State: state, Message: summary})
}

func (p *progress) send(e models.Event) {
	if e.Stage == "" {
		e.Stage = p.stage
	}
	e.Fraction = p.fraction
	if e.Kind != models.EventDone {
		e.State = models.JobStateRunning
	}
	if p.emit != nil {
		p.emit(e)
	}
}
