package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/observability"
)

// trainingProgress logs hill-climb progress: accepted steps at debug level,
// a heartbeat every 10 seconds, and a summary when the run ends.
//
// It is not safe for concurrent use; the optimizer calls it from one
// goroutine.
type trainingProgress struct {
	logger *log.Logger
	prog   *progress
	epochs int

	epoch, accepted, inert int
	best                   float64
	lastLog                time.Time
}

var _ observability.TrainingHooks = (*trainingProgress)(nil)

func newTrainingProgress(logger *log.Logger, epochs int) *trainingProgress {
	return &trainingProgress{
		logger:  logger,
		prog:    newProgress(logger),
		epochs:  epochs,
		best:    -1,
		lastLog: time.Now(),
	}
}

func (p *trainingProgress) OnRunStart(_ context.Context, candidates, deprels int) {
	p.logger.Infof("Optimizing %d relations with %d candidate(s)", deprels, candidates)
}

func (p *trainingProgress) OnStep(_ context.Context, candidate, epoch int, burnIn, accepted, inert bool, meanImprovement float64, _ time.Duration) {
	if burnIn {
		return
	}
	p.epoch = epoch + 1
	switch {
	case accepted:
		p.accepted++
		if p.best < 0 || meanImprovement < p.best {
			p.best = meanImprovement
		}
		p.logger.Debugf("Accepted: epoch %d, candidate %d, improvement %.4f", epoch, candidate, meanImprovement)
	case inert:
		p.inert++
	}

	if time.Since(p.lastLog) >= 10*time.Second {
		p.logger.Infof("Training... epoch %d/%d, %d accepted, %d inert", p.epoch, p.epochs, p.accepted, p.inert)
		p.lastLog = time.Now()
	}
}

func (p *trainingProgress) OnRunComplete(_ context.Context, _ int, _ time.Duration, err error) {
	if err != nil {
		return
	}
	p.prog.done(fmt.Sprintf("Training complete: %d epochs, %d accepted steps", p.epoch, p.accepted))
	if p.best > 0 {
		p.logger.Infof("Best step improvement: %.4f", p.best)
	}
	if p.accepted == 0 && p.epoch > 0 {
		p.logger.Warn("No step was accepted; try a smaller perturbation (--lambda) or more epochs")
	}
}
