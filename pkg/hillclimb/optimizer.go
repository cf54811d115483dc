package hillclimb

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/conllu"
	"github.com/matzehuels/wordorder/pkg/corpus"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/observability"
	"github.com/matzehuels/wordorder/pkg/permute"
)

// State is the phase of an [Optimizer].
type State int

// Optimizer phases, in order.
const (
	StateUninitialized State = iota
	StateBurnIn
	StateTraining
	StateDone
)

var stateNames = []string{"uninitialized", "burn-in", "training", "done"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// candidate is the independent state of one grammar in the swarm.
type candidate struct {
	index   int
	rng     *rand.Rand
	grammar grammar.Grammar
	train   []Accumulator
	dev     []Accumulator

	// primed is set once a proposal was accepted, after which the accepted
	// buffers hold real scores and inert steps can be skipped.
	primed bool

	// devPrimed is set once the accepted grammar was scored on dev.
	devPrimed bool
}

// Optimizer runs one hill-climbing training run. It is not safe for
// concurrent use and can run only once.
type Optimizer struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger
	state  State

	perturb    grammar.Perturbation
	candidates []*candidate
}

// New validates cfg and creates an optimizer.
func New(cfg Config) (*Optimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef)),
		logger: cfg.Logger,
	}, nil
}

// State returns the current phase.
func (o *Optimizer) State() State {
	return o.state
}

// Deprels returns the relation vocabulary once training has started.
func (o *Optimizer) Deprels() []string {
	return slices.Clone(o.perturb.Deprels)
}

// Grammars returns a copy of every candidate's accepted grammar.
func (o *Optimizer) Grammars() []grammar.Grammar {
	out := make([]grammar.Grammar, len(o.candidates))
	for i, c := range o.candidates {
		out[i] = c.grammar.Clone()
	}
	return out
}

// Train runs the baseline, burn-in and training phases, handing every record
// to emit in order. dev may be nil. Context cancellation is checked between
// epochs.
func (o *Optimizer) Train(ctx context.Context, train, dev corpus.Source, emit func(Record) error) (err error) {
	if o.state != StateUninitialized {
		return errs.New(errs.ErrCodeInvalidConfig, "optimizer already ran")
	}
	start := time.Now()
	defer func() {
		o.state = StateDone
		observability.Training().OnRunComplete(ctx, o.cfg.Epochs, time.Since(start), err)
	}()

	if err := o.init(train); err != nil {
		return err
	}
	observability.Training().OnRunStart(ctx, len(o.candidates), len(o.perturb.Deprels))

	if o.cfg.Baseline != nil {
		o.logger.Info("Scoring baseline grammar")
		rec, err := o.baseline(train, dev)
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}

	o.state = StateBurnIn
	if o.cfg.BurnIn > 0 {
		o.logger.Info("Beginning burn-in", "epochs", o.cfg.BurnIn)
	}
	for i := 0; i < o.cfg.BurnIn; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, c := range o.candidates {
			if _, err := o.step(ctx, c, i, train, true); err != nil {
				return err
			}
		}
	}

	o.state = StateTraining
	o.logger.Info("Beginning training", "epochs", o.cfg.Epochs, "candidates", len(o.candidates))
	for i := 0; i < o.cfg.Epochs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, c := range o.candidates {
			rec, err := o.step(ctx, c, i, train, false)
			if err != nil {
				return err
			}
			if err := emit(rec); err != nil {
				return err
			}
			if dev == nil {
				continue
			}
			devRec, err := o.evaluateDev(c, i, rec, dev)
			if err != nil {
				return err
			}
			if err := emit(devRec); err != nil {
				return err
			}
		}
	}
	return nil
}

// init fixes the vocabulary and sampling weights from one pass over train
// and draws the initial grammars.
func (o *Optimizer) init(train corpus.Source) error {
	counts := make(map[string]int)
	for s, err := range train.Sentences() {
		if err != nil {
			return err
		}
		for _, t := range s.Tokens {
			if t.IsWord() {
				counts[t.Deprel]++
			}
		}
	}

	deprels := slices.Clone(o.cfg.Deprels)
	if len(deprels) == 0 {
		for _, d := range slices.Sorted(maps.Keys(counts)) {
			if d != "root" {
				deprels = append(deprels, d)
			}
		}
	}
	if len(deprels) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "training corpus has no dependency relations")
	}

	o.perturb = grammar.Perturbation{
		Deprels: deprels,
		Lambda:  o.cfg.Lambda,
		Count:   o.cfg.Changes,
	}
	if !o.cfg.UniformSampling {
		o.perturb.Weights = grammar.FrequencyWeights(deprels, counts)
	}
	if err := o.perturb.Validate(); err != nil {
		return err
	}

	o.candidates = make([]*candidate, o.cfg.Candidates)
	for i := range o.candidates {
		rng := rand.New(rand.NewPCG(o.rng.Uint64(), o.rng.Uint64()))
		c := &candidate{
			index:   i,
			rng:     rng,
			grammar: grammar.Random(rng, deprels),
			train:   make([]Accumulator, len(o.cfg.Objectives)),
			dev:     make([]Accumulator, len(o.cfg.Objectives)),
		}
		for k := range c.train {
			c.train[k] = NewAccumulator()
			c.dev[k] = NewAccumulator()
		}
		o.candidates[i] = c
	}
	o.logger.Debug("initialized", "deprels", len(deprels), "candidates", len(o.candidates))
	return nil
}

// score permutes every sentence of src with g and adds each objective's
// sentence score to accs. Sentences the permuter rejects are skipped.
func (o *Optimizer) score(g grammar.Grammar, src corpus.Source, accs []Accumulator) error {
	p, err := permute.NewFixedOrder(g)
	if err != nil {
		return err
	}
	for s, err := range src.Sentences() {
		if err != nil {
			return err
		}
		permuted, err := p.Permute(s)
		if err != nil {
			o.logger.Debug("skipping sentence", "sent_id", s.SentID(), "err", err)
			continue
		}
		if err := o.addScores(permuted, accs); err != nil {
			return err
		}
	}
	return nil
}

func (o *Optimizer) addScores(s conllu.Sentence, accs []Accumulator) error {
	for k, m := range o.cfg.Objectives {
		sc, err := analyze.SentenceScore(s, m, o.cfg.Analysis)
		if err != nil {
			return err
		}
		accs[k].Add(sc)
	}
	return nil
}

// step proposes, scores and accepts or rejects one perturbation.
func (o *Optimizer) step(ctx context.Context, c *candidate, epoch int, train corpus.Source, burnIn bool) (Record, error) {
	start := time.Now()
	proposal, changed := o.perturb.Apply(c.rng, c.grammar)

	inert := c.primed && grammar.SameRelativeOrder(c.grammar, proposal)
	if inert {
		for k := range c.train {
			c.train[k].UsePrevious()
		}
	} else if err := o.score(proposal, train, c.train); err != nil {
		return Record{}, err
	}

	rec := Record{
		Stage:        StageTrain,
		Epoch:        epoch,
		Candidate:    c.index,
		Grammar:      proposal,
		TrainScores:  make(map[string]float64, len(c.train)),
		Improvements: make(map[string]float64, len(c.train)),
		Inert:        inert,
	}
	improvements := make([]float64, len(c.train))
	for k, m := range o.cfg.Objectives {
		improvements[k] = c.train[k].Improvement()
		rec.TrainScores[m.Label()] = c.train[k].Current()
		rec.Improvements[m.Label()] = improvements[k]
	}
	rec.MeanImprovement = weightedMean(improvements, o.cfg.Weights)
	rec.Accepted = rec.MeanImprovement < 1.0

	if rec.Accepted {
		for k := range c.train {
			c.train[k].Commit()
		}
		c.grammar = proposal
		c.primed = true
	}
	for k := range c.train {
		c.train[k].Flush()
	}

	o.logger.Debug("step",
		"candidate", c.index,
		"epoch", epoch,
		"burn_in", burnIn,
		"changed", changed,
		"mean_improvement", rec.MeanImprovement,
		"accepted", rec.Accepted,
		"inert", inert,
	)
	observability.Training().OnStep(ctx, c.index, epoch, burnIn, rec.Accepted, inert, rec.MeanImprovement, time.Since(start))
	return rec, nil
}

// evaluateDev scores the accepted grammar on dev. The accepted grammar only
// changes on accepted steps, so other steps report the last dev score.
func (o *Optimizer) evaluateDev(c *candidate, epoch int, train Record, dev corpus.Source) (Record, error) {
	rec := Record{
		Stage:           StageDev,
		Epoch:           epoch,
		Candidate:       c.index,
		Grammar:         c.grammar.Clone(),
		DevScores:       make(map[string]float64, len(c.dev)),
		MeanImprovement: train.MeanImprovement,
		Accepted:        train.Accepted,
		Inert:           train.Inert,
	}
	if train.Accepted || !c.devPrimed {
		if err := o.score(c.grammar, dev, c.dev); err != nil {
			return Record{}, err
		}
		for k := range c.dev {
			c.dev[k].Commit()
			c.dev[k].Flush()
		}
		c.devPrimed = true
	}
	for k, m := range o.cfg.Objectives {
		rec.DevScores[m.Label()] = c.dev[k].Previous()
	}
	return rec, nil
}

// baseline scores the configured baseline grammar on fresh accumulators.
func (o *Optimizer) baseline(train, dev corpus.Source) (Record, error) {
	rec := Record{
		Stage:       StageBaseline,
		Epoch:       -1,
		Grammar:     o.cfg.Baseline.Clone(),
		TrainScores: make(map[string]float64, len(o.cfg.Objectives)),
	}
	accs := make([]Accumulator, len(o.cfg.Objectives))
	for k := range accs {
		accs[k] = NewAccumulator()
	}
	if err := o.score(o.cfg.Baseline, train, accs); err != nil {
		return Record{}, err
	}
	for k, m := range o.cfg.Objectives {
		rec.TrainScores[m.Label()] = accs[k].Current()
	}

	if dev != nil {
		rec.DevScores = make(map[string]float64, len(o.cfg.Objectives))
		for k := range accs {
			accs[k] = NewAccumulator()
		}
		if err := o.score(o.cfg.Baseline, dev, accs); err != nil {
			return Record{}, err
		}
		for k, m := range o.cfg.Objectives {
			rec.DevScores[m.Label()] = accs[k].Current()
		}
	}
	return rec, nil
}

// weightedMean returns the arithmetic mean of xs weighted by ws, or the
// plain mean when ws is nil.
func weightedMean(xs, ws []float64) float64 {
	var sum, total float64
	for i, x := range xs {
		w := 1.0
		if ws != nil {
			w = ws[i]
		}
		sum += w * x
		total += w
	}
	return sum / total
}
