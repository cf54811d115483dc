package hillclimb

import "github.com/matzehuels/wordorder/pkg/grammar"

// Stage names the kind of a [Record].
type Stage string

// Record stages.
const (
	StageBaseline Stage = "Baseline"
	StageTrain    Stage = "Train"
	StageDev      Stage = "Dev"
)

// Record is one observable result of a training run. Scores are keyed by
// objective label (DL, ICM, WF).
//
// Train records carry the proposed grammar, its training scores and
// improvement ratios. Dev records carry the accepted grammar and its dev
// scores. The baseline record has epoch -1 and carries both.
type Record struct {
	Stage           Stage              `json:"stage"`
	Epoch           int                `json:"epoch"`
	Candidate       int                `json:"candidate"`
	Grammar         grammar.Grammar    `json:"grammar"`
	TrainScores     map[string]float64 `json:"train_scores,omitempty"`
	Improvements    map[string]float64 `json:"improvements,omitempty"`
	DevScores       map[string]float64 `json:"dev_scores,omitempty"`
	MeanImprovement float64            `json:"mean_improvement"`
	Accepted        bool               `json:"accepted"`
	Inert           bool               `json:"inert"`
}
