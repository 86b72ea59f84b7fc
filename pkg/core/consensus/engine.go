package consensus

import (
	"github.com/sirupsen/logrus"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// Engine binds a Params value to the mutable state the retargeting
// functions need (today, just the TargetCache). Chain owns one Engine for
// its entire lifetime: constructing a fresh Engine per params set, rather
// than relying on package-level lazily-initialized statics, means a reorg
// never observes a reference block or cached average computed against a
// different params set than the one currently in force.
type Engine struct {
	params *Params
	cache  *TargetCache
	log    *logrus.Entry
}

// NewEngine builds an Engine for the given consensus parameters.
func NewEngine(params *Params) *Engine {
	return &Engine{
		params: params,
		cache:  NewTargetCache(),
		log:    logrus.WithField("component", "consensus"),
	}
}

// Params returns the engine's consensus parameters.
func (e *Engine) Params() *Params {
	return e.params
}

// NextWorkRequired returns the compact target candidate's hash must not
// exceed, given the chain tip.
func (e *Engine) NextWorkRequired(tip *types.BlockIndex, candidate *types.BlockHeader) uint32 {
	algo := candidate.AlgoType()
	retargetCalls.WithLabelValues(algoLabel(algo)).Inc()

	if tip == nil {
		e.log.WithField("algo", algo).Debug("no chain tip, returning pow_limit_compact")
	}
	bits := NextWorkRequired(tip, candidate, e.params, e.cache)
	if tip != nil && e.params.FPowAllowMinDifficultyBlocks && algo != -1 && bits == e.params.PowLimitCompact(algo)-1 {
		e.log.WithFields(logrus.Fields{
			"height": tip.Height + 1,
			"algo":   algo,
			"reason": "min_difficulty_override",
		}).Debug("serving min-difficulty target")
	}
	return bits
}

// CalculateNextWorkRequired exposes the legacy interval retarget's low-level
// entry point for single-algorithm SHA-256 deployments.
func (e *Engine) CalculateNextWorkRequired(tip *types.BlockIndex, firstBlockTime int64) uint32 {
	return CalculateNextWorkRequired(tip, firstBlockTime, e.params)
}

// GetNextWorkRequiredXEP exposes the legacy interval retarget in its full,
// self-contained form (including the retarget-boundary check).
func (e *Engine) GetNextWorkRequiredXEP(tip *types.BlockIndex, candidateTime int64) uint32 {
	return GetNextWorkRequiredXEP(tip, candidateTime, e.params)
}

func algoLabel(algo int) string {
	switch algo {
	case int(types.AlgoPOS):
		return "pos"
	case int(types.AlgoPOWSha256):
		return "pow_sha256"
	case int(types.AlgoPOWScrypt):
		return "pow_scrypt"
	default:
		return "unknown"
	}
}
