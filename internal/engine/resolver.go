package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/models"
)

// repairStrategy names the resolver's escalation levels.
type repairStrategy string

const (
	strategyTargeted   repairStrategy = "targeted"
	strategyGapFill    repairStrategy = "gap_fill"
	strategyAggressive repairStrategy = "aggressive"
)

// ResolveOutcome is the resolver's result. Hitting the iteration cap with
// violations left is a normal terminal state, reported, never an error.
type ResolveOutcome struct {
	Entries    []*models.Entry
	Report     models.ValidationReport
	Iterations int
	Converged  bool
	Log        []models.IterationStat
}

// Resolver drives the iterative repair loop: validate, apply the current
// strategy's repairs, re-validate, and escalate when progress stalls. The
// occupancy context is rebuilt from scratch each iteration so repairs always
// see truthful state regardless of what the previous pass did.
type Resolver struct {
	cfg        models.ScheduleConfig
	idx        *snapshotIndex
	cross      *CrossSemesterDetector
	validator  *Validator
	classrooms []models.Classroom
	logger     *zap.Logger
}

// NewResolver wires a resolver over the same index and detector the
// generator used.
func NewResolver(cfg models.ScheduleConfig, idx *snapshotIndex, cross *CrossSemesterDetector, validator *Validator, classrooms []models.Classroom, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:        cfg,
		idx:        idx,
		cross:      cross,
		validator:  validator,
		classrooms: classrooms,
		logger:     logger,
	}
}

// Resolve repairs the entry set until it validates clean, progress stops at
// the highest escalation, or the iteration cap is reached. A cancelled
// context stops the loop at the next iteration boundary; the best entry set
// so far is still returned.
func (r *Resolver) Resolve(ctx context.Context, entries []*models.Entry, initial models.ValidationReport) ResolveOutcome {
	outcome := ResolveOutcome{Entries: entries, Report: initial}
	if initial.Total == 0 {
		outcome.Converged = true
		return outcome
	}

	strategy := strategyTargeted
	history := []int{initial.Total}

	for iteration := 1; iteration <= r.cfg.Constraints.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			r.logger.Warn("resolver cancelled, returning best effort",
				zap.Int("iteration", iteration),
				zap.Int("violations", outcome.Report.Total))
			break
		}

		pass := newRepairPass(r.cfg, r.idx, r.cross, r.classrooms, outcome.Entries)
		switch strategy {
		case strategyGapFill:
			pass.runGapFill()
		case strategyAggressive:
			pass.runAggressive(outcome.Report)
		default:
			pass.runTargeted(outcome.Report)
		}
		EnforceLabConsistency(pass.entries, pass.ctx, pass.alloc.Labs())

		outcome.Entries = pass.entries
		outcome.Report = r.validator.Validate(outcome.Entries)
		outcome.Iterations = iteration
		outcome.Log = append(outcome.Log, models.IterationStat{
			Iteration:  iteration,
			Violations: outcome.Report.Total,
			Strategy:   string(strategy),
			Repairs:    pass.repairs,
		})
		history = append(history, outcome.Report.Total)

		r.logger.Debug("repair iteration",
			zap.Int("iteration", iteration),
			zap.String("strategy", string(strategy)),
			zap.Int("repairs", pass.repairs),
			zap.Int("violations", outcome.Report.Total))

		if outcome.Report.Total == 0 {
			outcome.Converged = true
			break
		}

		if stalled(history) {
			next, ok := escalate(strategy)
			if !ok {
				r.logger.Info("repair stalled at highest escalation",
					zap.Int("iteration", iteration),
					zap.Int("violations", outcome.Report.Total))
				break
			}
			r.logger.Info("repair stalled, escalating",
				zap.String("from", string(strategy)),
				zap.String("to", string(next)),
				zap.Int("violations", outcome.Report.Total))
			strategy = next
			history = history[len(history)-1:]
		} else if strategy != strategyTargeted && improved(history) {
			// An escalation that bought progress hands control back to the
			// cheap targeted ladder.
			strategy = strategyTargeted
			history = history[len(history)-1:]
		}
	}

	return outcome
}

// stalled detects a flat violation count over the last three passes or a
// two-cycle oscillation (a, b, a, b), both signs the current strategy has
// nothing left to offer.
func stalled(history []int) bool {
	n := len(history)
	if n >= 3 && history[n-1] == history[n-2] && history[n-2] == history[n-3] {
		return true
	}
	if n >= 4 && history[n-1] == history[n-3] && history[n-2] == history[n-4] && history[n-1] != history[n-2] {
		return true
	}
	return false
}

// improved reports whether the last pass lowered the violation count.
func improved(history []int) bool {
	n := len(history)
	return n >= 2 && history[n-1] < history[n-2]
}

func escalate(current repairStrategy) (repairStrategy, bool) {
	switch current {
	case strategyTargeted:
		return strategyGapFill, true
	case strategyGapFill:
		return strategyAggressive, true
	default:
		return current, false
	}
}
