// Package trainloop is a minimal training loop driving an updater: it owns
// the parameter buffer, asks an Objective for gradients, adds the
// regularization penalty and dispatches lane-aligned ranges to BatchUpdate
// on disjoint shards, with the remainder going through Update.
package trainloop

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/parallel"
	"github.com/born-ml/updater/internal/serialization"
	"github.com/born-ml/updater/internal/simd"
	"github.com/born-ml/updater/internal/updater"
)

// ErrIDOutOfRange is returned by ApplySparse for ids outside the model.
var ErrIDOutOfRange = errors.New("coordinate id out of range")

// Loop trains a parameter buffer with one updater.
type Loop struct {
	hp      hyper.HyperParameters
	upd     updater.Updater
	obj     Objective
	params  []float32
	grad    []float32
	body    int // lane-aligned prefix handled by BatchUpdate
	shards  []parallel.Range
	par     parallel.Config
	metrics *Metrics
	log     *log.Entry
	step    int
}

// New initializes upd for params and returns a loop over them.
//
// hp.NumParam may be left at zero, in which case it is set to len(params);
// any other mismatch is a configuration error. Initialization errors from
// the updater are returned unchanged so callers can detect
// *hyper.ConfigurationError.
func New(
	upd updater.Updater,
	hp hyper.HyperParameters,
	obj Objective,
	params []float32,
	par parallel.Config,
	metrics *Metrics,
	logger *log.Entry,
) (*Loop, error) {
	if hp.NumParam == 0 {
		hp.NumParam = len(params)
	}
	if hp.NumParam != len(params) {
		return nil, &hyper.ConfigurationError{
			Field:      "num_param",
			Value:      hp.NumParam,
			Constraint: "equal to the parameter buffer length " + strconv.Itoa(len(params)),
		}
	}
	if err := upd.Initialize(hp); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	body, _ := simd.Split(len(params))
	return &Loop{
		hp:      hp,
		upd:     upd,
		obj:     obj,
		params:  params,
		grad:    make([]float32, len(params)),
		body:    body,
		shards:  parallel.Shards(body, simd.Width, par),
		par:     par,
		metrics: metrics,
		log:     logger.WithField("updater", upd.Kind().String()),
	}, nil
}

// Params returns the parameter buffer being trained.
func (l *Loop) Params() []float32 {
	return l.params
}

// Updater returns the updater driven by the loop.
func (l *Loop) Updater() updater.Updater {
	return l.upd
}

// regularized reports whether the loop adds the penalty gradient itself.
// FTRL fuses L1/L2 into its own recurrence.
func (l *Loop) regularized() bool {
	return l.hp.ReguType != hyper.ReguNone && l.upd.Kind() != updater.KindFTRL
}

// Step runs one dense step and returns the loss measured before the update.
func (l *Loop) Step(ctx context.Context) (float64, error) {
	start := time.Now()

	loss := l.obj.Gradient(l.params, l.grad)
	if l.regularized() {
		loss += l.hp.Penalty(l.params)
		parallel.For(len(l.params), func(i int) {
			l.grad[i] += l.hp.PenaltyGradient(l.params[i])
		}, l.par)
	}

	if l.body > 0 {
		err := parallel.ForRanges(ctx, l.shards, func(_ context.Context, r parallel.Range) error {
			return l.upd.BatchUpdate(l.grad[r.Start:r.End], r.Start, l.params)
		})
		if err != nil {
			return loss, errors.Wrapf(err, "step %d", l.step)
		}
		l.metrics.RecordBatch(l.body)
	}
	for id := l.body; id < len(l.params); id++ {
		l.upd.Update(id, l.grad[id], l.params)
	}
	l.metrics.RecordScalar(len(l.params) - l.body)

	l.step++
	l.metrics.RecordStep(time.Since(start), loss)
	return loss, nil
}

// Run performs steps dense steps, logging every logEvery steps (0 disables
// progress logging). It stops early when ctx is canceled and returns the
// last loss.
func (l *Loop) Run(ctx context.Context, steps, logEvery int) (float64, error) {
	var loss float64
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return loss, err
		}
		var err error
		if loss, err = l.Step(ctx); err != nil {
			return loss, err
		}
		if logEvery > 0 && (i+1)%logEvery == 0 {
			l.log.WithFields(log.Fields{
				"step": l.step,
				"loss": loss,
			}).Info("training progress")
		}
	}
	return loss, nil
}

// ApplySparse applies (id, grad) pairs one at a time through the scalar
// path, in order. Ids are checked here: the updater itself does not.
func (l *Loop) ApplySparse(ids []int, grads []float32) error {
	if len(ids) != len(grads) {
		return errors.Errorf("%d ids but %d gradients", len(ids), len(grads))
	}
	for _, id := range ids {
		if id < 0 || id >= len(l.params) {
			return errors.Wrapf(ErrIDOutOfRange, "id %d, model size %d", id, len(l.params))
		}
	}
	for i, id := range ids {
		g := grads[i]
		if l.regularized() {
			g += l.hp.PenaltyGradient(l.params[id])
		}
		l.upd.Update(id, g, l.params)
	}
	l.metrics.RecordScalar(len(ids))
	return nil
}

// Checkpoint writes the updater state to path.
func (l *Loop) Checkpoint(path string) error {
	st := &serialization.State{
		Updater: l.upd.Kind().String(),
		Hyper:   l.hp,
		Vectors: l.upd.StateDict(),
		Metadata: map[string]string{
			"step": strconv.Itoa(l.step),
		},
	}
	if err := serialization.SaveState(path, st); err != nil {
		return errors.Wrapf(err, "checkpointing to %s", path)
	}
	l.log.WithFields(log.Fields{"path": path, "step": l.step}).Info("wrote updater state")
	return nil
}

// Restore loads updater state written by Checkpoint. The file must come from
// the same kind of updater and the same model size. Hyperparameters that
// differ from the checkpoint's are logged as a warning.
func (l *Loop) Restore(path string) error {
	st, err := serialization.LoadState(path)
	if err != nil {
		return errors.Wrapf(err, "restoring from %s", path)
	}
	if st.Updater != l.upd.Kind().String() {
		return errors.Errorf("state in %s is for updater %q, not %q", path, st.Updater, l.upd.Kind())
	}
	if err := l.upd.LoadStateDict(st.Vectors); err != nil {
		return errors.Wrapf(err, "restoring from %s", path)
	}
	if changed := hyperChanges(st.Hyper, l.hp); len(changed) > 0 {
		l.log.WithFields(changed).WithField("path", path).
			Warn("restored state was trained with different hyperparameters")
	}
	l.log.WithFields(log.Fields{"path": path, "step": st.Metadata["step"]}).Info("restored updater state")
	return nil
}

// hyperChanges returns "saved -> current" for every hyperparameter that
// differs between a checkpoint and the running loop.
func hyperChanges(saved, current hyper.HyperParameters) log.Fields {
	changed := log.Fields{}
	add := func(name string, a, b any) {
		if a != b {
			changed[name] = fmt.Sprintf("%v -> %v", a, b)
		}
	}
	add("learning_rate", saved.LearningRate, current.LearningRate)
	add("regu_lambda_1", saved.ReguLambda1, current.ReguLambda1)
	add("regu_lambda_2", saved.ReguLambda2, current.ReguLambda2)
	add("regu_type", saved.ReguType, current.ReguType)
	add("decay_rate", saved.DecayRate, current.DecayRate)
	add("num_param", saved.NumParam, current.NumParam)
	add("ftrl_beta", saved.Beta(), current.Beta())
	add("epsilon", saved.Eps(), current.Eps())
	return changed
}
