// Package related keeps the records related to an instance (parent/child
// relationships and preceding/succeeding titles) in agreement with what the
// instance declares.
package related

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"
	"github.com/OFFIS-RIT/inventory-sync/pkg/reconcile"

	"golang.org/x/sync/singleflight"
)

// DefaultPageLimit is the largest page the storage modules return for one list request.
const DefaultPageLimit = 1000

// Phase is one reconciliation pass over a family of related records.
type Phase interface {
	Name() string
	Run(ctx context.Context, s *Syncer, okapi collection.Context, inst inventory.Instance) PhaseResult
}

type familyPhase[T reconcile.Record[T]] struct {
	family Family[T]
}

// PhaseFor returns the reconciliation pass for a family.
func PhaseFor[T reconcile.Record[T]](family Family[T]) Phase {
	return familyPhase[T]{family: family}
}

func (p familyPhase[T]) Name() string {
	return p.family.Name
}

func (p familyPhase[T]) Run(ctx context.Context, s *Syncer, okapi collection.Context, inst inventory.Instance) PhaseResult {
	name := p.family.Name

	client, err := s.factory.Collection(okapi, p.family.Path)
	if err != nil {
		return PhaseResult{Phase: name, LoadErr: fmt.Errorf("failed to create %s client: %w", name, err)}
	}

	existing, err := loadShared(ctx, s, okapi, client, p.family, inst.ID)
	if err != nil {
		return PhaseResult{Phase: name, LoadErr: err}
	}

	desired := p.family.Desired(inst, s.newID, existing.Records.Keys())
	ops := reconcile.Diff(existing.Records, desired)
	plan := reconcile.Summarize(ops)
	logger.Debug("[Sync] planned writes",
		"phase", name,
		"instance_id", inst.ID,
		"existing", len(existing.Records),
		"desired", len(desired),
		"creates", plan.Creates,
		"updates", plan.Updates,
		"deletes", plan.Deletes,
	)

	batch := reconcile.Execute[T](ctx, reconcile.CollectionWriter[T]{Client: client}, ops)
	result := phaseResultOf(name, plan, batch)
	result.Truncated = existing.Truncated()
	for _, o := range result.Outcomes {
		if o.Failed() {
			logger.Error("[Sync] write failed",
				"phase", name,
				"instance_id", inst.ID,
				"kind", o.Kind,
				"id", o.ID,
				"status", o.StatusCode,
				"err", o.Err,
			)
		}
	}
	return result
}

// Syncer runs the reconciliation phases for an instance, one after another.
type Syncer struct {
	factory   *collection.Factory
	phases    []Phase
	pageLimit int
	newID     IDGenerator
	loads     singleflight.Group
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPageLimit sets the limit of the list request that loads existing records.
func WithPageLimit(limit int) Option {
	return func(s *Syncer) {
		if limit > 0 {
			s.pageLimit = limit
		}
	}
}

// WithIDGenerator replaces the generator for records declared without an id.
func WithIDGenerator(newID IDGenerator) Option {
	return func(s *Syncer) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithPhases replaces the default phase list.
func WithPhases(phases ...Phase) Option {
	return func(s *Syncer) {
		s.phases = phases
	}
}

// NewSyncer creates a Syncer running the instance-relationship phase and then
// the preceding/succeeding-title phase.
func NewSyncer(factory *collection.Factory, opts ...Option) *Syncer {
	s := &Syncer{
		factory:   factory,
		pageLimit: DefaultPageLimit,
		newID:     util.NewRecordID,
		phases: []Phase{
			PhaseFor(InstanceRelationships),
			PhaseFor(PrecedingSucceedingTitles),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncRelatedRecords reconciles every related-record family of inst in order.
// Each phase settles completely before the next one starts. A phase whose writes
// partly failed does not stop the next phase; a phase that could not load the
// existing records does. The returned error is the first failure, and the
// Result always carries every individual outcome.
func (s *Syncer) SyncRelatedRecords(ctx context.Context, okapi collection.Context, inst inventory.Instance) (*Result, error) {
	result := &Result{InstanceID: inst.ID, Started: time.Now()}

	for _, phase := range s.phases {
		pr := phase.Run(ctx, s, okapi, inst)
		result.Phases = append(result.Phases, pr)

		if pr.LoadErr != nil {
			logger.Error("[Sync] failed to load existing records, stopping",
				"phase", phase.Name(),
				"instance_id", inst.ID,
				"err", pr.LoadErr,
			)
			break
		}
		logger.Debug("[Sync] phase settled", "phase", phase.Name(), "instance_id", inst.ID, "failed", len(failedOf(pr)))
	}

	result.Finished = time.Now()
	if err := result.Err(); err != nil {
		return result, err
	}
	logger.Info("[Sync] related records synchronised", "instance_id", inst.ID, "writes", len(result.Outcomes()))
	return result, nil
}

func failedOf(pr PhaseResult) []Outcome {
	var failed []Outcome
	for _, o := range pr.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// loadShared collapses concurrent loads of the same family for the same
// tenant and instance into one list request. The request runs detached from
// the caller that started it, so a cancelled caller only abandons its own wait.
func loadShared[T reconcile.Record[T]](
	ctx context.Context,
	s *Syncer,
	okapi collection.Context,
	client *collection.Client,
	family Family[T],
	instanceID string,
) (Existing[T], error) {
	key := okapi.OkapiURL + "|" + okapi.Tenant + "|" + family.Path + "|" + instanceID
	ch := s.loads.DoChan(key, func() (any, error) {
		return LoadExisting(context.WithoutCancel(ctx), client, family, instanceID, s.pageLimit)
	})

	select {
	case <-ctx.Done():
		return Existing[T]{}, fmt.Errorf("failed to list %s: %w", family.Name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Existing[T]{}, res.Err
		}
		if res.Shared {
			logger.Debug("[Sync] shared existing-record load", "phase", family.Name, "instance_id", instanceID)
		}
		return res.Val.(Existing[T]), nil
	}
}
