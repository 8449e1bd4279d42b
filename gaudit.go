package gaudit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RedactFunc defines a function used to sanitize or mask values before recording.
type RedactFunc func(key string, v any) any

// RedactMap maps attribute names to specific redaction functions.
type RedactMap map[string]RedactFunc

// Config defines the main configuration options for gaudit.
type Config struct {
	DefaultScope    string             // scope when options leave it empty (default: "default")
	Entities        map[string]Options // per type name
	Redact          RedactMap          // optional key-based redaction
	ResolveModifier ModifierResolver   // default: ModifierFromContext
	Logger          *zap.Logger
	Registerer      prometheus.Registerer // optional; nil disables metrics
	Now             func() time.Time
}

// Recorder writes audit records for entity lifecycle events.
type Recorder struct {
	cfg     Config
	store   Store
	log     *zap.Logger
	metrics *metrics
}

// New creates a new Recorder writing to store, with sensible defaults.
func New(store Store, cfg Config) *Recorder {
	if cfg.DefaultScope == "" {
		cfg.DefaultScope = "default"
	}
	if cfg.Entities == nil {
		cfg.Entities = map[string]Options{}
	}
	if cfg.Redact == nil {
		cfg.Redact = RedactMap{}
	}
	if cfg.ResolveModifier == nil {
		cfg.ResolveModifier = ModifierFromContext
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		cfg:     cfg,
		store:   store,
		log:     cfg.Logger,
		metrics: newMetrics(cfg.Registerer),
	}
}

// AuditCreate records the creation of e.
func (r *Recorder) AuditCreate(ctx context.Context, e Entity) error {
	return r.Audit(ctx, ActionCreate, e)
}

// AuditUpdate records the pending changes of e.
func (r *Recorder) AuditUpdate(ctx context.Context, e TrackedEntity) error {
	return r.Audit(ctx, ActionUpdate, e)
}

// AuditDestroy records the final snapshot of e.
func (r *Recorder) AuditDestroy(ctx context.Context, e Entity) error {
	return r.Audit(ctx, ActionDestroy, e)
}

// Audit builds the record for action and hands it to the store.
// Updates require e to implement ChangeProvider.
func (r *Recorder) Audit(ctx context.Context, action Action, e Entity) error {
	if extractSkip(ctx) {
		return nil
	}
	rec, err := r.BuildRecord(ctx, action, e)
	if err != nil {
		return err
	}
	if err := r.store.Create(ctx, &rec); err != nil {
		r.metrics.failed(action, reasonStore)
		r.log.Error("failed to write audit record",
			zap.String("action", action.String()),
			zap.String("scope", rec.Scope),
			zap.String("type", rec.AssociationChain[0].Name),
			zap.Any("id", rec.AssociationChain[0].ID),
			zap.Error(err),
		)
		return fmt.Errorf("gaudit: failed to write %s record: %w", action, err)
	}
	r.metrics.recorded(action, rec.Scope)
	r.log.Debug("audit recorded",
		zap.String("action", action.String()),
		zap.String("scope", rec.Scope),
		zap.String("type", rec.AssociationChain[0].Name),
		zap.Any("id", rec.AssociationChain[0].ID),
		zap.String("modifier", rec.ModifierID),
	)
	return nil
}

// BuildRecord resolves the modifier from ctx and builds the record for action
// without writing it.
func (r *Recorder) BuildRecord(ctx context.Context, action Action, e Entity) (Record, error) {
	modifierID, err := r.cfg.ResolveModifier(ctx)
	if err == nil && modifierID == "" {
		err = ErrNoModifier
	}
	if err != nil {
		r.metrics.failed(action, reasonModifier)
		r.log.Warn("failed to resolve audit modifier",
			zap.String("action", action.String()),
			zap.String("type", TypeName(e)),
			zap.Error(err),
		)
		return Record{}, fmt.Errorf("gaudit: failed to resolve modifier: %w", err)
	}

	s := r.subject(e)
	rec, err := Build(action, s, r.options(e, s.TypeName), modifierID)
	if err != nil {
		r.metrics.failed(action, reasonBuild)
		if errors.Is(err, ErrMissingChanges) {
			return Record{}, fmt.Errorf("gaudit: %s %v: %w", s.TypeName, s.ID, err)
		}
		return Record{}, err
	}
	rec.ID = uuid.New()
	rec.CreatedAt = r.cfg.Now().UTC()
	rec.Original = r.applyRedact(rec.Original)
	rec.Modified = r.applyRedact(rec.Modified)
	return rec, nil
}

// AuditedChanges returns every record written for e in its configured scope.
func (r *Recorder) AuditedChanges(ctx context.Context, e Entity) ([]Record, error) {
	s := r.subject(e)
	f := Filter{
		Scope:            r.options(e, s.TypeName).Scope,
		AssociationChain: []Association{{ID: s.ID, Name: s.TypeName}},
	}
	rs, err := r.store.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("gaudit: failed to query records: %w", err)
	}
	return rs, nil
}

// Options returns the options in effect for e.
func (r *Recorder) Options(e Entity) Options {
	return r.options(e, TypeName(e))
}

func (r *Recorder) subject(e Entity) Subject {
	s := Subject{
		ID:       e.AuditID(),
		TypeName: TypeName(e),
		Snapshot: e,
	}
	if cp, ok := e.(ChangeProvider); ok {
		s.Changes = cp
	}
	return s
}

func (r *Recorder) options(e Entity, typeName string) Options {
	var o Options
	if p, ok := e.(OptionsProvider); ok {
		o = p.AuditOptions()
	} else {
		o = r.cfg.Entities[typeName]
	}
	if o.Scope == "" {
		o.Scope = r.cfg.DefaultScope
	}
	return o
}

// applyRedact returns a redacted copy of the given map using cfg.Redact.
// Values redacted to nil are dropped like any other absent value.
func (r *Recorder) applyRedact(m map[string]any) map[string]any {
	if m == nil || len(r.cfg.Redact) == 0 {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if fn, ok := r.cfg.Redact[k]; ok && fn != nil {
			v = fn(k, v)
			if isNil(v) {
				continue
			}
		}
		out[k] = v
	}
	return out
}
