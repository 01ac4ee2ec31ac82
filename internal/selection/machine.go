package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/validation"
)

// ErrTooFewCandidates is returned by Create for rankings with nothing to choose between
var ErrTooFewCandidates = errors.New("pending selection needs at least two candidates")

// maxIDAttempts bounds retries after an id collision
const maxIDAttempts = 3

// Options configure a Machine
type Options struct {
	// TTL is how long a selection stays answerable
	TTL time.Duration `validate:"gt=0"`
	// Interactive enables pending selections. When off, an ambiguous ranking
	// ends with a choice-required error listing the candidates.
	Interactive bool
	// MaxCandidates caps the stored candidate snapshot
	MaxCandidates int `validate:"gte=2,lte=10"`
}

// DefaultOptions returns a 15 minute interactive configuration offering three candidates
func DefaultOptions() Options {
	return Options{
		TTL:           15 * time.Minute,
		Interactive:   true,
		MaxCandidates: 3,
	}
}

// Option customizes a Machine
type Option func(*Machine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// Resolution is the outcome of a successful Resolve
type Resolution struct {
	Selection *models.PendingSelection
	Choice    models.RankedCandidate
}

// Machine drives pending selections through their lifecycle on top of a Store
type Machine struct {
	store  Store
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

// NewMachine validates opts and returns a machine backed by store
func NewMachine(store Store, opts Options, zapLogger *zap.Logger, options ...Option) (*Machine, error) {
	if store == nil {
		return nil, errors.New("pending selection store is required")
	}
	if err := validation.Validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid selection options: %w", err)
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	m := &Machine{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: zapLogger,
	}
	for _, o := range options {
		o(m)
	}
	return m, nil
}

// Options returns the machine's configuration
func (m *Machine) Options() Options {
	return m.opts
}

// Create opens a pending selection for owner over the top of ranked.
// With interactive mode off nothing is stored and an ambiguous-match error
// carrying the candidates is returned instead.
func (m *Machine) Create(ctx context.Context, owner string, ranked []models.RankedCandidate, cmd models.ParsedCommand) (*models.PendingSelection, error) {
	if len(ranked) < 2 {
		return nil, ErrTooFewCandidates
	}
	if owner == "" {
		return nil, errors.New("pending selection owner is required")
	}

	candidates := append([]models.RankedCandidate(nil), ranked[:min(m.opts.MaxCandidates, len(ranked))]...)
	if !m.opts.Interactive {
		return nil, &models.CommandError{
			Kind:    models.KindAmbiguousMatch,
			Message: models.ErrAmbiguousMatch.Message,
			Choices: candidates,
		}
	}

	created := m.now()
	sel := &models.PendingSelection{
		OwnerID:    owner,
		Candidates: candidates,
		Command:    cmd,
		CreatedAt:  created,
		ExpiresAt:  created.Add(m.opts.TTL),
	}

	var err error
	for range maxIDAttempts {
		sel.ID = NewID()
		if err = m.store.Put(ctx, sel); !errors.Is(err, ErrSelectionExists) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create pending selection: %w", err)
	}

	m.logger.Info("pending_selection_created",
		zap.String("selection_id", sel.ID),
		zap.String("owner_id", logger.SanitizeOwnerID(owner)),
		zap.Int("candidates", len(candidates)),
		zap.Time("expires_at", sel.ExpiresAt),
	)
	return sel, nil
}

// Get returns the live selection for id
func (m *Machine) Get(ctx context.Context, id string) (*models.PendingSelection, error) {
	if !ValidID(id) {
		return nil, notFound("malformed selection id")
	}
	return m.live(ctx, id)
}

// Resolve consumes the selection for owner's choice of candidate index.
// Only one of several concurrent calls for the same id succeeds; the others
// see the selection as expired.
func (m *Machine) Resolve(ctx context.Context, id, owner string, index int) (*Resolution, error) {
	if !ValidID(id) {
		return nil, notFound("malformed selection id")
	}

	sel, err := m.live(ctx, id)
	if err != nil {
		return nil, err
	}
	if sel.OwnerID != owner {
		return nil, ownership()
	}
	if index < 0 || index >= len(sel.Candidates) {
		return nil, notFound(fmt.Sprintf("candidate index %d out of range", index))
	}

	taken, err := m.take(ctx, id)
	if err != nil {
		return nil, err
	}

	choice := taken.Candidates[index]
	m.logger.Info("pending_selection_resolved",
		zap.String("selection_id", id),
		zap.String("project_id", choice.ID),
		zap.Int("index", index),
	)
	return &Resolution{Selection: taken, Choice: choice}, nil
}

// Cancel consumes the selection without choosing
func (m *Machine) Cancel(ctx context.Context, id, owner string) (*models.PendingSelection, error) {
	if !ValidID(id) {
		return nil, notFound("malformed selection id")
	}

	sel, err := m.live(ctx, id)
	if err != nil {
		return nil, err
	}
	if sel.OwnerID != owner {
		return nil, ownership()
	}

	taken, err := m.take(ctx, id)
	if err != nil {
		return nil, err
	}

	m.logger.Info("pending_selection_canceled", zap.String("selection_id", id))
	return taken, nil
}

// Prune removes expired selections from the store
func (m *Machine) Prune(ctx context.Context) (int, error) {
	n, err := m.store.Prune(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune pending selections: %w", err)
	}
	return n, nil
}

// live reads id and treats entries past their deadline as gone
func (m *Machine) live(ctx context.Context, id string) (*models.PendingSelection, error) {
	sel, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if sel.Expired(m.now()) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn("failed_to_delete_expired_selection", zap.String("selection_id", id), zap.Error(err))
		}
		return nil, expired()
	}
	return sel, nil
}

func (m *Machine) take(ctx context.Context, id string) (*models.PendingSelection, error) {
	sel, err := m.store.Take(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if sel.Expired(m.now()) {
		return nil, expired()
	}
	return sel, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrSelectionMissing) {
		return expired()
	}
	return fmt.Errorf("pending selection store: %w", err)
}

func notFound(message string) error {
	return models.NewCommandError(models.KindSelectionNotFound, message, nil)
}

func expired() error {
	return models.NewCommandError(models.KindSelectionExpired, models.ErrSelectionExpired.Message, nil)
}

func ownership() error {
	return models.NewCommandError(models.KindSelectionOwnership, models.ErrSelectionOwnership.Message, nil)
}
