package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arenalabs/debate-arena/internal/ledger"
	"go.uber.org/zap"
)

var (
	errMissingQueryClient = errors.New("ledger query client is required")
	errMissingSubmitter   = errors.New("ledger submitter is required")
	errMissingActor       = errors.New("acting address is required")
	noOpLogger            = zap.NewNop()
)

const (
	defaultPollInterval      = 10 * time.Second
	defaultCreatedEventLimit = 50
	defaultJoinedEventLimit  = 500
)

const (
	opServiceNew   = "arena.service.new"
	opCycle        = "arena.cycle"
	opCreateDebate = "arena.create_debate"
	opJoinDebate   = "arena.join_debate"
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig wires the reconciliation engine to its collaborators.
type ServiceConfig struct {
	Query             ledger.QueryClient
	Submitter         ledger.Submitter
	Actor             string
	PollInterval      time.Duration
	CreatedEventLimit int
	JoinedEventLimit  int
	StatusDisplayFor  time.Duration
	Logger            *zap.Logger
}

// Service reconstructs a queryable view of debates from the ledger's event
// logs and object store, polls it on a fixed interval, and overlays the
// optimistic status of in-flight writes. The published view is rebuilt from
// scratch every cycle and swapped atomically; readers never observe a
// partially updated list.
type Service struct {
	query        ledger.QueryClient
	submitter    ledger.Submitter
	actor        string
	pollInterval time.Duration
	createdLimit int
	joinedLimit  int
	tracker      *statusTracker
	logger       *zap.Logger

	inFlight chan struct{}

	mu      sync.RWMutex
	view    []Debate
	stopped bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewService validates the configuration and constructs a Service. The
// scheduler is not running until Start is called.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Query == nil {
		return nil, newServiceError(opServiceNew, "missing_query_client", errMissingQueryClient)
	}
	if cfg.Submitter == nil {
		return nil, newServiceError(opServiceNew, "missing_submitter", errMissingSubmitter)
	}
	if cfg.Actor == "" {
		return nil, newServiceError(opServiceNew, "missing_actor", errMissingActor)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	createdLimit := cfg.CreatedEventLimit
	if createdLimit <= 0 {
		createdLimit = defaultCreatedEventLimit
	}
	joinedLimit := cfg.JoinedEventLimit
	if joinedLimit <= 0 {
		joinedLimit = defaultJoinedEventLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		query:        cfg.Query,
		submitter:    cfg.Submitter,
		actor:        cfg.Actor,
		pollInterval: pollInterval,
		createdLimit: createdLimit,
		joinedLimit:  joinedLimit,
		tracker:      newStatusTracker(cfg.StatusDisplayFor),
		logger:       logger,
		inFlight:     make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start runs one reconciliation cycle immediately, then repeats on the poll
// interval until Stop is called or ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	s.Refresh(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Stop halts the scheduler. No further cycle starts after Stop returns; a
// cycle already in flight completes and its result is discarded.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stopCh)
		s.tracker.Close()
	})
}

// Done is closed once the scheduler loop has exited.
func (s *Service) Done() <-chan struct{} {
	return s.doneCh
}

// Refresh runs a single reconciliation cycle on demand. It is single-flight:
// when a cycle is already running the trigger is dropped, not queued.
func (s *Service) Refresh(ctx context.Context) {
	select {
	case s.inFlight <- struct{}{}:
	default:
		s.logger.Debug("reconciliation cycle already running, trigger dropped")
		return
	}
	defer func() { <-s.inFlight }()

	s.publish(s.runCycle(ctx))
}

// runCycle executes Indexer → Hydrator → Reconciler. A failed event query
// degrades the whole cycle to an empty view; the error is logged and never
// propagated, the scheduler keeps ticking.
func (s *Service) runCycle(ctx context.Context) []Debate {
	created, err := s.query.QueryEvents(ctx, ledger.EventDebateCreated, s.createdLimit)
	if err != nil {
		s.logError(opCycle, "creation_event_query_failed", err)
		return nil
	}
	joined, err := s.query.QueryEvents(ctx, ledger.EventDebateJoined, s.joinedLimit)
	if err != nil {
		s.logError(opCycle, "join_event_query_failed", err)
		return nil
	}

	order, joins := indexEvents(created, joined, s.actor)
	hydrated := hydrate(ctx, s.query, order, s.logger)
	return reconcile(order, hydrated, joins)
}

func (s *Service) publish(view []Debate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.view = view
}

// View returns a copy of the most recently published view.
func (s *Service) View() []Debate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := make([]Debate, len(s.view))
	copy(view, s.view)
	return view
}

// Status reports the optimistic status of the latest user-initiated write.
func (s *Service) Status() Status {
	return s.tracker.Current()
}

// CreateDebate validates the inputs, marks a submission pending and forwards
// a creation intent to the ledger. Settlement is asynchronous: the outcome
// is reflected by Status, and the created debate appears in the view once a
// later poll cycle observes it.
func (s *Service) CreateDebate(ctx context.Context, rawTopic, rawDescription string) error {
	topic, err := NewTopic(rawTopic)
	if err != nil {
		return newServiceError(opCreateDebate, "invalid_topic", err)
	}
	description, err := NewDescription(rawDescription)
	if err != nil {
		return newServiceError(opCreateDebate, "invalid_description", err)
	}
	intent := ledger.Intent{
		Kind:        ledger.IntentCreateDebate,
		Actor:       s.actor,
		Topic:       topic.String(),
		Description: description.String(),
	}
	return s.submit(ctx, opCreateDebate, intent)
}

// JoinDebate validates the inputs and forwards a join intent to the ledger,
// with the same asynchronous settlement contract as CreateDebate.
func (s *Service) JoinDebate(ctx context.Context, debateID string, rawSide int8) error {
	if debateID == "" {
		return newServiceError(opJoinDebate, "invalid_debate_id", ErrInvalidDebateID)
	}
	side, err := NewSide(rawSide)
	if err != nil {
		return newServiceError(opJoinDebate, "invalid_side", err)
	}
	intent := ledger.Intent{
		Kind:     ledger.IntentJoinDebate,
		Actor:    s.actor,
		DebateID: debateID,
		Side:     int8(side),
	}
	return s.submit(ctx, opJoinDebate, intent)
}

func (s *Service) submit(ctx context.Context, operation string, intent ledger.Intent) error {
	if err := s.tracker.Begin(); err != nil {
		return newServiceError(operation, "in_flight", err)
	}
	// Settlement outlives the caller's request context.
	ctx = context.WithoutCancel(ctx)
	go func() {
		receipt, err := s.submitter.Submit(ctx, intent)
		if err != nil {
			s.logError(operation, "submission_failed", err,
				zap.String("intent", string(intent.Kind)))
			s.tracker.Settle(false)
			return
		}
		s.logger.Info("intent submitted",
			zap.String("intent", string(intent.Kind)),
			zap.String("digest", receipt.Digest))
		s.tracker.Settle(true)
	}()
	return nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("arena service error", attrs...)
}
