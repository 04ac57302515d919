// Package localledger is an in-process, SQLite-backed stand-in for the
// remote ledger. It implements both the query and submission capabilities so
// the engine can run end to end without a node: submitted intents are
// applied synchronously and the matching events appended in one transaction.
// The engine must not rely on that immediacy and does not.
package localledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arenalabs/debate-arena/internal/ledger"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyJoined indicates the participant already joined the debate.
	ErrAlreadyJoined = errors.New("localledger: participant already joined")
	// ErrUnknownIntent indicates an intent kind the ledger cannot apply.
	ErrUnknownIntent = errors.New("localledger: unknown intent kind")
)

// Config configures the local ledger.
type Config struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Ledger implements ledger.QueryClient and ledger.Submitter on SQLite.
type Ledger struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// Open establishes the SQLite connection, migrates the schema and returns a
// ready Ledger.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return New(Config{Database: db, Logger: logger})
}

// New wraps an existing database handle, migrating the schema.
func New(cfg Config) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if err := cfg.Database.AutoMigrate(&DebateObject{}, &EventRecord{}); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: cfg.Database, clock: clock, logger: logger}, nil
}

// QueryEvents returns up to limit events of one type in emission order.
func (l *Ledger) QueryEvents(ctx context.Context, eventType string, limit int) ([]ledger.Event, error) {
	var records []EventRecord
	query := l.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("sequence ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	events := make([]ledger.Event, 0, len(records))
	for _, record := range records {
		payload := map[string]any{
			"debate_id": record.DebateID,
		}
		if record.EventType == ledger.EventDebateJoined {
			payload["participant"] = record.Participant
			payload["side"] = int64(record.Side)
		}
		events = append(events, ledger.Event{Type: record.EventType, Payload: payload})
	}
	return events, nil
}

// GetObject returns the snapshot for one debate id. Counters are encoded as
// decimal strings, mirroring the node's JSON encoding of u64 fields.
func (l *Ledger) GetObject(ctx context.Context, id string) (ledger.ObjectSnapshot, error) {
	var object DebateObject
	err := l.db.WithContext(ctx).
		Where("object_id = ?", id).
		Take(&object).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ObjectSnapshot{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.ObjectSnapshot{}, err
	}

	return ledger.ObjectSnapshot{
		ID: object.ObjectID,
		Fields: map[string]any{
			"topic":              object.Topic,
			"description":        object.Description,
			"side_a_count":       strconv.FormatInt(object.SideACount, 10),
			"side_b_count":       strconv.FormatInt(object.SideBCount, 10),
			"total_participants": strconv.FormatInt(object.TotalParticipants, 10),
		},
	}, nil
}

// Submit applies the intent and appends the matching event in one
// transaction.
func (l *Ledger) Submit(ctx context.Context, intent ledger.Intent) (ledger.Receipt, error) {
	switch intent.Kind {
	case ledger.IntentCreateDebate:
		return l.applyCreate(ctx, intent)
	case ledger.IntentJoinDebate:
		return l.applyJoin(ctx, intent)
	default:
		return ledger.Receipt{}, fmt.Errorf("%w: %q", ErrUnknownIntent, intent.Kind)
	}
}

func (l *Ledger) applyCreate(ctx context.Context, intent ledger.Intent) (ledger.Receipt, error) {
	objectID, err := newObjectID()
	if err != nil {
		return ledger.Receipt{}, err
	}
	now := l.clock().UTC().Unix()

	txErr := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		object := DebateObject{
			ObjectID:         objectID,
			Topic:            intent.Topic,
			Description:      intent.Description,
			CreatedAtSeconds: now,
		}
		if err := tx.Create(&object).Error; err != nil {
			return err
		}
		event := EventRecord{
			EventType:        ledger.EventDebateCreated,
			DebateID:         objectID,
			EmittedAtSeconds: now,
		}
		return tx.Create(&event).Error
	})
	if txErr != nil {
		return ledger.Receipt{}, txErr
	}

	l.logger.Info("debate created",
		zap.String("debate_id", objectID),
		zap.String("actor", intent.Actor))
	return ledger.Receipt{Digest: objectID}, nil
}

func (l *Ledger) applyJoin(ctx context.Context, intent ledger.Intent) (ledger.Receipt, error) {
	digest, err := newObjectID()
	if err != nil {
		return ledger.Receipt{}, err
	}
	now := l.clock().UTC().Unix()

	txErr := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var object DebateObject
		err := tx.Where("object_id = ?", intent.DebateID).Take(&object).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}

		var joined int64
		err = tx.Model(&EventRecord{}).
			Where("event_type = ? AND debate_id = ? AND participant = ?",
				ledger.EventDebateJoined, intent.DebateID, intent.Actor).
			Count(&joined).Error
		if err != nil {
			return err
		}
		if joined > 0 {
			return ErrAlreadyJoined
		}

		if intent.Side == 0 {
			object.SideACount++
		} else {
			object.SideBCount++
		}
		object.TotalParticipants++
		if err := tx.Save(&object).Error; err != nil {
			return err
		}

		event := EventRecord{
			EventType:        ledger.EventDebateJoined,
			DebateID:         intent.DebateID,
			Participant:      intent.Actor,
			Side:             intent.Side,
			EmittedAtSeconds: now,
		}
		return tx.Create(&event).Error
	})
	if txErr != nil {
		return ledger.Receipt{}, txErr
	}

	l.logger.Info("debate joined",
		zap.String("debate_id", intent.DebateID),
		zap.String("actor", intent.Actor),
		zap.Int8("side", intent.Side))
	return ledger.Receipt{Digest: digest}, nil
}

func newObjectID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "0x" + value.String(), nil
}
