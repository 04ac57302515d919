package arena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/arenalabs/debate-arena/internal/ledger"
)

const testActor = "0xactor"

var errQueryUnavailable = errors.New("query capability unavailable")

type fakeQueryClient struct {
	mu        sync.Mutex
	events    map[string][]ledger.Event
	objects   map[string]ledger.ObjectSnapshot
	failTypes map[string]bool
	failIDs   map[string]bool
}

func newFakeQueryClient() *fakeQueryClient {
	return &fakeQueryClient{
		events:    make(map[string][]ledger.Event),
		objects:   make(map[string]ledger.ObjectSnapshot),
		failTypes: make(map[string]bool),
		failIDs:   make(map[string]bool),
	}
}

func (f *fakeQueryClient) QueryEvents(_ context.Context, eventType string, limit int) ([]ledger.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTypes[eventType] {
		return nil, errQueryUnavailable
	}
	events := f.events[eventType]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	out := make([]ledger.Event, len(events))
	copy(out, events)
	return out, nil
}

func (f *fakeQueryClient) GetObject(_ context.Context, id string) (ledger.ObjectSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return ledger.ObjectSnapshot{}, fmt.Errorf("fetch failed for %s", id)
	}
	snapshot, ok := f.objects[id]
	if !ok {
		return ledger.ObjectSnapshot{}, ledger.ErrNotFound
	}
	return snapshot, nil
}

func (f *fakeQueryClient) addCreated(debateID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ledger.EventDebateCreated] = append(f.events[ledger.EventDebateCreated], ledger.Event{
		Type:    ledger.EventDebateCreated,
		Payload: map[string]any{"debate_id": debateID},
	})
}

func (f *fakeQueryClient) addJoined(debateID, participant string, side any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ledger.EventDebateJoined] = append(f.events[ledger.EventDebateJoined], ledger.Event{
		Type: ledger.EventDebateJoined,
		Payload: map[string]any{
			"debate_id":   debateID,
			"participant": participant,
			"side":        side,
		},
	})
}

func (f *fakeQueryClient) addObject(id string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = ledger.ObjectSnapshot{ID: id, Fields: fields}
}

func debateFields(topic, description string, sideA, sideB, total int64) map[string]any {
	return map[string]any{
		"topic":              topic,
		"description":        description,
		"side_a_count":       fmt.Sprintf("%d", sideA),
		"side_b_count":       fmt.Sprintf("%d", sideB),
		"total_participants": fmt.Sprintf("%d", total),
	}
}

type fakeSubmitter struct {
	mu      sync.Mutex
	intents []ledger.Intent
	err     error
	settled chan struct{}
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{settled: make(chan struct{}, 16)}
}

func (f *fakeSubmitter) Submit(_ context.Context, intent ledger.Intent) (ledger.Receipt, error) {
	f.mu.Lock()
	f.intents = append(f.intents, intent)
	err := f.err
	f.mu.Unlock()
	f.settled <- struct{}{}
	if err != nil {
		return ledger.Receipt{}, err
	}
	return ledger.Receipt{Digest: "digest-1"}, nil
}

func (f *fakeSubmitter) submissions() []ledger.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.Intent, len(f.intents))
	copy(out, f.intents)
	return out
}

func mustService(t *testing.T, query ledger.QueryClient, submitter ledger.Submitter) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Query:     query,
		Submitter: submitter,
		Actor:     testActor,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func waitForStatus(t *testing.T, service *Service, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if service.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("status never reached %q, last seen %q", want, service.Status())
}
