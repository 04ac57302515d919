package localledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/arenalabs/debate-arena/internal/ledger"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func mustLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	local, err := New(Config{Database: db})
	if err != nil {
		t.Fatalf("failed to build ledger: %v", err)
	}
	return local
}

func mustCreate(t *testing.T, local *Ledger, actor, topic, description string) string {
	t.Helper()
	receipt, err := local.Submit(context.Background(), ledger.Intent{
		Kind:        ledger.IntentCreateDebate,
		Actor:       actor,
		Topic:       topic,
		Description: description,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return receipt.Digest
}

func TestSubmitCreateAppendsEventAndObject(t *testing.T) {
	local := mustLedger(t)

	debateID := mustCreate(t, local, "0xactor", "cats vs dogs", "which pet")

	events, err := local.QueryEvents(context.Background(), ledger.EventDebateCreated, 50)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one creation event, got %d", len(events))
	}
	if events[0].Payload["debate_id"] != debateID {
		t.Fatalf("event does not reference the created object: %+v", events[0])
	}

	snapshot, err := local.GetObject(context.Background(), debateID)
	if err != nil {
		t.Fatalf("get object failed: %v", err)
	}
	if snapshot.Fields["topic"] != "cats vs dogs" {
		t.Fatalf("unexpected topic: %+v", snapshot.Fields)
	}
	if snapshot.Fields["total_participants"] != "0" {
		t.Fatalf("counters should be string-encoded zeros: %+v", snapshot.Fields)
	}
}

func TestSubmitJoinUpdatesCountsAndEvents(t *testing.T) {
	local := mustLedger(t)
	debateID := mustCreate(t, local, "0xactor", "tabs vs spaces", "the classic")

	_, err := local.Submit(context.Background(), ledger.Intent{
		Kind:     ledger.IntentJoinDebate,
		Actor:    "0xactor",
		DebateID: debateID,
		Side:     1,
	})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	snapshot, err := local.GetObject(context.Background(), debateID)
	if err != nil {
		t.Fatalf("get object failed: %v", err)
	}
	if snapshot.Fields["side_b_count"] != "1" || snapshot.Fields["total_participants"] != "1" {
		t.Fatalf("unexpected counters: %+v", snapshot.Fields)
	}

	events, err := local.QueryEvents(context.Background(), ledger.EventDebateJoined, 500)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one join event, got %d", len(events))
	}
	if events[0].Payload["participant"] != "0xactor" || events[0].Payload["side"] != int64(1) {
		t.Fatalf("unexpected join payload: %+v", events[0].Payload)
	}
}

func TestSubmitJoinEnforcesSingleParticipation(t *testing.T) {
	local := mustLedger(t)
	debateID := mustCreate(t, local, "0xactor", "a", "b")

	join := ledger.Intent{
		Kind:     ledger.IntentJoinDebate,
		Actor:    "0xactor",
		DebateID: debateID,
		Side:     0,
	}
	if _, err := local.Submit(context.Background(), join); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := local.Submit(context.Background(), join); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	snapshot, err := local.GetObject(context.Background(), debateID)
	if err != nil {
		t.Fatalf("get object failed: %v", err)
	}
	if snapshot.Fields["total_participants"] != "1" {
		t.Fatalf("rejected join must not change counters: %+v", snapshot.Fields)
	}
}

func TestSubmitJoinUnknownDebate(t *testing.T) {
	local := mustLedger(t)

	_, err := local.Submit(context.Background(), ledger.Intent{
		Kind:     ledger.IntentJoinDebate,
		Actor:    "0xactor",
		DebateID: "0xmissing",
		Side:     0,
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetObjectUnknownID(t *testing.T) {
	local := mustLedger(t)

	_, err := local.GetObject(context.Background(), "0xmissing")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryEventsRespectsLimitAndOrder(t *testing.T) {
	local := mustLedger(t)
	first := mustCreate(t, local, "0xactor", "a", "b")
	second := mustCreate(t, local, "0xactor", "c", "d")
	mustCreate(t, local, "0xactor", "e", "f")

	events, err := local.QueryEvents(context.Background(), ledger.EventDebateCreated, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit to apply, got %d events", len(events))
	}
	if events[0].Payload["debate_id"] != first || events[1].Payload["debate_id"] != second {
		t.Fatalf("events not in emission order: %+v", events)
	}
}
