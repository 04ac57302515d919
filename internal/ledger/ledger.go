package ledger

import (
	"context"
	"errors"
)

// Event type names emitted by the debate contract.
const (
	EventDebateCreated = "DebateCreated"
	EventDebateJoined  = "JoinedDebate"
)

// IntentKind enumerates the write intents the contract accepts.
type IntentKind string

const (
	// IntentCreateDebate opens a new debate with a topic and description.
	IntentCreateDebate IntentKind = "create_debate"
	// IntentJoinDebate records the actor on one side of an existing debate.
	IntentJoinDebate IntentKind = "join_debate"
)

// ErrNotFound indicates the requested object does not exist on the ledger.
var ErrNotFound = errors.New("ledger: object not found")

// Event is one append-only record returned by an event query. Payload keys
// follow the contract's field names (debate_id, participant, side) and are
// deliberately untyped; consumers parse tolerantly.
type Event struct {
	Type    string
	Payload map[string]any
}

// ObjectSnapshot is the current-state projection of a single on-chain object.
// Numeric fields may arrive as strings depending on the node's JSON encoding.
type ObjectSnapshot struct {
	ID     string
	Fields map[string]any
}

// Intent describes a write the actor wants the ledger to apply.
type Intent struct {
	Kind        IntentKind
	Actor       string
	DebateID    string
	Topic       string
	Description string
	Side        int8
}

// Receipt is the opaque acknowledgement returned for a submitted intent.
type Receipt struct {
	Digest string
}

// QueryClient is the read capability of the ledger. Separate calls carry no
// ordering or consistency guarantee relative to each other; each call may
// fail independently.
type QueryClient interface {
	// QueryEvents returns up to limit events of the given type, in the
	// node's stable query order (oldest first).
	QueryEvents(ctx context.Context, eventType string, limit int) ([]Event, error)
	// GetObject fetches the current snapshot for one object id, returning
	// ErrNotFound when the id does not resolve.
	GetObject(ctx context.Context, id string) (ObjectSnapshot, error)
}

// Submitter is the write capability. Signing and transaction construction
// live behind this boundary.
type Submitter interface {
	Submit(ctx context.Context, intent Intent) (Receipt, error)
}
