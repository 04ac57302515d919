package arena

import (
	"strconv"

	"github.com/arenalabs/debate-arena/internal/ledger"
)

// Payload field names written by the debate contract.
const (
	payloadFieldDebateID    = "debate_id"
	payloadFieldParticipant = "participant"
	payloadFieldSide        = "side"
)

// indexEvents reduces the two raw event logs to the inputs of one
// reconciliation cycle: the candidate debate ids in first-seen discovery
// order, and the acting address's side per debate.
//
// Creation events without a usable debate_id are dropped. Join events are
// scanned for every participant but only entries matching the actor are
// retained; when the actor appears more than once for the same debate the
// entry from the last event in query order wins. That is a client-side
// resolution rule, not a contract guarantee.
func indexEvents(created, joined []ledger.Event, actor string) ([]string, map[string]Side) {
	order := make([]string, 0, len(created))
	seen := make(map[string]struct{}, len(created))
	for _, event := range created {
		debateID, ok := payloadString(event.Payload, payloadFieldDebateID)
		if !ok || debateID == "" {
			continue
		}
		if _, duplicate := seen[debateID]; duplicate {
			continue
		}
		seen[debateID] = struct{}{}
		order = append(order, debateID)
	}

	joins := make(map[string]Side)
	for _, event := range joined {
		participant, ok := payloadString(event.Payload, payloadFieldParticipant)
		if !ok || participant != actor {
			continue
		}
		debateID, ok := payloadString(event.Payload, payloadFieldDebateID)
		if !ok || debateID == "" {
			continue
		}
		rawSide, ok := payloadInt(event.Payload, payloadFieldSide)
		if !ok {
			continue
		}
		side, err := NewSide(int8(rawSide))
		if err != nil {
			continue
		}
		joins[debateID] = side
	}

	return order, joins
}

func payloadString(payload map[string]any, key string) (string, bool) {
	if payload == nil {
		return "", false
	}
	value, ok := payload[key]
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return text, ok
}

// payloadInt accepts the numeric encodings seen from ledger nodes: native
// integers, JSON float64, and decimal strings.
func payloadInt(payload map[string]any, key string) (int64, bool) {
	if payload == nil {
		return 0, false
	}
	switch value := payload[key].(type) {
	case int:
		return int64(value), true
	case int8:
		return int64(value), true
	case int64:
		return value, true
	case float64:
		return int64(value), true
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
