package arena

import (
	"context"
	"sync"

	"github.com/arenalabs/debate-arena/internal/ledger"
	"go.uber.org/zap"
)

// Object field names exposed by the debate contract.
const (
	objectFieldTopic             = "topic"
	objectFieldDescription       = "description"
	objectFieldSideACount        = "side_a_count"
	objectFieldSideBCount        = "side_b_count"
	objectFieldTotalParticipants = "total_participants"
)

// hydrate fetches the current object snapshot for every candidate id,
// concurrently and with failures isolated: an id that cannot be fetched or
// parsed is skipped, never aborting the batch. Missing numeric fields
// default to zero and missing strings to empty.
func hydrate(ctx context.Context, client ledger.QueryClient, ids []string, logger *zap.Logger) map[string]Debate {
	hydrated := make(map[string]Debate, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		go func(debateID string) {
			defer wg.Done()
			snapshot, err := client.GetObject(ctx, debateID)
			if err != nil {
				logger.Warn("debate hydration skipped",
					zap.String("debate_id", debateID),
					zap.Error(err))
				return
			}
			debate := debateFromSnapshot(debateID, snapshot)
			mu.Lock()
			hydrated[debateID] = debate
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return hydrated
}

func debateFromSnapshot(id string, snapshot ledger.ObjectSnapshot) Debate {
	topic, _ := payloadString(snapshot.Fields, objectFieldTopic)
	description, _ := payloadString(snapshot.Fields, objectFieldDescription)
	sideA, _ := payloadInt(snapshot.Fields, objectFieldSideACount)
	sideB, _ := payloadInt(snapshot.Fields, objectFieldSideBCount)
	total, _ := payloadInt(snapshot.Fields, objectFieldTotalParticipants)

	return Debate{
		ID:                id,
		Topic:             topic,
		Description:       description,
		SideACount:        sideA,
		SideBCount:        sideB,
		TotalParticipants: total,
	}
}
