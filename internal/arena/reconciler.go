package arena

import "sort"

// reconcile merges hydrated debates with the actor's participation index
// into the published view. It is a pure function of its inputs and produces
// identical output for identical inputs.
//
// Ordering is by TotalParticipants descending; the sort is stable so that
// ties keep the discovery order from the creation-event log. An unstable
// sort here would reorder equal entries between cycles with unchanged data.
func reconcile(order []string, hydrated map[string]Debate, joins map[string]Side) []Debate {
	view := make([]Debate, 0, len(hydrated))
	for _, id := range order {
		debate, ok := hydrated[id]
		if !ok {
			continue
		}
		total := debate.SideACount + debate.SideBCount
		if total > 0 {
			debate.SideAPercent = 100 * float64(debate.SideACount) / float64(total)
		} else {
			debate.SideAPercent = 50
		}
		debate.SideBPercent = 100 - debate.SideAPercent
		if side, joined := joins[id]; joined {
			debate.Joined = true
			debate.JoinedSide = side
		}
		view = append(view, debate)
	}

	sort.SliceStable(view, func(i, j int) bool {
		return view[i].TotalParticipants > view[j].TotalParticipants
	})

	return view
}
