package scoreboard

// GameStatus is the canonical lifecycle state of a game.
type GameStatus string

// Canonical statuses. Adapters map every upstream vocabulary into these five;
// an unknown upstream status maps to StatusScheduled so an evolving provider
// vocabulary never takes an event out of rotation.
const (
	StatusScheduled  GameStatus = "scheduled"
	StatusInProgress GameStatus = "in_progress"
	StatusFinal      GameStatus = "final"
	StatusPostponed  GameStatus = "postponed"
	StatusDelayed    GameStatus = "delayed"
)

// Valid reports whether s is one of the canonical statuses.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinal, StatusPostponed, StatusDelayed:
		return true
	default:
		return false
	}
}

// Terminal reports whether a record needs no further synchronization. Final
// games and postponed games without a reschedule stay queryable but are never
// re-fetched.
func (s GameStatus) Terminal() bool {
	return s == StatusFinal || s == StatusPostponed
}

// ValidTransition reports whether moving from one status to another follows
// the forward-only lifecycle:
//
//	scheduled         -> in_progress | postponed | delayed
//	postponed/delayed -> in_progress
//	in_progress       -> final
//
// A same-status write is always valid. Upstream state is still authoritative:
// the store applies out-of-order observations by recency and callers use this
// check to flag, not reject, a suspicious sequence.
func ValidTransition(from, to GameStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusScheduled:
		return to == StatusInProgress || to == StatusPostponed || to == StatusDelayed
	case StatusPostponed, StatusDelayed:
		return to == StatusInProgress || to == StatusFinal
	case StatusInProgress:
		return to == StatusFinal || to == StatusDelayed
	case StatusFinal:
		return false
	default:
		return false
	}
}
