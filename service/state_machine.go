package service

import (
	"time"

	"skillswap/model"
	"skillswap/store"
)

// Action a connection state transition requested by PairSnapshot.UserID toward PeerID
type Action string

const (
	ActionLike       Action = "like"
	ActionRequest    Action = "request" // Respond(pending)
	ActionAccept     Action = "accept"  // Respond(accepted)
	ActionReject     Action = "reject"  // Respond(rejected)
	ActionPass       Action = "pass"
	ActionDisconnect Action = "disconnect"
)

// Outcome what a transition did to the pair
type Outcome struct {
	Changed      bool   // something must be written
	Mutual       bool   // both records became accepted in this transition
	Created      bool   // a new pending request toward the peer was opened
	Disconnected bool   // an existing connection was removed
	Message      string // human readable summary
}

// Label short outcome name used for logs and metrics
func (o Outcome) Label() string {
	switch {
	case o.Mutual:
		return "mutual"
	case o.Disconnected:
		return "disconnected"
	case o.Created:
		return "created"
	case o.Changed:
		return "updated"
	default:
		return "noop"
	}
}

// Transition applies action to state in place. It never touches the store:
// the caller commits the mutated snapshot. On error state is left as is.
//
// Forward is the actor's record toward the peer, Reverse the peer's record toward the actor.
// Rejection is terminal for Like; only an explicit request reopens a rejected record.
func Transition(state *store.PairSnapshot, action Action, now time.Time, score float64) (Outcome, error) {
	switch action {
	case ActionLike:
		return like(state, now, score), nil
	case ActionRequest:
		return request(state, now, score), nil
	case ActionAccept:
		return accept(state, now, score)
	case ActionReject:
		return reject(state, now, score)
	case ActionPass:
		return pass(state, now, score)
	case ActionDisconnect:
		return disconnect(state, now)
	default:
		return Outcome{}, validation("unknown action %q", action)
	}
}

func like(state *store.PairSnapshot, now time.Time, score float64) Outcome {
	fwd, rev := state.Forward, state.Reverse

	if state.Connected {
		return Outcome{Message: "already connected"}
	}
	if fwd != nil && fwd.Status == model.MatchRejected {
		return Outcome{Message: "user was already passed"}
	}
	if isPending(rev) {
		return acceptBoth(state, now, score)
	}
	// accepted toward a peer who disconnected
	if fwd != nil && fwd.Status == model.MatchAccepted {
		return Outcome{Message: "waiting for the other user"}
	}
	if fwd == nil {
		state.Forward = newRecord(state, model.MatchPending, true, now, score)
		return Outcome{Changed: true, Created: true, Message: "like sent"}
	}

	fwd.UpdatedAt = now
	return Outcome{Changed: true, Message: "like already sent"}
}

func request(state *store.PairSnapshot, now time.Time, score float64) Outcome {
	fwd, rev := state.Forward, state.Reverse

	if fwd != nil && fwd.Status == model.MatchAccepted && state.Connected {
		return Outcome{Message: "already connected"}
	}
	if isPending(rev) {
		return acceptBoth(state, now, score)
	}
	if fwd == nil {
		state.Forward = newRecord(state, model.MatchPending, true, now, score)
		return Outcome{Changed: true, Created: true, Message: "match request sent"}
	}
	if fwd.Status != model.MatchPending {
		fwd.Status = model.MatchPending
		fwd.IsInitiator = true
		fwd.Score = score
		fwd.UpdatedAt = now
		return Outcome{Changed: true, Created: true, Message: "match request sent"}
	}

	fwd.UpdatedAt = now
	return Outcome{Changed: true, Message: "match request already sent"}
}

func accept(state *store.PairSnapshot, now time.Time, score float64) (Outcome, error) {
	if !isPending(state.Reverse) {
		if isAccepted(state.Forward) && isAccepted(state.Reverse) {
			return Outcome{Message: "already connected"}, nil
		}
		return Outcome{}, invalidState("no pending match request from user %s", state.PeerID)
	}
	return acceptBoth(state, now, score), nil
}

// reject answers an inbound request, or takes an accepted pair apart like disconnect
func reject(state *store.PairSnapshot, now time.Time, score float64) (Outcome, error) {
	if state.Connected {
		return disconnect(state, now)
	}
	if !isPending(state.Reverse) {
		return Outcome{}, invalidState("no pending match request from user %s", state.PeerID)
	}

	if state.Forward == nil {
		state.Forward = newRecord(state, model.MatchRejected, false, now, score)
	} else {
		state.Forward.Status = model.MatchRejected
		state.Forward.UpdatedAt = now
	}
	return Outcome{Changed: true, Message: "match request rejected"}, nil
}

func pass(state *store.PairSnapshot, now time.Time, score float64) (Outcome, error) {
	fwd := state.Forward
	if state.Connected {
		return Outcome{}, invalidState("already connected with user %s, disconnect instead", state.PeerID)
	}
	if fwd != nil && fwd.Status == model.MatchRejected {
		return Outcome{Message: "user already passed"}, nil
	}

	if fwd == nil {
		state.Forward = newRecord(state, model.MatchRejected, false, now, score)
	} else {
		fwd.Status = model.MatchRejected
		fwd.UpdatedAt = now
	}
	return Outcome{Changed: true, Message: "user passed"}, nil
}

func disconnect(state *store.PairSnapshot, now time.Time) (Outcome, error) {
	if !state.Connected || state.Forward == nil {
		return Outcome{}, invalidState("not connected with user %s", state.PeerID)
	}

	state.Forward.Status = model.MatchRejected
	state.Forward.UpdatedAt = now
	state.Connected = false
	return Outcome{Changed: true, Disconnected: true, Message: "connection removed"}, nil
}

// acceptBoth accepts both records and connects the pair in one step
func acceptBoth(state *store.PairSnapshot, now time.Time, score float64) Outcome {
	if state.Forward == nil {
		state.Forward = newRecord(state, model.MatchAccepted, false, now, score)
	} else {
		state.Forward.Status = model.MatchAccepted
		state.Forward.UpdatedAt = now
	}
	state.Reverse.Status = model.MatchAccepted
	state.Reverse.UpdatedAt = now
	state.Connected = true
	return Outcome{Changed: true, Mutual: true, Message: "it's a match"}
}

func newRecord(state *store.PairSnapshot, status string, initiator bool, now time.Time, score float64) *model.MatchRecord {
	return &model.MatchRecord{
		OwnerID:       state.UserID,
		CounterpartID: state.PeerID,
		Status:        status,
		IsInitiator:   initiator,
		Score:         score,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func isPending(rec *model.MatchRecord) bool {
	return rec != nil && rec.Status == model.MatchPending
}

func isAccepted(rec *model.MatchRecord) bool {
	return rec != nil && rec.Status == model.MatchAccepted
}
