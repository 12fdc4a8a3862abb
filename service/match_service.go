package service

import (
	"context"
	"errors"
	"time"

	"skillswap/metrics"
	"skillswap/model"
	"skillswap/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Match event types
const (
	EventMutualMatch  = "mutual_match"
	EventMatchRequest = "match_request"
)

// Respond decisions
const (
	DecisionAccepted = model.MatchAccepted
	DecisionRejected = model.MatchRejected
	DecisionPending  = model.MatchPending
)

// MatchEvent emitted after a transition commits. UserA is the actor.
type MatchEvent struct {
	Type  string    `json:"type"`
	UserA uuid.UUID `json:"user_a"`
	UserB uuid.UUID `json:"user_b"`
	Score float64   `json:"score"`
	At    time.Time `json:"at"`
}

// MatchEventSink receives committed match events. Delivery is fire-and-forget:
// a failing sink never undoes the transition.
type MatchEventSink interface {
	PublishMatchEvent(ctx context.Context, event MatchEvent) error
}

// ActionResult result of Like, Respond, Pass and Disconnect
type ActionResult struct {
	IsMutual bool   `json:"is_mutual"`
	Status   string `json:"status"` // caller's record toward the target after the action
	Message  string `json:"message"`
}

// PendingMatch one pending request in the status view
type PendingMatch struct {
	User      model.UserSummary `json:"user"`
	Score     float64           `json:"score"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// PendingMatches requests sent by the user and received from others
type PendingMatches struct {
	Sent     []PendingMatch `json:"sent"`
	Received []PendingMatch `json:"received"`
}

// MatchStatus derived view over a user's match records
type MatchStatus struct {
	Connections []model.UserSummary `json:"connections"`
	Pending     PendingMatches      `json:"pending"`
}

type MatchService struct {
	store  store.Store
	pool   *CandidatePoolBuilder
	guard  *ConsistencyGuard
	blocks BlockLister // optional
	sinks  []MatchEventSink
	now    func() time.Time
}

func NewMatchService(st store.Store, guard *ConsistencyGuard, blocks BlockLister) *MatchService {
	return &MatchService{
		store:  st,
		pool:   NewCandidatePoolBuilder(st, blocks),
		guard:  guard,
		blocks: blocks,
		now:    time.Now,
	}
}

// AddEventSink registers a receiver of match events
func (s *MatchService) AddEventSink(sink MatchEventSink) {
	s.sinks = append(s.sinks, sink)
}

// GetPotentialMatches ranked candidates for userID, best first
func (s *MatchService) GetPotentialMatches(ctx context.Context, userID uuid.UUID) ([]RankedCandidate, error) {
	start := time.Now()

	pool, err := s.pool.BuildPool(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := Rank(pool.Requester, pool.Candidates)
	for i := range ranked {
		if status, ok := pool.Statuses[ranked[i].User.ID]; ok {
			ranked[i].Status = status
		}
	}

	metrics.RecordRanking(len(pool.Candidates), len(ranked), time.Since(start))
	return ranked, nil
}

// Like expresses interest in targetID. A pending like from the target makes it mutual.
func (s *MatchService) Like(ctx context.Context, userID, targetID uuid.UUID) (*ActionResult, error) {
	return s.act(ctx, userID, targetID, ActionLike)
}

// Respond answers targetID's request: accepted, rejected, or pending to send an explicit request
func (s *MatchService) Respond(ctx context.Context, userID, targetID uuid.UUID, decision string) (*ActionResult, error) {
	var action Action
	switch decision {
	case DecisionAccepted:
		action = ActionAccept
	case DecisionRejected:
		action = ActionReject
	case DecisionPending:
		action = ActionRequest
	default:
		return nil, validation("invalid decision %q, expected accepted, rejected or pending", decision)
	}
	return s.act(ctx, userID, targetID, action)
}

// Pass dismisses a candidate so it no longer shows up in the potential matches
func (s *MatchService) Pass(ctx context.Context, userID, targetID uuid.UUID) (*ActionResult, error) {
	return s.act(ctx, userID, targetID, ActionPass)
}

// Disconnect removes an existing connection on both sides
func (s *MatchService) Disconnect(ctx context.Context, userID, targetID uuid.UUID) (*ActionResult, error) {
	return s.act(ctx, userID, targetID, ActionDisconnect)
}

func (s *MatchService) act(ctx context.Context, userID, targetID uuid.UUID, action Action) (*ActionResult, error) {
	if userID == uuid.Nil || targetID == uuid.Nil {
		return nil, validation("user id is required")
	}
	if userID == targetID {
		return nil, validation("cannot %s yourself", action)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := s.findUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if action == ActionLike || action == ActionRequest {
		if err := s.checkReachable(ctx, userID, target); err != nil {
			return nil, err
		}
	}

	score := Score(user, target).Score
	now := s.now()

	var outcome Outcome
	state, err := s.guard.Apply(ctx, userID, targetID, func(state *store.PairSnapshot) (bool, error) {
		var err error
		outcome, err = Transition(state, action, now, score)
		return outcome.Changed, err
	})
	if err != nil {
		metrics.RecordTransition(string(action), ErrorCode(err))
		log.Debug().Err(err).
			Str("user_id", userID.String()).
			Str("target_id", targetID.String()).
			Str("action", string(action)).
			Msg("transition rejected")
		return nil, err
	}

	metrics.RecordTransition(string(action), outcome.Label())
	log.Debug().
		Str("user_id", userID.String()).
		Str("target_id", targetID.String()).
		Str("action", string(action)).
		Str("outcome", outcome.Label()).
		Int64("version", state.Version).
		Msg("transition applied")

	if outcome.Mutual {
		metrics.RecordMutualMatch()
		s.publish(ctx, MatchEvent{Type: EventMutualMatch, UserA: userID, UserB: targetID, Score: score, At: now})
	} else if outcome.Created {
		s.publish(ctx, MatchEvent{Type: EventMatchRequest, UserA: userID, UserB: targetID, Score: score, At: now})
	}

	result := &ActionResult{IsMutual: outcome.Mutual, Message: outcome.Message}
	if state.Forward != nil {
		result.Status = state.Forward.Status
	}
	return result, nil
}

func (s *MatchService) findUser(ctx context.Context, id uuid.UUID) (*model.UserProfile, error) {
	user, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("user %s not found", id)
	}
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	return user, nil
}

// checkReachable blocked targets look like missing ones
func (s *MatchService) checkReachable(ctx context.Context, userID uuid.UUID, target *model.UserProfile) error {
	if target.Status == model.UserStatusBlocked {
		return notFound("user %s not found", target.ID)
	}
	if s.blocks == nil {
		return nil
	}
	blocked, err := s.blocks.IsBlockedEither(ctx, userID, target.ID)
	if err != nil {
		return internal("failed to check blocks", err)
	}
	if blocked {
		return notFound("user %s not found", target.ID)
	}
	return nil
}

func (s *MatchService) publish(ctx context.Context, event MatchEvent) {
	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		err := sink.PublishMatchEvent(ctx, event)
		metrics.RecordEventDelivery(event.Type, err)
		if err != nil {
			log.Warn().Err(err).
				Str("type", event.Type).
				Str("user_a", event.UserA.String()).
				Str("user_b", event.UserB.String()).
				Msg("failed to deliver match event")
		}
	}
}

// GetConnections summaries of the users connected to userID
func (s *MatchService) GetConnections(ctx context.Context, userID uuid.UUID) ([]model.UserSummary, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}

	ids, err := s.store.ConnectionIDs(ctx, userID)
	if err != nil {
		return nil, internal("failed to load connections", err)
	}
	users, err := s.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			summaries = append(summaries, u.Summary())
		}
	}
	return summaries, nil
}

// GetMatchStatus connections plus pending requests in both directions.
// Inbound requests the user rejected or from blocked users are left out.
func (s *MatchService) GetMatchStatus(ctx context.Context, userID uuid.UUID) (*MatchStatus, error) {
	connections, err := s.GetConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	own, err := s.store.RecordsByOwner(ctx, userID)
	if err != nil {
		return nil, internal("failed to load match records", err)
	}
	inbound, err := s.store.RecordsByCounterpart(ctx, userID, model.MatchPending)
	if err != nil {
		return nil, internal("failed to load match requests", err)
	}

	// an accepted record left over from a disconnect does not answer a new request
	hidden := make(map[uuid.UUID]struct{})
	var sent []model.MatchRecord
	for _, rec := range own {
		switch rec.Status {
		case model.MatchPending:
			sent = append(sent, rec)
		case model.MatchRejected:
			hidden[rec.CounterpartID] = struct{}{}
		}
	}
	if s.blocks != nil {
		blocked, err := s.blocks.BlockedPeers(ctx, userID)
		if err != nil {
			return nil, internal("failed to load blocked users", err)
		}
		for _, id := range blocked {
			hidden[id] = struct{}{}
		}
	}
	var received []model.MatchRecord
	for _, rec := range inbound {
		if _, skip := hidden[rec.OwnerID]; !skip {
			received = append(received, rec)
		}
	}

	ids := make([]uuid.UUID, 0, len(sent)+len(received))
	for _, rec := range sent {
		ids = append(ids, rec.CounterpartID)
	}
	for _, rec := range received {
		ids = append(ids, rec.OwnerID)
	}
	users, err := s.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	status := &MatchStatus{
		Connections: connections,
		Pending: PendingMatches{
			Sent:     pendingList(sent, users, func(r model.MatchRecord) uuid.UUID { return r.CounterpartID }),
			Received: pendingList(received, users, func(r model.MatchRecord) uuid.UUID { return r.OwnerID }),
		},
	}
	return status, nil
}

func (s *MatchService) loadUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserProfile, error) {
	users, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("failed to load users", err)
	}
	byID := make(map[uuid.UUID]*model.UserProfile, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

func pendingList(recs []model.MatchRecord, users map[uuid.UUID]*model.UserProfile, peer func(model.MatchRecord) uuid.UUID) []PendingMatch {
	out := make([]PendingMatch, 0, len(recs))
	for _, rec := range recs {
		u, ok := users[peer(rec)]
		if !ok {
			continue
		}
		out = append(out, PendingMatch{
			User:      u.Summary(),
			Score:     rec.Score,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out
}
