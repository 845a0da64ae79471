package lobby

import (
	"fmt"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/draft"
)

// New builds a lobby in FORMED from players drained off the queue.
func New(id, guildID, seasonID string, settings Settings, players []Player, now time.Time) (Lobby, []Event, error) {
	l := Lobby{
		ID:        id,
		GuildID:   guildID,
		SeasonID:  seasonID,
		State:     StateFormed,
		Settings:  settings,
		Players:   make([]Player, 0, len(players)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range players {
		p.Ready = false
		p.Faction = FactionUnassigned
		l.Players = append(l.Players, p)
	}
	if err := l.Validate(); err != nil {
		return Lobby{}, nil, err
	}

	ev := l.event(EventLobbyFormed, now)
	ev.Players = l.accountIDs()
	return l, []Event{ev}, nil
}

// StartReadyCheck opens the ready check window.
func (l *Lobby) StartReadyCheck(now time.Time) ([]Event, error) {
	if l.State != StateFormed {
		return nil, l.invalid("start ready check")
	}

	deadline := now.Add(l.Settings.ReadyCheckTimeout)
	for i := range l.Players {
		l.Players[i].Ready = false
	}
	l.State = StateReadyCheck
	l.ReadyDeadline = &deadline
	l.touch(now)

	ev := l.event(EventReadyCheckStarted, now)
	ev.Deadline = cloneTime(l.ReadyDeadline)
	ev.Players = l.accountIDs()
	return []Event{ev}, nil
}

// MarkReady records a confirmation. Repeated confirmations are no-ops.
func (l *Lobby) MarkReady(userID string, now time.Time) ([]Event, error) {
	if l.State != StateReadyCheck {
		return nil, l.invalid("mark ready")
	}
	if l.ReadyDeadline != nil && !now.Before(*l.ReadyDeadline) {
		return nil, fmt.Errorf("%w: lobby=%s", ErrReadyCheckTimeout, l.ID)
	}
	idx := l.playerIndex(userID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: user=%s lobby=%s", ErrUnknownPlayer, userID, l.ID)
	}
	if l.Players[idx].Ready {
		return nil, nil
	}

	l.Players[idx].Ready = true
	l.touch(now)

	ev := l.event(EventPlayerReady, now)
	ev.AccountID = l.Players[idx].AccountID
	return []Event{ev}, nil
}

// ExpireReadyCheck cancels the lobby once the deadline passed without every
// confirmation. It returns the ready players in lobby order for re-queueing.
func (l *Lobby) ExpireReadyCheck(now time.Time) ([]Player, []Event, bool) {
	if l.State != StateReadyCheck || l.ReadyDeadline == nil || now.Before(*l.ReadyDeadline) || l.AllReady() {
		return nil, nil, false
	}

	ready := make([]Player, 0, len(l.Players))
	for _, p := range l.Players {
		if p.Ready {
			ready = append(ready, p)
		}
	}

	return ready, []Event{l.cancel(ReasonReadyCheckTimeout, now)}, true
}

// RemovePlayer drops a player during the ready check, which cancels the lobby
// because its roster can no longer be filled. The other players are returned
// in lobby order.
func (l *Lobby) RemovePlayer(userID string, now time.Time) ([]Player, []Event, error) {
	if l.State != StateReadyCheck && l.State != StateFormed {
		return nil, nil, l.invalid("remove player")
	}
	if l.playerIndex(userID) < 0 {
		return nil, nil, fmt.Errorf("%w: user=%s lobby=%s", ErrUnknownPlayer, userID, l.ID)
	}

	rest := make([]Player, 0, len(l.Players)-1)
	for _, p := range l.Players {
		if p.UserID != userID {
			rest = append(rest, p)
		}
	}

	return rest, []Event{l.cancel(ReasonPlayerRemoved, now)}, nil
}

// BeginDraft seats the captains once everyone is ready. A lobby with no one
// left to pick goes straight to bot assignment.
func (l *Lobby) BeginDraft(captains [2]string, now time.Time) ([]Event, error) {
	if l.State != StateReadyCheck || !l.AllReady() {
		return nil, l.invalid("begin draft")
	}

	for side, id := range captains {
		idx := l.playerIndex(id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: captain=%s lobby=%s", ErrUnknownPlayer, id, l.ID)
		}
		l.Players[idx].Faction = FactionOfSide(side)
	}
	if _, err := draft.New(l.pool(captains), captains); err != nil {
		return nil, err
	}

	l.Captains = captains
	l.Picks = nil
	l.State = StateDrafting
	l.ReadyDeadline = nil
	l.touch(now)

	return l.finishDraftIfDone(now)
}

// DraftState replays the recorded picks.
func (l Lobby) DraftState() (draft.State, error) {
	return draft.Replay(l.pool(l.Captains), l.Captains, l.Picks)
}

// Pick applies a captain's choice.
func (l *Lobby) Pick(captainID, userID string, now time.Time) ([]Event, error) {
	if l.State != StateDrafting {
		return nil, l.invalid("pick")
	}
	state, err := l.DraftState()
	if err != nil {
		return nil, err
	}
	next, err := state.ApplyFor(captainID, userID)
	if err != nil {
		return nil, err
	}

	idx := l.playerIndex(userID)
	l.Players[idx].Faction = FactionOfSide(next.Side(userID))
	l.Picks = append(l.Picks, userID)
	l.touch(now)

	ev := l.event(EventPlayerPicked, now)
	ev.AccountID = l.Players[idx].AccountID
	events := []Event{ev}

	more, err := l.finishDraftIfDone(now)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// AssignBot attaches a hosting bot while the lobby waits for its match.
func (l *Lobby) AssignBot(botID string, now time.Time) ([]Event, error) {
	if l.State != StateBotAssignment || l.BotID != "" {
		return nil, l.invalid("assign bot")
	}

	l.BotID = botID
	l.touch(now)

	ev := l.event(EventBotAssigned, now)
	ev.BotID = botID
	return []Event{ev}, nil
}

// DropBot detaches a bot that failed before the match started so another one can be requested.
func (l *Lobby) DropBot(now time.Time) error {
	if l.State != StateBotAssignment {
		return l.invalid("drop bot")
	}
	l.BotID = ""
	l.touch(now)
	return nil
}

// WaitingForBot reports whether the lobby still needs a bot.
func (l Lobby) WaitingForBot() bool {
	return l.State == StateBotAssignment && l.BotID == ""
}

// ExpireBotWait cancels a lobby that waited too long for a bot.
func (l *Lobby) ExpireBotWait(now time.Time) ([]Event, bool) {
	if !l.WaitingForBot() || l.BotDeadline == nil || now.Before(*l.BotDeadline) {
		return nil, false
	}
	return []Event{l.cancel(ReasonNoBotAvailable, now)}, true
}

// Start moves the lobby in progress once its bot reports the match began.
func (l *Lobby) Start(botID string, now time.Time) ([]Event, error) {
	if l.State != StateBotAssignment || l.BotID == "" {
		return nil, l.invalid("start match")
	}
	if botID != "" && botID != l.BotID {
		return nil, fmt.Errorf("%w: bot=%s lobby=%s", ErrBotMismatch, botID, l.ID)
	}

	l.State = StateInProgress
	l.BotDeadline = nil
	l.touch(now)

	ev := l.event(EventMatchStarted, now)
	ev.BotID = l.BotID
	return []Event{ev}, nil
}

// Complete records the winning faction.
func (l *Lobby) Complete(winner Faction, now time.Time) ([]Event, error) {
	if l.State != StateInProgress {
		return nil, l.invalid("complete")
	}
	if !winner.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWinner, winner)
	}

	l.State = StateCompleted
	l.Winner = winner
	l.finish(now)

	ev := l.event(EventMatchCompleted, now)
	ev.Winner = winner
	ev.BotID = l.BotID
	ev.Teams = l.teamAccountIDs()
	return []Event{ev}, nil
}

// Cancel ends the lobby from bot assignment or an in-progress match.
func (l *Lobby) Cancel(reason CancelReason, now time.Time) ([]Event, error) {
	switch l.State {
	case StateBotAssignment, StateInProgress:
	default:
		return nil, l.invalid("cancel")
	}
	return []Event{l.cancel(reason, now)}, nil
}

func (l *Lobby) finishDraftIfDone(now time.Time) ([]Event, error) {
	state, err := l.DraftState()
	if err != nil {
		return nil, err
	}
	if !state.Done() {
		return nil, nil
	}

	deadline := now.Add(l.Settings.BotWaitTimeout)
	l.State = StateBotAssignment
	l.BotDeadline = &deadline
	l.touch(now)

	ev := l.event(EventDraftCompleted, now)
	ev.Teams = l.teamAccountIDs()
	ev.Deadline = cloneTime(l.BotDeadline)
	return []Event{ev}, nil
}

func (l *Lobby) cancel(reason CancelReason, now time.Time) Event {
	l.State = StateCancelled
	l.CancelReason = reason
	l.finish(now)

	ev := l.event(EventLobbyCancelled, now)
	ev.Reason = reason
	ev.BotID = l.BotID
	ev.Players = l.accountIDs()
	return ev
}

func (l *Lobby) finish(now time.Time) {
	l.ReadyDeadline = nil
	l.BotDeadline = nil
	l.FinishedAt = &now
	l.touch(now)
}

func (l *Lobby) touch(now time.Time) {
	l.UpdatedAt = now
}

// pool lists non-captain players in lobby order.
func (l Lobby) pool(captains [2]string) []string {
	out := make([]string, 0, len(l.Players))
	for _, p := range l.Players {
		if p.UserID == captains[0] || p.UserID == captains[1] {
			continue
		}
		out = append(out, p.UserID)
	}
	return out
}

func (l Lobby) invalid(op string) error {
	return fmt.Errorf("%w: %s from %s lobby=%s", ErrInvalidTransition, op, l.State, l.ID)
}
