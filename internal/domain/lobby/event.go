package lobby

import "time"

type EventType string

const (
	EventLobbyFormed       EventType = "LobbyFormed"
	EventReadyCheckStarted EventType = "ReadyCheckStarted"
	EventPlayerReady       EventType = "PlayerReady"
	EventPlayerPicked      EventType = "PlayerPicked"
	EventDraftCompleted    EventType = "DraftCompleted"
	EventBotAssigned       EventType = "BotAssigned"
	EventMatchStarted      EventType = "MatchStarted"
	EventMatchCompleted    EventType = "MatchCompleted"
	EventLobbyCancelled    EventType = "LobbyCancelled"
)

// Event is a lifecycle notification for presentation layers.
type Event struct {
	Type      EventType    `json:"type"`
	GuildID   string       `json:"guild_id"`
	LobbyID   string       `json:"lobby_id"`
	State     State        `json:"state"`
	AccountID string       `json:"account_id,omitempty"`
	BotID     string       `json:"bot_id,omitempty"`
	Reason    CancelReason `json:"reason,omitempty"`
	Winner    Faction      `json:"winner,omitempty"`
	Deadline  *time.Time   `json:"deadline,omitempty"`
	Players   []string     `json:"players,omitempty"`
	Teams     [][]string   `json:"teams,omitempty"`
	At        time.Time    `json:"at"`
}

func (l *Lobby) event(t EventType, at time.Time) Event {
	return Event{
		Type:    t,
		GuildID: l.GuildID,
		LobbyID: l.ID,
		State:   l.State,
		At:      at,
	}
}

func (l *Lobby) accountIDs() []string {
	out := make([]string, 0, len(l.Players))
	for _, p := range l.Players {
		out = append(out, p.AccountID)
	}
	return out
}

func (l *Lobby) teamAccountIDs() [][]string {
	teams := make([][]string, 2)
	for _, p := range l.Players {
		if !p.Faction.Valid() {
			continue
		}
		side := p.Faction.Side()
		teams[side] = append(teams[side], p.AccountID)
	}
	return teams
}
