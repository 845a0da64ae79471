package lobby

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
)

var (
	ErrInvalidTransition  = errors.New("invalid lobby transition")
	ErrReadyCheckTimeout  = errors.New("ready check timed out")
	ErrUnknownPlayer      = errors.New("player is not in lobby")
	ErrInvalidWinner      = errors.New("invalid winning faction")
	ErrBotMismatch        = errors.New("bot is not assigned to lobby")
	ErrInvalidLobbyRoster = errors.New("invalid lobby roster")
)

type State string

const (
	StateFormed        State = "FORMED"
	StateReadyCheck    State = "READY_CHECK"
	StateDrafting      State = "DRAFTING"
	StateBotAssignment State = "BOT_ASSIGNMENT"
	StateInProgress    State = "IN_PROGRESS"
	StateCompleted     State = "COMPLETED"
	StateCancelled     State = "CANCELLED"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Faction is the team a lobby player ends up on.
type Faction int

const (
	FactionUnassigned Faction = 0
	Faction1          Faction = 1
	Faction2          Faction = 2
)

func (f Faction) Valid() bool {
	return f == Faction1 || f == Faction2
}

// Side maps a faction onto a zero based team index.
func (f Faction) Side() int {
	return int(f) - 1
}

func FactionOfSide(side int) Faction {
	return Faction(side + 1)
}

type CancelReason string

const (
	ReasonNone              CancelReason = ""
	ReasonReadyCheckTimeout CancelReason = "ReadyCheckTimeout"
	ReasonPlayerRemoved     CancelReason = "PlayerRemoved"
	ReasonNoBotAvailable    CancelReason = "NoBotAvailable"
	ReasonBotFailure        CancelReason = "BotFailure"
	ReasonMatchAborted      CancelReason = "MatchAborted"
)

// Settings is the league configuration frozen onto a lobby at formation.
type Settings struct {
	Size                 int
	ReadyCheckTimeout    time.Duration
	BotWaitTimeout       time.Duration
	CaptainRankThreshold int
	EloK                 int
	DraftMode            league.DraftMode
}

func SettingsFrom(cfg league.League) Settings {
	return Settings{
		Size:                 cfg.LobbySize,
		ReadyCheckTimeout:    cfg.ReadyCheckTimeout,
		BotWaitTimeout:       cfg.BotWaitTimeout,
		CaptainRankThreshold: cfg.CaptainRankThreshold,
		EloK:                 cfg.EloK,
		DraftMode:            cfg.DraftMode,
	}
}

// Player is a lobby seat.
type Player struct {
	UserID      string
	AccountID   string
	Rating      int
	CaptainRank int
	Ready       bool
	Faction     Faction
	QueuedAt    time.Time
}

// Lobby is one matchmaking session driven through its lifecycle by the methods in fsm.go.
type Lobby struct {
	ID            string
	GuildID       string
	SeasonID      string
	State         State
	Settings      Settings
	Players       []Player
	Captains      [2]string
	Picks         []string
	BotID         string
	Winner        Faction
	CancelReason  CancelReason
	ReadyDeadline *time.Time
	BotDeadline   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    *time.Time
}

func (l Lobby) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("lobby id is required")
	}
	if l.GuildID == "" {
		return fmt.Errorf("lobby guild id is required")
	}
	if len(l.Players) == 0 || len(l.Players)%2 != 0 {
		return fmt.Errorf("%w: %d players", ErrInvalidLobbyRoster, len(l.Players))
	}
	if l.Settings.Size != 0 && l.Settings.Size != len(l.Players) {
		return fmt.Errorf("%w: expected %d players, got %d", ErrInvalidLobbyRoster, l.Settings.Size, len(l.Players))
	}
	seen := make(map[string]struct{}, len(l.Players))
	for _, p := range l.Players {
		if _, dup := seen[p.UserID]; dup || p.UserID == "" {
			return fmt.Errorf("%w: duplicate or empty player %q", ErrInvalidLobbyRoster, p.UserID)
		}
		seen[p.UserID] = struct{}{}
	}
	return nil
}

func (l Lobby) Player(userID string) (Player, bool) {
	idx := l.playerIndex(userID)
	if idx < 0 {
		return Player{}, false
	}
	return l.Players[idx], true
}

func (l Lobby) HasPlayer(userID string) bool {
	return l.playerIndex(userID) >= 0
}

func (l Lobby) AllReady() bool {
	for _, p := range l.Players {
		if !p.Ready {
			return false
		}
	}
	return len(l.Players) > 0
}

// Team returns the players of one faction in lobby order.
func (l Lobby) Team(f Faction) []Player {
	out := make([]Player, 0, len(l.Players)/2)
	for _, p := range l.Players {
		if p.Faction == f {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand outside the owning guild.
func (l Lobby) Clone() Lobby {
	out := l
	out.Players = slices.Clone(l.Players)
	out.Picks = slices.Clone(l.Picks)
	out.ReadyDeadline = cloneTime(l.ReadyDeadline)
	out.BotDeadline = cloneTime(l.BotDeadline)
	out.FinishedAt = cloneTime(l.FinishedAt)
	return out
}

func (l Lobby) playerIndex(userID string) int {
	for i, p := range l.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
