package httpapi

import (
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/queue"
	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

type accountRequest struct {
	AccountID string `json:"account_id" validate:"required,max=64"`
}

type joinQueueRequest struct {
	AccountID string   `json:"account_id" validate:"required,max=64"`
	RoleNames []string `json:"role_names" validate:"omitempty,max=250,dive,max=100"`
}

type banRequest struct {
	AccountID string `json:"account_id" validate:"required,max=64"`
	Minutes   int    `json:"minutes" validate:"gte=0,lte=525600"`
}

type pickRequest struct {
	CaptainAccountID string `json:"captain_account_id" validate:"required,max=64"`
	PickAccountID    string `json:"pick_account_id" validate:"required,max=64"`
}

type startMatchRequest struct {
	BotID string `json:"bot_id" validate:"omitempty,max=64"`
}

type reportResultRequest struct {
	Winner int `json:"winner" validate:"required,oneof=1 2"`
}

type registerBotRequest struct {
	BotID string `json:"bot_id" validate:"omitempty,max=64"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

type giveReputationRequest struct {
	GiverAccountID     string `json:"giver_account_id" validate:"required,max=64"`
	RecipientAccountID string `json:"recipient_account_id" validate:"required,max=64,nefield=GiverAccountID"`
}

type startSeasonRequest struct {
	Name string `json:"name" validate:"omitempty,max=100"`
}

type updateLeagueRequest struct {
	ReadyCheckTimeoutMS  *int64  `json:"ready_check_timeout_ms" validate:"omitempty,gt=0"`
	CaptainRankThreshold *int    `json:"captain_rank_threshold" validate:"omitempty,gte=0"`
	CaptainRoleRegexp    *string `json:"captain_role_regexp" validate:"omitempty,max=200"`
	CategoryName         *string `json:"category_name" validate:"omitempty,max=100"`
	ChannelName          *string `json:"channel_name" validate:"omitempty,max=100"`
	AdminRoleName        *string `json:"admin_role_name" validate:"omitempty,max=100"`
	InitialRating        *int    `json:"initial_rating" validate:"omitempty,gt=0"`
	LobbySize            *int    `json:"lobby_size" validate:"omitempty,gte=2"`
	EloK                 *int    `json:"elo_k" validate:"omitempty,gt=0"`
	BotWaitTimeoutMS     *int64  `json:"bot_wait_timeout_ms" validate:"omitempty,gt=0"`
	DraftMode            *string `json:"draft_mode" validate:"omitempty,oneof=captains auto"`
}

type queueEntryDTO struct {
	UserID      string    `json:"user_id"`
	AccountID   string    `json:"account_id"`
	Rating      int       `json:"rating"`
	CaptainRank int       `json:"captain_rank,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

type joinQueueDTO struct {
	Position int        `json:"position"`
	QueueLen int        `json:"queue_len"`
	Formed   []lobbyDTO `json:"formed,omitempty"`
}

type banDTO struct {
	Evicted          bool       `json:"evicted"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CancelledLobbyID string     `json:"cancelled_lobby_id,omitempty"`
}

type lobbyPlayerDTO struct {
	UserID      string `json:"user_id"`
	AccountID   string `json:"account_id"`
	Rating      int    `json:"rating"`
	CaptainRank int    `json:"captain_rank,omitempty"`
	Ready       bool   `json:"ready"`
	Faction     int    `json:"faction,omitempty"`
}

type lobbyDTO struct {
	ID            string           `json:"id"`
	GuildID       string           `json:"guild_id"`
	SeasonID      string           `json:"season_id"`
	State         string           `json:"state"`
	Players       []lobbyPlayerDTO `json:"players"`
	Captains      []string         `json:"captains,omitempty"`
	Picks         []string         `json:"picks,omitempty"`
	BotID         string           `json:"bot_id,omitempty"`
	Winner        int              `json:"winner,omitempty"`
	CancelReason  string           `json:"cancel_reason,omitempty"`
	ReadyDeadline *time.Time       `json:"ready_deadline,omitempty"`
	BotDeadline   *time.Time       `json:"bot_deadline,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	FinishedAt    *time.Time       `json:"finished_at,omitempty"`
}

type ratingChangeDTO struct {
	UserID string `json:"user_id"`
	Before int    `json:"before"`
	After  int    `json:"after"`
	Won    bool   `json:"won"`
}

type matchOutcomeDTO struct {
	Lobby   lobbyDTO          `json:"lobby"`
	Changes []ratingChangeDTO `json:"changes"`
}

type botDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	LobbyID   string `json:"lobby_id,omitempty"`
	Failed    bool   `json:"failed"`
	Disabled  bool   `json:"disabled"`
	Available bool   `json:"available"`
}

type botFailureDTO struct {
	Bot   botDTO    `json:"bot"`
	Lobby *lobbyDTO `json:"lobby,omitempty"`
}

type reputationDTO struct {
	RecipientID string `json:"recipient_id"`
	SeasonCount int    `json:"season_count"`
	TotalCount  int    `json:"total_count"`
}

type standingDTO struct {
	Rank      int    `json:"rank"`
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Rating    int    `json:"rating"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
}

type leagueDTO struct {
	GuildID              string `json:"guild_id"`
	CurrentSeasonID      string `json:"current_season_id"`
	ReadyCheckTimeoutMS  int64  `json:"ready_check_timeout_ms"`
	CaptainRankThreshold int    `json:"captain_rank_threshold"`
	CaptainRoleRegexp    string `json:"captain_role_regexp"`
	CategoryName         string `json:"category_name"`
	ChannelName          string `json:"channel_name"`
	AdminRoleName        string `json:"admin_role_name"`
	InitialRating        int    `json:"initial_rating"`
	LobbySize            int    `json:"lobby_size"`
	EloK                 int    `json:"elo_k"`
	BotWaitTimeoutMS     int64  `json:"bot_wait_timeout_ms"`
	DraftMode            string `json:"draft_mode"`
}

type seasonDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type pendingResultDTO struct {
	Lobby     lobbyDTO          `json:"lobby"`
	Changes   []ratingChangeDTO `json:"changes"`
	LastError string            `json:"last_error"`
	FailedAt  time.Time         `json:"failed_at"`
	Attempts  int               `json:"attempts"`
}

func queueEntryToDTO(e queue.Entry) queueEntryDTO {
	return queueEntryDTO{
		UserID:      e.UserID,
		AccountID:   e.AccountID,
		Rating:      e.Rating,
		CaptainRank: e.CaptainRank,
		JoinedAt:    e.JoinedAt,
	}
}

func lobbyToDTO(l lobby.Lobby) lobbyDTO {
	players := make([]lobbyPlayerDTO, 0, len(l.Players))
	for _, p := range l.Players {
		players = append(players, lobbyPlayerDTO{
			UserID:      p.UserID,
			AccountID:   p.AccountID,
			Rating:      p.Rating,
			CaptainRank: p.CaptainRank,
			Ready:       p.Ready,
			Faction:     int(p.Faction),
		})
	}

	out := lobbyDTO{
		ID:            l.ID,
		GuildID:       l.GuildID,
		SeasonID:      l.SeasonID,
		State:         string(l.State),
		Players:       players,
		Picks:         l.Picks,
		BotID:         l.BotID,
		Winner:        int(l.Winner),
		CancelReason:  string(l.CancelReason),
		ReadyDeadline: l.ReadyDeadline,
		BotDeadline:   l.BotDeadline,
		CreatedAt:     l.CreatedAt,
		FinishedAt:    l.FinishedAt,
	}
	if l.Captains[0] != "" {
		out.Captains = []string{l.Captains[0], l.Captains[1]}
	}
	return out
}

func lobbiesToDTO(lobbies []lobby.Lobby) []lobbyDTO {
	out := make([]lobbyDTO, 0, len(lobbies))
	for _, l := range lobbies {
		out = append(out, lobbyToDTO(l))
	}
	return out
}

func ratingChangesToDTO(changes []user.RatingChange) []ratingChangeDTO {
	out := make([]ratingChangeDTO, 0, len(changes))
	for _, c := range changes {
		out = append(out, ratingChangeDTO{UserID: c.UserID, Before: c.Before, After: c.After, Won: c.Won})
	}
	return out
}

func botToDTO(b bot.Bot) botDTO {
	return botDTO{
		ID:        b.ID,
		Name:      b.Name,
		LobbyID:   b.LobbyID,
		Failed:    b.Failed,
		Disabled:  b.Disabled,
		Available: b.Available(),
	}
}

func reputationToDTO(s reputation.Summary) reputationDTO {
	return reputationDTO{RecipientID: s.RecipientID, SeasonCount: s.SeasonCount, TotalCount: s.TotalCount}
}

func standingsToDTO(rows []user.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(rows))
	for i, s := range rows {
		out = append(out, standingDTO{
			Rank:      i + 1,
			UserID:    s.UserID,
			AccountID: s.AccountID,
			Rating:    s.Rating,
			Wins:      s.Wins,
			Losses:    s.Losses,
		})
	}
	return out
}

func leagueToDTO(l league.League) leagueDTO {
	return leagueDTO{
		GuildID:              l.GuildID,
		CurrentSeasonID:      l.CurrentSeasonID,
		ReadyCheckTimeoutMS:  l.ReadyCheckTimeout.Milliseconds(),
		CaptainRankThreshold: l.CaptainRankThreshold,
		CaptainRoleRegexp:    l.CaptainRoleRegexp,
		CategoryName:         l.CategoryName,
		ChannelName:          l.ChannelName,
		AdminRoleName:        l.AdminRoleName,
		InitialRating:        l.InitialRating,
		LobbySize:            l.LobbySize,
		EloK:                 l.EloK,
		BotWaitTimeoutMS:     l.BotWaitTimeout.Milliseconds(),
		DraftMode:            string(l.DraftMode),
	}
}

func seasonToDTO(s season.Season) seasonDTO {
	return seasonDTO{ID: s.ID, Name: s.Name, Active: s.Active, StartedAt: s.StartedAt, EndedAt: s.EndedAt}
}

func pendingResultToDTO(p usecase.PendingResult) pendingResultDTO {
	return pendingResultDTO{
		Lobby:     lobbyToDTO(p.Lobby),
		Changes:   ratingChangesToDTO(p.Result.Changes),
		LastError: p.LastError,
		FailedAt:  p.FailedAt,
		Attempts:  p.Attempts,
	}
}

func (r updateLeagueRequest) toInput(guildID string) usecase.UpdateLeagueInput {
	input := usecase.UpdateLeagueInput{
		GuildID:              guildID,
		CaptainRankThreshold: r.CaptainRankThreshold,
		CaptainRoleRegexp:    r.CaptainRoleRegexp,
		CategoryName:         r.CategoryName,
		ChannelName:          r.ChannelName,
		AdminRoleName:        r.AdminRoleName,
		InitialRating:        r.InitialRating,
		LobbySize:            r.LobbySize,
		EloK:                 r.EloK,
	}
	if r.ReadyCheckTimeoutMS != nil {
		d := time.Duration(*r.ReadyCheckTimeoutMS) * time.Millisecond
		input.ReadyCheckTimeout = &d
	}
	if r.BotWaitTimeoutMS != nil {
		d := time.Duration(*r.BotWaitTimeoutMS) * time.Millisecond
		input.BotWaitTimeout = &d
	}
	if r.DraftMode != nil {
		mode := league.DraftMode(*r.DraftMode)
		input.DraftMode = &mode
	}
	return input
}
