package league

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DraftMode controls how non-captain players are distributed.
type DraftMode string

const (
	DraftModeCaptains DraftMode = "captains"
	DraftModeAuto     DraftMode = "auto"
)

const (
	DefaultReadyCheckTimeout    = 60 * time.Second
	DefaultCaptainRankThreshold = 3
	DefaultCaptainRoleRegexp    = "Tier ([0-9]+) Captain"
	DefaultCategoryName         = "inhouses"
	DefaultChannelName          = "general"
	DefaultAdminRoleName        = "Inhouse Admin"
	DefaultInitialRating        = 1000
	DefaultLobbySize            = 10
	DefaultEloK                 = 32
	DefaultBotWaitTimeout       = 10 * time.Minute
)

// League is the inhouse configuration owned by one guild.
type League struct {
	GuildID              string
	CurrentSeasonID      string
	ReadyCheckTimeout    time.Duration
	CaptainRankThreshold int
	CaptainRoleRegexp    string
	CategoryName         string
	ChannelName          string
	AdminRoleName        string
	InitialRating        int
	LobbySize            int
	EloK                 int
	BotWaitTimeout       time.Duration
	DraftMode            DraftMode
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Default returns the configuration a guild starts with.
func Default(guildID string) League {
	return League{
		GuildID:              guildID,
		ReadyCheckTimeout:    DefaultReadyCheckTimeout,
		CaptainRankThreshold: DefaultCaptainRankThreshold,
		CaptainRoleRegexp:    DefaultCaptainRoleRegexp,
		CategoryName:         DefaultCategoryName,
		ChannelName:          DefaultChannelName,
		AdminRoleName:        DefaultAdminRoleName,
		InitialRating:        DefaultInitialRating,
		LobbySize:            DefaultLobbySize,
		EloK:                 DefaultEloK,
		BotWaitTimeout:       DefaultBotWaitTimeout,
		DraftMode:            DraftModeCaptains,
	}
}

func (l League) Validate() error {
	if strings.TrimSpace(l.GuildID) == "" {
		return fmt.Errorf("league guild id is required")
	}
	if l.ReadyCheckTimeout <= 0 {
		return fmt.Errorf("league ready check timeout must be > 0")
	}
	if l.CaptainRankThreshold < 0 {
		return fmt.Errorf("league captain rank threshold must be >= 0")
	}
	if _, err := regexp.Compile(l.CaptainRoleRegexp); err != nil {
		return fmt.Errorf("league captain role regexp: %w", err)
	}
	if l.InitialRating <= 0 {
		return fmt.Errorf("league initial rating must be > 0")
	}
	if l.LobbySize < 2 || l.LobbySize%2 != 0 {
		return fmt.Errorf("league lobby size must be an even number >= 2, got %d", l.LobbySize)
	}
	if l.EloK <= 0 {
		return fmt.Errorf("league elo k must be > 0")
	}
	if l.BotWaitTimeout <= 0 {
		return fmt.Errorf("league bot wait timeout must be > 0")
	}
	switch l.DraftMode {
	case DraftModeCaptains, DraftModeAuto:
	default:
		return fmt.Errorf("invalid league draft mode %q", l.DraftMode)
	}

	return nil
}

// CaptainRank extracts the best (lowest) captain tier from role names.
// Zero means the member holds no captain role.
func (l League) CaptainRank(roleNames []string) int {
	pattern, err := regexp.Compile(l.CaptainRoleRegexp)
	if err != nil {
		return 0
	}

	best := 0
	for _, name := range roleNames {
		match := pattern.FindStringSubmatch(name)
		if len(match) < 2 {
			continue
		}
		rank, err := strconv.Atoi(match[1])
		if err != nil || rank <= 0 {
			continue
		}
		if best == 0 || rank < best {
			best = rank
		}
	}

	return best
}
