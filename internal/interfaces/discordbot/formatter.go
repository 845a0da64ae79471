package discordbot

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

func mentions(accountIDs []string) string {
	out := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		out = append(out, mention(id))
	}
	return strings.Join(out, " ")
}

var cancelReasons = map[lobby.CancelReason]string{
	lobby.ReasonReadyCheckTimeout: "not everyone readied up in time",
	lobby.ReasonPlayerRemoved:     "a player was removed",
	lobby.ReasonNoBotAvailable:    "no bot became available",
	lobby.ReasonBotFailure:        "the hosting bot failed",
	lobby.ReasonMatchAborted:      "the match was aborted",
}

// formatEvent renders a lifecycle event for the league channel. Empty means
// the event is not announced.
func formatEvent(event lobby.Event) string {
	id := "`" + event.LobbyID + "`"
	switch event.Type {
	case lobby.EventLobbyFormed:
		return fmt.Sprintf("Lobby %s formed: %s", id, mentions(event.Players))
	case lobby.EventReadyCheckStarted:
		if event.Deadline == nil {
			return fmt.Sprintf("Ready check for lobby %s. Type `/ready`.", id)
		}
		return fmt.Sprintf("Ready check for lobby %s. Type `/ready` <t:%d:R>.", id, event.Deadline.Unix())
	case lobby.EventPlayerReady:
		return fmt.Sprintf("%s is ready.", mention(event.AccountID))
	case lobby.EventPlayerPicked:
		return fmt.Sprintf("%s was drafted in lobby %s.", mention(event.AccountID), id)
	case lobby.EventDraftCompleted:
		var b strings.Builder
		fmt.Fprintf(&b, "Teams for lobby %s", id)
		for side, team := range event.Teams {
			fmt.Fprintf(&b, "\nFaction %d: %s", side+1, mentions(team))
		}
		return b.String()
	case lobby.EventBotAssigned:
		return fmt.Sprintf("Bot `%s` is hosting lobby %s.", event.BotID, id)
	case lobby.EventMatchStarted:
		return fmt.Sprintf("Lobby %s match started.", id)
	case lobby.EventMatchCompleted:
		return fmt.Sprintf("Lobby %s finished. Faction %d wins!", id, int(event.Winner))
	case lobby.EventLobbyCancelled:
		reason, ok := cancelReasons[event.Reason]
		if !ok {
			reason = string(event.Reason)
		}
		return fmt.Sprintf("Lobby %s cancelled: %s.", id, reason)
	default:
		return ""
	}
}
