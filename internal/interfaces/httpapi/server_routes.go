package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerGuildRoutes(mux *http.ServeMux, handler *Handler, serviceToken string) {
	guarded := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireServiceToken(serviceToken, fn))
	}

	guarded("GET /v1/leagues", handler.ListLeagues)

	registerQueueRoutes(guarded, handler)
	registerLobbyRoutes(guarded, handler)
	registerBotRoutes(guarded, handler)
	registerLeagueRoutes(guarded, handler)

	guarded("GET /v1/guilds/{guildID}/events", handler.StreamEvents)
}

type routeFunc func(pattern string, fn http.HandlerFunc)

func registerQueueRoutes(route routeFunc, handler *Handler) {
	route("GET /v1/guilds/{guildID}/queue", handler.GetQueue)
	route("POST /v1/guilds/{guildID}/queue/join", handler.JoinQueue)
	route("POST /v1/guilds/{guildID}/queue/leave", handler.LeaveQueue)
	route("POST /v1/guilds/{guildID}/queue/ban", handler.BanFromQueue)
	route("POST /v1/guilds/{guildID}/ready", handler.ConfirmReady)
	route("POST /v1/guilds/{guildID}/picks", handler.PickPlayer)
}

func registerLobbyRoutes(route routeFunc, handler *Handler) {
	route("GET /v1/guilds/{guildID}/lobbies", handler.ListActiveLobbies)
	route("GET /v1/guilds/{guildID}/lobbies/history", handler.LobbyHistory)
	route("GET /v1/guilds/{guildID}/lobbies/{lobbyID}", handler.GetLobby)
	route("POST /v1/guilds/{guildID}/lobbies/{lobbyID}/start", handler.StartMatch)
	route("POST /v1/guilds/{guildID}/lobbies/{lobbyID}/result", handler.ReportResult)
	route("POST /v1/guilds/{guildID}/lobbies/{lobbyID}/abort", handler.AbortLobby)
	route("GET /v1/guilds/{guildID}/reconciliations", handler.ListReconciliations)
	route("POST /v1/guilds/{guildID}/reconciliations/{lobbyID}/retry", handler.RetryReconciliation)
}

func registerBotRoutes(route routeFunc, handler *Handler) {
	route("GET /v1/guilds/{guildID}/bots", handler.ListBots)
	route("POST /v1/guilds/{guildID}/bots", handler.RegisterBot)
	route("POST /v1/guilds/{guildID}/bots/{botID}/failure", handler.ReportBotFailure)
	route("POST /v1/guilds/{guildID}/bots/{botID}/restore", handler.RestoreBot)
}

func registerLeagueRoutes(route routeFunc, handler *Handler) {
	route("GET /v1/guilds/{guildID}/league", handler.GetLeague)
	route("PATCH /v1/guilds/{guildID}/league", handler.UpdateLeague)
	route("GET /v1/guilds/{guildID}/seasons", handler.ListSeasons)
	route("POST /v1/guilds/{guildID}/seasons", handler.StartSeason)
	route("POST /v1/guilds/{guildID}/reputation", handler.GiveReputation)
	route("GET /v1/guilds/{guildID}/reputation/{accountID}", handler.GetReputation)
	route("GET /v1/guilds/{guildID}/leaderboard", handler.Leaderboard)
}
