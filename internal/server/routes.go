package server

import (
	"net/http"
)

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /api/calendar/providers", s.handleProviders)
	mux.HandleFunc("GET /api/calendar/auth", s.handleAuthURL)
	mux.HandleFunc("GET /api/calendar/callback", s.handleCallback)
	mux.HandleFunc("GET /api/calendar/appointments", s.handleAppointments)
	mux.HandleFunc("PATCH /api/calendar/appointments/{eventId}/color", s.handleUpdateColor)
	mux.HandleFunc("GET /api/calendar/colors", s.handleColors)

	mux.HandleFunc("POST /api/calendar/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/calendar/suggest-categories", s.handleSuggestCategories)
	mux.HandleFunc("POST /api/calendar/categorize-events", s.handleCategorizeEvents)

	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleLoginCallback)
	mux.HandleFunc("GET /auth/session", s.handleSession)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, NotFoundError(msgNotFound))
	})
}

var endpointDocs = map[string]string{
	"providers":         "GET /api/calendar/providers - List calendar providers",
	"auth":              "GET /api/calendar/auth - Get authorization URL",
	"callback":          "GET /api/calendar/callback?code=... - OAuth callback",
	"appointments":      "GET /api/calendar/appointments?date=YYYY-MM-DD - Get appointments",
	"appointmentsRange": "GET /api/calendar/appointments?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD - Get appointments in range",
	"updateColor":       `PATCH /api/calendar/appointments/:eventId/color - Update appointment color (body: {colorId: "1-11"})`,
	"colors":            "GET /api/calendar/colors - List the event color palette",
	"chat":              "POST /api/chat - Chat with AI assistant about your calendar (body: {message: string})",
	"suggestCategories": "POST /api/calendar/suggest-categories - AI-powered category suggestions (body: {message?: string, conversationHistory?: array})",
	"categorizeEvents":  "POST /api/calendar/categorize-events - Categorize events using AI (body: {categories: Category[], startDate: string, endDate: string})",
	"login":             "GET /auth/login - Start browser login",
	"session":           "GET /auth/session - Current session state",
	"logout":            "POST /auth/logout - End the browser session",
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Calendar API Server",
		"version":   s.cfg.Version,
		"endpoints": endpointDocs,
	})
}
