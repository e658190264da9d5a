package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/chat"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/logging"
)

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"providers": s.cfg.Registry.Catalog(),
	})
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	gw, apiErr := s.gateway(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	url := gw.AuthURL("")
	if url == "" {
		writeError(w, UpstreamError("Failed to generate authorization URL", nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"authUrl": url,
		"message": "Visit this URL to authorize the application",
	})
}

// handleCallback returns the exchanged tokens to API clients that manage
// their own credentials.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if oauthErr := q.Get("error"); oauthErr != "" {
		details := q.Get("error_description")
		if details == "" {
			details = oauthErr
		}
		writeError(w, ValidationError("OAuth authorization failed").WithDetails(details))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, ValidationError("Authorization code is required").
			WithDetails(`The "code" query parameter is missing or invalid. Did you complete the authorization flow?`))
		return
	}

	gw, apiErr := s.gateway(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	tokens, err := gw.ExchangeCode(r.Context(), code)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Warn("code exchange failed", logging.Provider(gw.Name()), logging.Err(err))
		writeError(w, UpstreamError("Failed to exchange authorization code", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Authorization successful",
		"tokens": map[string]any{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expiry_date":   tokens.ExpiryMillis(),
		},
		"instructions": "Store these tokens securely and use the access_token in subsequent requests",
	})
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	args := chat.RangeArgs{Date: q.Get("date"), StartDate: q.Get("startDate"), EndDate: q.Get("endDate")}
	start, end, err := args.DateFirstRange()
	switch {
	case errors.Is(err, chat.ErrMissingRange):
		writeError(w, ValidationError(`Either "date" or both "startDate" and "endDate" query parameters are required`))
		return
	case err != nil:
		writeError(w, ValidationError(msgInvalidDate))
		return
	}

	appointments, err := gw.ListAppointments(r.Context(), start, end, token)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("failed to fetch appointments", logging.Provider(gw.Name()), logging.Err(err))
		writeError(w, UpstreamError("Failed to fetch appointments", err))
		return
	}
	if appointments == nil {
		appointments = []calendar.Appointment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(appointments),
		"appointments": appointments,
	})
}

func (s *Server) handleUpdateColor(w http.ResponseWriter, r *http.Request) {
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("eventId")
	colorID, ok := readBody(w, r).str("colorId")
	if !ok || colorID == "" {
		writeError(w, ValidationError("colorId is required in request body").
			WithExample(map[string]string{"colorId": "9"}).
			With("availableColors", "Color IDs range from 1-11. Each represents a different color in Google Calendar."))
		return
	}

	ctx, span := instrumentation.StartToolSpan(r.Context(), "update_appointment_color")
	appointment, err := gw.UpdateColor(ctx, eventID, colorID, token)
	instrumentation.EndSpan(span, err)

	s.cfg.Audit.LogToolInvocation(instrumentation.NewToolInvocation("update_appointment_color").
		WithSession(logging.Fingerprint(token)).
		WithProvider(gw.Name(), instrumentation.OperationUpdateColor).
		WithResource(eventID).
		WithSpanContext(ctx).
		Complete(err))

	if err != nil {
		loggerFrom(r.Context(), s.logger).Warn("failed to update appointment color",
			logging.Provider(gw.Name()), slog.String("event_id", eventID), logging.Err(err))
		writeError(w, UpstreamError("Failed to update appointment color", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Appointment color updated successfully",
		"appointment": appointment,
	})
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	palette, err := gw.Colors(r.Context(), token)
	if err != nil {
		writeError(w, UpstreamError("Failed to fetch colors", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"colors":  palette.Colors(),
	})
}
