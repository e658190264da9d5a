package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/categories"
	"github.com/teemow/calhighlight/internal/chat"
	"github.com/teemow/calhighlight/internal/logging"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Assistant == nil {
		writeError(w, UnavailableError(msgAINotConfigured))
		return
	}
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	body := readBody(w, r)
	message, ok := body.str("message")
	if !ok || strings.TrimSpace(message) == "" {
		writeError(w, ValidationError("message is required in request body").
			WithExample(map[string]any{
				"message":             "What do I have on my calendar today?",
				"conversationHistory": []any{},
			}))
		return
	}

	var history []chat.Turn
	if body.has("conversationHistory") {
		if err := body.decode("conversationHistory", &history); err != nil {
			writeError(w, ValidationError("conversationHistory must be an array"))
			return
		}
	}

	response, err := s.cfg.Assistant.Chat(r.Context(), gw, message, history, token)
	if errors.Is(err, chat.ErrInvalidHistory) {
		writeError(w, ValidationError("conversationHistory must be an array").WithDetails(err.Error()))
		return
	}
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("chat failed", logging.Provider(gw.Name()), logging.Err(err))
		writeError(w, UpstreamError("Failed to process chat message", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": response,
		"message":  "Chat response generated successfully",
	})
}

func (s *Server) handleSuggestCategories(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Categories == nil {
		writeError(w, UnavailableError(msgAINotConfigured))
		return
	}
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	body := readBody(w, r)
	message, _ := body.str("message")

	var history categories.History
	if body.has("conversationHistory") {
		if err := body.decode("conversationHistory", &history); err != nil {
			writeError(w, ValidationError("conversationHistory must be an array").
				WithDetails(err.Error()).
				WithExample(map[string]any{
					"message":             "I want more specific categories",
					"conversationHistory": []any{},
				}))
			return
		}
	}

	result, err := s.cfg.Categories.Suggest(r.Context(), gw, categories.SuggestRequest{
		Message:     message,
		History:     history,
		AccessToken: token,
	})
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("category suggestion failed", logging.Provider(gw.Name()), logging.Err(err))
		writeError(w, UpstreamError("Failed to generate category suggestions", err))
		return
	}

	resp := map[string]any{
		"success":    true,
		"categories": result.Categories,
		"message":    result.Explanation,
		"phase":      result.Phase,
	}
	if result.Summary != nil {
		resp["calendarDataSummary"] = result.Summary
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategorizeEvents(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Categories == nil {
		writeError(w, UnavailableError(msgAINotConfigured))
		return
	}
	gw, token, ok := s.calendarRequest(w, r)
	if !ok {
		return
	}

	body := readBody(w, r)
	var cats []categories.Category
	if !body.has("categories") || body.decode("categories", &cats) != nil || !validCategories(cats) {
		writeError(w, ValidationError("categories is required and must be a non-empty array").
			WithExample(map[string]any{
				"categories": []categories.Category{
					{Name: "Meetings", ColorID: "9", Description: "Team meetings and syncs"},
				},
				"startDate": "2025-01-01",
				"endDate":   "2025-01-31",
			}))
		return
	}

	startDate, _ := body.str("startDate")
	endDate, _ := body.str("endDate")
	if startDate == "" || endDate == "" {
		writeError(w, ValidationError("startDate and endDate are required (format: YYYY-MM-DD)"))
		return
	}
	start, err := calendar.ParseDate(startDate)
	if err != nil {
		writeError(w, ValidationError(msgInvalidDate))
		return
	}
	end, err := calendar.ParseDate(endDate)
	if err != nil {
		writeError(w, ValidationError(msgInvalidDate))
		return
	}

	result, err := s.cfg.Categories.Categorize(r.Context(), gw, categories.CategorizeRequest{
		Categories:  cats,
		Start:       start,
		End:         calendar.EndOfDay(end),
		AccessToken: token,
	})
	if err != nil {
		loggerFrom(r.Context(), s.logger).Error("categorization failed", logging.Provider(gw.Name()), logging.Err(err))
		writeError(w, UpstreamError("Failed to categorize events", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"categorizedEvents": result.Events,
		"summary":           result.Summary,
	})
}

func validCategories(cats []categories.Category) bool {
	if len(cats) == 0 {
		return false
	}
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			return false
		}
	}
	return true
}
