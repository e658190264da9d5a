package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/llm"
	"github.com/teemow/calhighlight/internal/logging"
)

// Bounds on the size of a suggested category set.
const (
	MinCategories = 4
	MaxCategories = 6
)

// NoEventsSummary is returned by Categorize for an empty date range.
const NoEventsSummary = "No events found in the specified date range."

var (
	// ErrInvalidSuggestion is returned when model output breaks the
	// category set rules.
	ErrInvalidSuggestion = errors.New("invalid category suggestion")

	// ErrNoCategories is returned when Categorize is called without categories.
	ErrNoCategories = errors.New("at least one category is required")
)

// AppointmentSource lists appointments in a time range. *calendar.Gateway
// implements it.
type AppointmentSource interface {
	ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]calendar.Appointment, error)
}

// Model produces schema-constrained output. *llm.Client implements it.
type Model interface {
	Structured(ctx context.Context, name string, schema jsonschema.Definition, messages []openai.ChatCompletionMessage, out any) error
}

// Engine runs category suggestion and event categorization.
type Engine struct {
	model  Model
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(model Model, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{model: model, logger: logger, now: time.Now}
}

// SuggestRequest is one round of the suggestion conversation.
type SuggestRequest struct {
	Message     string
	History     []Message
	AccessToken string
}

// SuggestResult is the model's category set for one round. Summary is set
// only in the initial phase.
type SuggestResult struct {
	Categories  []Category
	Explanation string
	Phase       Phase
	Summary     *CalendarDataSummary
}

type suggestionOutput struct {
	Categories  []Category `json:"categories"`
	Explanation string     `json:"explanation"`
}

// Suggest runs one suggestion round. The initial round reads the last three
// months from src; refinement rounds rely on the replayed history only.
func (e *Engine) Suggest(ctx context.Context, src AppointmentSource, req SuggestRequest) (SuggestResult, error) {
	now := e.now()
	phase := ResolvePhase(req.Message, req.History)
	logger := logging.WithOperation(e.logger, "categories.suggest").With(logging.Phase(string(phase)))

	result := SuggestResult{Phase: phase}
	var system string
	if phase == PhaseInitial {
		end := calendar.EndOfDay(now)
		start := calendar.StartOfDay(now.AddDate(0, -3, 0))

		appointments, err := src.ListAppointments(ctx, start, end, req.AccessToken)
		if err != nil {
			return SuggestResult{}, fmt.Errorf("failed to fetch calendar history: %w", err)
		}
		summary := Summarize(appointments, start, end)
		result.Summary = &summary
		system = buildInitialPrompt(now, FormatForModel(appointments))

		logger.Debug("calendar history fetched", slog.Int("events", len(appointments)))
	} else {
		system = buildRefinementPrompt(now)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, llm.SystemMessage(system))
	messages = append(messages, historyMessages(req.History)...)
	if strings.TrimSpace(req.Message) != "" {
		messages = append(messages, llm.UserMessage(req.Message))
	}

	var out suggestionOutput
	if err := e.model.Structured(ctx, suggestionSchemaName, suggestionSchema(), messages, &out); err != nil {
		return SuggestResult{}, err
	}
	if err := validateSuggestion(out.Categories); err != nil {
		logger.Warn("model returned an invalid category set", logging.Err(err))
		return SuggestResult{}, err
	}

	result.Categories = out.Categories
	result.Explanation = out.Explanation
	logger.Info("categories suggested", slog.Int("count", len(out.Categories)))
	return result, nil
}

func historyMessages(history []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		switch m := m.(type) {
		case UserMessage:
			out = append(out, llm.UserMessage(m.Content))
		case AssistantMessage:
			content := m.Content
			if len(m.Categories) > 0 {
				content = previousCategories(m.Categories) + content
			}
			out = append(out, llm.AssistantMessage(content))
		case SystemMessage:
			out = append(out, llm.SystemMessage(m.Content))
		}
	}
	return out
}

func validateSuggestion(cats []Category) error {
	if n := len(cats); n < MinCategories || n > MaxCategories {
		return fmt.Errorf("%w: expected %d-%d categories, got %d", ErrInvalidSuggestion, MinCategories, MaxCategories, n)
	}
	names := make(map[string]bool, len(cats))
	colors := make(map[string]bool, len(cats))
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: category without a name", ErrInvalidSuggestion)
		}
		if !slices.Contains(ColorIDs, c.ColorID) {
			return fmt.Errorf("%w: unknown color id %q", ErrInvalidSuggestion, c.ColorID)
		}
		key := strings.ToLower(c.Name)
		if names[key] {
			return fmt.Errorf("%w: duplicate category name %q", ErrInvalidSuggestion, c.Name)
		}
		if colors[c.ColorID] {
			return fmt.Errorf("%w: duplicate color id %q", ErrInvalidSuggestion, c.ColorID)
		}
		names[key] = true
		colors[c.ColorID] = true
	}
	return nil
}

// CategorizeRequest asks for every event in [Start, End] to be assigned to
// one of Categories.
type CategorizeRequest struct {
	Categories  []Category
	Start       time.Time
	End         time.Time
	AccessToken string
}

// CategorizedEvent is one event with its assigned category, or nil when the
// model gave none or named a category outside the set.
type CategorizedEvent struct {
	Event             calendar.Appointment `json:"event"`
	SuggestedCategory *Category            `json:"suggestedCategory"`
	Confidence        Confidence           `json:"confidence"`
}

// CategorizeResult holds one entry per fetched event, in fetch order.
type CategorizeResult struct {
	Events  []CategorizedEvent
	Summary string
}

type categorization struct {
	EventID               string     `json:"eventId"`
	SuggestedCategoryName string     `json:"suggestedCategoryName"`
	Confidence            Confidence `json:"confidence"`
}

type categorizationOutput struct {
	Categorizations []categorization `json:"categorizations"`
	Summary         string           `json:"summary"`
}

// Categorize assigns events from src to the requested categories. An empty
// range returns without calling the model.
func (e *Engine) Categorize(ctx context.Context, src AppointmentSource, req CategorizeRequest) (CategorizeResult, error) {
	if len(req.Categories) == 0 {
		return CategorizeResult{}, ErrNoCategories
	}
	logger := logging.WithOperation(e.logger, "categories.categorize")

	appointments, err := src.ListAppointments(ctx, req.Start, req.End, req.AccessToken)
	if err != nil {
		return CategorizeResult{}, fmt.Errorf("failed to fetch events: %w", err)
	}
	if len(appointments) == 0 {
		return CategorizeResult{Events: []CategorizedEvent{}, Summary: NoEventsSummary}, nil
	}

	messages := []openai.ChatCompletionMessage{
		llm.SystemMessage(buildCategorizationPrompt(e.now(), req.Categories, appointments)),
	}
	var out categorizationOutput
	if err := e.model.Structured(ctx, categorizationSchemaName, categorizationSchema(), messages, &out); err != nil {
		return CategorizeResult{}, err
	}

	events := reconcile(appointments, req.Categories, out.Categorizations)
	logger.Info("events categorized",
		slog.Int("events", len(events)),
		slog.Int("assignments", len(out.Categorizations)))
	return CategorizeResult{Events: events, Summary: out.Summary}, nil
}

// reconcile pairs every fetched appointment with the model's assignment.
// The first assignment for an event id wins.
func reconcile(appointments []calendar.Appointment, cats []Category, assigned []categorization) []CategorizedEvent {
	byID := make(map[string]categorization, len(assigned))
	for _, a := range assigned {
		if _, seen := byID[a.EventID]; !seen {
			byID[a.EventID] = a
		}
	}

	out := make([]CategorizedEvent, 0, len(appointments))
	for _, appt := range appointments {
		entry := CategorizedEvent{Event: appt, Confidence: ConfidenceLow}
		if a, ok := byID[appt.ID]; ok {
			if a.Confidence.valid() {
				entry.Confidence = a.Confidence
			}
			entry.SuggestedCategory = matchCategory(cats, a.SuggestedCategoryName)
		}
		out = append(out, entry)
	}
	return out
}

func matchCategory(cats []Category, name string) *Category {
	for i := range cats {
		if strings.EqualFold(cats[i].Name, name) {
			c := cats[i]
			return &c
		}
	}
	return nil
}
