package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/llm"
	"github.com/teemow/calhighlight/internal/logging"
)

// ErrInvalidHistory is returned for history entries that are not user or
// assistant turns.
var ErrInvalidHistory = errors.New("conversation history entries must have role user or assistant")

// Turn is one earlier exchange in a chat conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Model runs a chat turn with tools. *llm.Client implements it.
type Model interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Assistant answers scheduling questions about one calendar.
type Assistant struct {
	model   Model
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAssistant creates an Assistant. metrics may be nil.
func NewAssistant(model Model, metrics *instrumentation.Metrics, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{model: model, metrics: metrics, logger: logger, now: time.Now}
}

// Chat answers message given the earlier turns. When the model asks for
// appointments, every requested call is executed and the model is asked
// once more for the final answer.
func (a *Assistant) Chat(ctx context.Context, src AppointmentSource, message string, history []Turn, accessToken string) (string, error) {
	logger := logging.WithOperation(a.logger, "chat")

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(systemPrompt(a.now())))
	for _, t := range history {
		switch t.Role {
		case openai.ChatMessageRoleUser:
			messages = append(messages, llm.UserMessage(t.Content))
		case openai.ChatMessageRoleAssistant:
			messages = append(messages, llm.AssistantMessage(t.Content))
		default:
			return "", fmt.Errorf("%w: got %q", ErrInvalidHistory, t.Role)
		}
	}
	messages = append(messages, llm.UserMessage(message))

	tools := []openai.Tool{appointmentsTool()}
	reply, err := a.model.Chat(ctx, messages, tools)
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content, nil
	}

	logger.Debug("model requested tools", slog.Int("tool_calls", len(reply.ToolCalls)))
	messages = append(messages, reply)
	for _, call := range reply.ToolCalls {
		messages = append(messages, llm.ToolMessage(call.ID, a.runTool(ctx, src, accessToken, call)))
	}

	final, err := a.model.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

func (a *Assistant) runTool(ctx context.Context, src AppointmentSource, accessToken string, call openai.ToolCall) string {
	name := call.Function.Name
	ctx, span := instrumentation.StartToolSpan(ctx, name)
	start := time.Now()

	var (
		out string
		err error
	)
	if name != AppointmentsToolName {
		err = fmt.Errorf("unknown tool %q", name)
		out = "Error: " + err.Error()
	} else {
		var args RangeArgs
		args, err = decodeRangeArgs(call.Function.Arguments)
		if err != nil {
			out = "Error fetching appointments: " + err.Error()
		} else {
			out, err = FetchAppointments(ctx, src, accessToken, args)
		}
	}

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		logging.WithTool(a.logger, name).Warn("tool call failed", logging.Err(err))
	}
	a.metrics.RecordToolInvocation(ctx, name, status, logging.Fingerprint(accessToken), time.Since(start))
	instrumentation.EndSpan(span, err)
	return out
}

func systemPrompt(now time.Time) string {
	now = now.In(time.Local)
	today := calendar.FormatDate(now)
	tomorrow := calendar.FormatDate(now.AddDate(0, 0, 1))
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 6)
	sunday, saturday := calendar.FormatDate(weekStart), calendar.FormatDate(weekEnd)

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant with access to the user's Google Calendar.\n")
	b.WriteString("You can help users with their schedule, meetings, and appointments.\n\n")
	fmt.Fprintf(&b, "Current date and time: %s\n\n", now.Format("Monday, January 2, 2006 at 3:04 PM"))
	b.WriteString(`When users ask about their schedule:
- ALWAYS use the get_calendar_appointments tool to fetch their appointments
- Provide clear, conversational summaries
- Include relevant details like times, locations, and attendees
- Be proactive in suggesting useful information

IMPORTANT: For date queries, you MUST use these exact formats when calling the tool:

Single day queries (use "date" parameter):
`)
	fmt.Fprintf(&b, "- \"today\" = %s\n", today)
	fmt.Fprintf(&b, "- \"tomorrow\" = %s\n\n", tomorrow)
	b.WriteString("Date range queries (use \"startDate\" and \"endDate\" parameters):\n")
	fmt.Fprintf(&b, "- \"this week\" = startDate: %s, endDate: %s\n", sunday, saturday)
	b.WriteString("- For any multi-day period, calculate the start and end dates and use both parameters\n\n")
	b.WriteString("Examples:\n")
	fmt.Fprintf(&b, "- \"What do I have today?\" → Call tool with date=\"%s\"\n", today)
	fmt.Fprintf(&b, "- \"Show my calendar this week\" → Call tool with startDate=\"%s\" and endDate=\"%s\"", sunday, saturday)
	return b.String()
}
