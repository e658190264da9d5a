package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calhighlight/internal/calendar"
	"github.com/teemow/calhighlight/internal/llm"
)

// Wednesday.
var fixedNow = local(2025, time.December, 17, 15, 4)

func newTestAssistant(fake *llm.ScriptedCompleter) *Assistant {
	a := NewAssistant(llm.New(fake), nil, nil)
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestSystemPrompt(t *testing.T) {
	p := systemPrompt(fixedNow)
	assert.True(t, strings.HasPrefix(p, "You are a helpful AI assistant with access to the user's Google Calendar.\n"))
	assert.Contains(t, p, "Current date and time: Wednesday, December 17, 2025 at 3:04 PM\n")
	assert.Contains(t, p, `- "today" = 2025-12-17`)
	assert.Contains(t, p, `- "tomorrow" = 2025-12-18`)
	assert.Contains(t, p, `- "this week" = startDate: 2025-12-14, endDate: 2025-12-20`)
	assert.Contains(t, p, `Call tool with date="2025-12-17"`)
}

func TestChat_DirectAnswer(t *testing.T) {
	fake := (&llm.ScriptedCompleter{}).Reply("Hello! How can I help?")
	src := &fakeSource{}

	out, err := newTestAssistant(fake).Chat(context.Background(), src, "hi",
		[]Turn{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", out)
	assert.Zero(t, src.calls)

	require.Equal(t, 1, fake.Calls())
	req := fake.Requests[0]
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "earlier", req.Messages[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "hi", req.Messages[3].Content)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, AppointmentsToolName, req.Tools[0].Function.Name)
}

func TestChat_ToolRound(t *testing.T) {
	fake := (&llm.ScriptedCompleter{}).
		ReplyMessage(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{
				{ID: "call_1", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{
					Name: AppointmentsToolName, Arguments: `{"date":"2025-12-17"}`,
				}},
				{ID: "call_2", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{
					Name: AppointmentsToolName, Arguments: `{}`,
				}},
			},
		}).
		Reply("You have a standup at 9.")
	src := &fakeSource{appts: []calendar.Appointment{{
		Summary:   "Standup",
		StartTime: local(2025, time.December, 17, 9, 0),
		EndTime:   local(2025, time.December, 17, 9, 15),
	}}}

	out, err := newTestAssistant(fake).Chat(context.Background(), src, "what is on today?", nil, "tok")
	require.NoError(t, err)
	assert.Equal(t, "You have a standup at 9.", out)
	assert.Equal(t, 1, src.calls)

	require.Equal(t, 2, fake.Calls())
	second := fake.Requests[1]
	assert.Empty(t, second.Tools)
	require.Len(t, second.Messages, 5)
	assert.Len(t, second.Messages[2].ToolCalls, 2)

	first := second.Messages[3]
	assert.Equal(t, openai.ChatMessageRoleTool, first.Role)
	assert.Equal(t, "call_1", first.ToolCallID)
	assert.True(t, strings.HasPrefix(first.Content, "Found 1 appointment(s):"))

	failed := second.Messages[4]
	assert.Equal(t, "call_2", failed.ToolCallID)
	assert.Equal(t, "Error fetching appointments: "+ErrMissingRange.Error(), failed.Content)
}

func TestChat_Errors(t *testing.T) {
	t.Run("invalid history", func(t *testing.T) {
		fake := &llm.ScriptedCompleter{}
		_, err := newTestAssistant(fake).Chat(context.Background(), &fakeSource{}, "hi",
			[]Turn{{Role: "tool", Content: "x"}}, "tok")
		assert.ErrorIs(t, err, ErrInvalidHistory)
		assert.Zero(t, fake.Calls())
	})

	t.Run("model failure", func(t *testing.T) {
		fake := (&llm.ScriptedCompleter{}).Fail(errors.New("invalid api key"))
		_, err := newTestAssistant(fake).Chat(context.Background(), &fakeSource{}, "hi", nil, "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid api key")
	})

	t.Run("unknown tool", func(t *testing.T) {
		fake := (&llm.ScriptedCompleter{}).
			ReplyMessage(openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{ID: "c", Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "delete_everything"}}},
			}).
			Reply("I can't do that.")
		out, err := newTestAssistant(fake).Chat(context.Background(), &fakeSource{}, "hi", nil, "tok")
		require.NoError(t, err)
		assert.Equal(t, "I can't do that.", out)
		assert.Equal(t, `Error: unknown tool "delete_everything"`, fake.Requests[1].Messages[3].Content)
	})
}
