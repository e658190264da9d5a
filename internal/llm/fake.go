package llm

import (
	"context"
	"errors"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ScriptedCompleter replays canned responses in order and records the
// requests it receives. It is meant for tests of packages built on Client.
type ScriptedCompleter struct {
	mu        sync.Mutex
	responses []openai.ChatCompletionResponse
	errs      []error
	Requests  []openai.ChatCompletionRequest
}

// ErrScriptExhausted is returned once every scripted response was used.
var ErrScriptExhausted = errors.New("no scripted response left")

// Reply queues an assistant message with the given content.
func (s *ScriptedCompleter) Reply(content string) *ScriptedCompleter {
	return s.ReplyMessage(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
}

// ReplyMessage queues an arbitrary assistant message.
func (s *ScriptedCompleter) ReplyMessage(msg openai.ChatCompletionMessage) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: msg}},
	})
	s.errs = append(s.errs, nil)
	return s
}

// Fail queues an error.
func (s *ScriptedCompleter) Fail(err error) *ScriptedCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, openai.ChatCompletionResponse{})
	s.errs = append(s.errs, err)
	return s
}

// CreateChatCompletion implements Completer.
func (s *ScriptedCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, ErrScriptExhausted
	}
	resp, err := s.responses[0], s.errs[0]
	s.responses, s.errs = s.responses[1:], s.errs[1:]
	return resp, err
}

// Calls returns the number of requests received.
func (s *ScriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
