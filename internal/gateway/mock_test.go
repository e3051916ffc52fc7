package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/estate-cli/pkg/anthropic"
	"github.com/sells-group/estate-cli/pkg/gemini"
)

// --- Provider mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string  { return "gemini" }
func (m *mockProvider) Model() string { return "gemini-1.5-pro" }

func (m *mockProvider) Generate(ctx context.Context, prompt string) (Completion, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(Completion), args.Error(1)
}

// --- SDK client mocks ---

type mockGeminiClient struct {
	mock.Mock
}

func (m *mockGeminiClient) Generate(ctx context.Context, req gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gemini.GenerateResponse), args.Error(1)
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}
