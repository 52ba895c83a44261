package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mystery-server/internal/messaging"
	"mystery-server/internal/service"
	"mystery-server/pkg/ai"
)

// MockAIClient is a mock type for the ai.Client type
type MockAIClient struct {
	mock.Mock
}

var _ ai.Client = (*MockAIClient)(nil)

func (_m *MockAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, userInput)

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}
	return ret.String(0), r1, ret.Error(2)
}

// MockImageClient is a mock type for the ImageClient type
type MockImageClient struct {
	mock.Mock
}

var _ service.ImageClient = (*MockImageClient)(nil)

func (_m *MockImageClient) Generate(ctx context.Context, prompt string) (service.GeneratedImage, error) {
	ret := _m.Called(ctx, prompt)

	var r0 service.GeneratedImage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(service.GeneratedImage)
	}
	return r0, ret.Error(1)
}

// MockEventPublisher is a mock type for the EventPublisher type
type MockEventPublisher struct {
	mock.Mock
}

var _ messaging.EventPublisher = (*MockEventPublisher)(nil)

func (_m *MockEventPublisher) PublishGameGenerated(ctx context.Context, event messaging.GameGeneratedEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}
