// Package mocks provides testify mock implementations of the domain ports.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hari200698/Mocksy/internal/domain"
)

// MockInterviewRepository mocks domain.InterviewRepository.
type MockInterviewRepository struct{ mock.Mock }

func (m *MockInterviewRepository) Get(ctx domain.Context, id string) (domain.Interview, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Interview), args.Error(1)
}

// MockFeedbackRepository mocks domain.FeedbackRepository.
type MockFeedbackRepository struct{ mock.Mock }

func (m *MockFeedbackRepository) Save(ctx domain.Context, f domain.EnhancedFeedback) (string, error) {
	args := m.Called(ctx, f)
	return args.String(0), args.Error(1)
}

func (m *MockFeedbackRepository) Get(ctx domain.Context, id string) (domain.EnhancedFeedback, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.EnhancedFeedback), args.Error(1)
}

func (m *MockFeedbackRepository) GetByInterview(ctx domain.Context, interviewID, userID string) (domain.EnhancedFeedback, error) {
	args := m.Called(ctx, interviewID, userID)
	return args.Get(0).(domain.EnhancedFeedback), args.Error(1)
}

// MockJobRepository mocks domain.JobRepository.
type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Create(ctx domain.Context, j domain.GenerationJob) (string, error) {
	args := m.Called(ctx, j)
	return args.String(0), args.Error(1)
}

func (m *MockJobRepository) UpdateStatus(ctx domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockJobRepository) SetFeedbackID(ctx domain.Context, id, feedbackID string) error {
	args := m.Called(ctx, id, feedbackID)
	return args.Error(0)
}

func (m *MockJobRepository) Get(ctx domain.Context, id string) (domain.GenerationJob, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.GenerationJob), args.Error(1)
}

// MockQueue mocks domain.Queue.
type MockQueue struct{ mock.Mock }

func (m *MockQueue) EnqueueGenerate(ctx domain.Context, payload domain.GenerateTaskPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

// MockGenerationLock mocks domain.GenerationLock.
type MockGenerationLock struct{ mock.Mock }

func (m *MockGenerationLock) Acquire(ctx domain.Context, interviewID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, interviewID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockGenerationLock) Release(ctx domain.Context, interviewID string) error {
	args := m.Called(ctx, interviewID)
	return args.Error(0)
}

// MockTelemetry mocks domain.Telemetry.
type MockTelemetry struct{ mock.Mock }

func (m *MockTelemetry) Emit(name string, props map[string]any) {
	m.Called(name, props)
}

// MockAIClient mocks domain.AIClient.
type MockAIClient struct{ mock.Mock }

func (m *MockAIClient) Complete(ctx domain.Context, prompt string, opts domain.CompleteOptions) (domain.Completion, error) {
	args := m.Called(ctx, prompt, opts)
	return args.Get(0).(domain.Completion), args.Error(1)
}
