package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// MockClient is a configurable inference client for testing.
// Set the response fields to control what each method returns.
// Safe for concurrent use by agents running in parallel.
type MockClient struct {
	mu sync.Mutex

	GenerateResponse *domain.GenerateResponse
	GenerateError    error
	// GenerateFunc, when set, takes precedence over GenerateResponse.
	GenerateFunc func(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error)

	// StructuredResponse is marshalled to JSON and decoded into out.
	StructuredResponse any
	StructuredError    error

	// Call tracking for assertions
	GenerateCalls   []domain.GenerateRequest
	StructuredCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		GenerateResponse: &domain.GenerateResponse{Text: "Mock response"},
	}
}

func (m *MockClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	fn, resp, err := m.GenerateFunc, m.GenerateResponse, m.GenerateError
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &domain.GenerateResponse{}, nil
	}
	copied := *resp
	return &copied, nil
}

func (m *MockClient) GenerateStructured(ctx context.Context, system, prompt string, schema *domain.Schema, out any) error {
	m.mu.Lock()
	m.StructuredCalls = append(m.StructuredCalls, prompt)
	resp, err := m.StructuredResponse, m.StructuredError
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// GenerateCallCount returns the number of Generate calls so far.
func (m *MockClient) GenerateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}
