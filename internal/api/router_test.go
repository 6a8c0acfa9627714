package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/app"
	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/embedding"
	"github.com/Harshitk-cp/searchmind/internal/llm"
	"github.com/Harshitk-cp/searchmind/internal/store/storetest"
)

type testServer struct {
	*httptest.Server
	app     *App
	svcs    *app.Services
	llm     *llm.MockClient
	actions *storetest.ActionStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mock := llm.NewMockClient()
	mock.StructuredResponse = map[string]any{
		"classification":   "research",
		"primary_agent":    "RESEARCH",
		"secondary_agents": []string{},
		"execution_mode":   "SINGLE",
		"reasoning":        "general question",
	}
	actions := storetest.NewActionStore()

	svcs := app.Build(app.Stores{
		Properties: storetest.NewPropertyStore(),
		Memories:   storetest.NewMemoryStore(),
		Actions:    actions,
		Skills:     storetest.NewSkillStore(actions),
		Analytics:  storetest.NewAnalyticsStore(),
	}, app.Clients{
		LLM:       mock,
		Embedding: embedding.NewMockClient(),
	}, zap.NewNop())

	a := NewApp(svcs, zap.NewNop())
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		a.CloseStreams()
		srv.Close()
		svcs.Close()
	})
	return &testServer{Server: srv, app: a, svcs: svcs, llm: mock, actions: actions}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (s *testServer) createProperty(t *testing.T, siteURL string) domain.Property {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/v1/properties", map[string]string{"site_url": siteURL})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var p domain.Property
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	s.svcs.Ping = func(context.Context) error { return errors.New("connection refused") }
	resp, body = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/v1/properties/not-a-uuid", nil)
	resp, body := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	assert.GreaterOrEqual(t, m["request_count"], float64(2))
	assert.GreaterOrEqual(t, m["error_count"], float64(1))
}

func TestProperties(t *testing.T) {
	s := newTestServer(t)

	p := s.createProperty(t, "https://Example.com")
	assert.Equal(t, "https://Example.com/", p.SiteURL)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"duplicate", http.MethodPost, "/v1/properties", map[string]string{"site_url": "https://Example.com/"}, http.StatusConflict},
		{"invalid url", http.MethodPost, "/v1/properties", map[string]string{"site_url": "ftp://example.com"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/v1/properties", "not an object", http.StatusBadRequest},
		{"get", http.MethodGet, "/v1/properties/" + p.ID.String(), nil, http.StatusOK},
		{"get unknown", http.MethodGet, "/v1/properties/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound},
		{"get bad id", http.MethodGet, "/v1/properties/abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}

	resp, body := s.do(t, http.MethodGet, "/v1/properties", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Property
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestSyncAndCrawlStats(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty(t, "https://example.com/")
	base := "/v1/properties/" + p.ID.String()

	resp, _ := s.do(t, http.MethodPost, base+"/sync?days=7", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "no source configured")

	resp, _ = s.do(t, http.MethodPost, base+"/sync?days=seven", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	stats := map[string]any{"stats": []map[string]any{
		{"url": "https://example.com/a", "crawl_frequency": 40, "clicks_90d": 12},
		{"url": "https://example.com/b", "crawl_frequency": 2, "impressions_90d": 900},
	}}
	resp, body := s.do(t, http.MethodPost, base+"/crawl-stats", stats)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"ingested":2}`, string(body))

	bad := map[string]any{"stats": []map[string]any{{"url": ""}}}
	resp, _ = s.do(t, http.MethodPost, base+"/crawl-stats", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/v1/properties/00000000-0000-0000-0000-000000000001/crawl-stats", stats)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_Post(t *testing.T) {
	s := newTestServer(t)
	s.llm.GenerateResponse = &domain.GenerateResponse{Text: "Core Web Vitals matter for ranking."}

	resp, body := s.do(t, http.MethodPost, "/v1/chat", map[string]string{"message": "Do Core Web Vitals matter?"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var events []domain.Event
	require.NoError(t, json.Unmarshal(body, &events))

	var types []domain.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventStatus, domain.EventStatus, domain.EventRouting, domain.EventAgentResult,
	}, types)
	assert.Equal(t, domain.AgentResearch, events[2].Plan.PrimaryAgent)
	assert.Equal(t, "Core Web Vitals matter for ranking.", events[3].Result.Output)
}

func TestChat_PostErrors(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/v1/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/v1/chat", map[string]string{
		"message":     "why did traffic drop?",
		"property_id": "00000000-0000-0000-0000-000000000001",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_Stream(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/chat/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	readEvent := func() domain.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev domain.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "what is E-E-A-T?"}))
	want := []domain.EventType{domain.EventStatus, domain.EventStatus, domain.EventRouting, domain.EventAgentResult}
	for i, typ := range want {
		ev := readEvent()
		assert.Equal(t, typ, ev.Type, "event %d", i)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev := readEvent()
	assert.Equal(t, domain.EventError, ev.Type)
	assert.Equal(t, "invalid request message", ev.Error)

	// A second turn on the same socket still works.
	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))
	ev = readEvent()
	assert.Equal(t, domain.EventError, ev.Type)
	assert.Equal(t, "message is required", ev.Error)
}

func TestChat_StreamClosedOnShutdown(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	s.app.CloseStreams()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestMemories(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty(t, "https://example.com/")

	resp, body := s.do(t, http.MethodPost, "/v1/memories", map[string]any{
		"property_id": p.ID.String(),
		"kind":        "BRAND",
		"content":     "Acme never discounts its flagship anvil",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		ID         string            `json:"id"`
		Weight     float32           `json:"weight"`
		Tier       domain.MemoryTier `json:"tier"`
		TierReason string            `json:"tier_reason"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, domain.BrandProtectedWeight, created.Weight)
	assert.Equal(t, domain.TierProtected, created.Tier)
	assert.NotEmpty(t, created.TierReason)

	resp, body = s.do(t, http.MethodGet,
		"/v1/memories/recall?property_id="+p.ID.String()+"&query=Acme+never+discounts+its+flagship+anvil", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var recalled struct {
		Memories []struct {
			ID string `json:"id"`
		} `json:"memories"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &recalled))
	require.Equal(t, 1, recalled.Count)
	assert.Equal(t, created.ID, recalled.Memories[0].ID)

	resp, _ = s.do(t, http.MethodGet, "/v1/memories/"+created.ID+"?property_id="+p.ID.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"empty content", http.MethodPost, "/v1/memories", map[string]any{"property_id": p.ID.String(), "content": " "}, http.StatusBadRequest},
		{"bad kind", http.MethodPost, "/v1/memories", map[string]any{"property_id": p.ID.String(), "content": "x", "kind": "DREAM"}, http.StatusBadRequest},
		{"bad weight", http.MethodPost, "/v1/memories", map[string]any{"property_id": p.ID.String(), "content": "x", "weight": 1.5}, http.StatusBadRequest},
		{"missing property", http.MethodPost, "/v1/memories", map[string]any{"content": "x"}, http.StatusBadRequest},
		{"recall without query", http.MethodGet, "/v1/memories/recall?property_id=" + p.ID.String(), nil, http.StatusBadRequest},
		{"recall bad limit", http.MethodGet, "/v1/memories/recall?property_id=" + p.ID.String() + "&query=x&limit=0", nil, http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/v1/memories/00000000-0000-0000-0000-000000000001?property_id=" + p.ID.String(), nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}
}

func TestActionsAndSkills(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty(t, "https://example.com/")

	resp, body := s.do(t, http.MethodPost, "/v1/actions", map[string]any{
		"property_id":     p.ID.String(),
		"agent_type":      "OPTIMIZER",
		"action_type":     "content_optimization",
		"context_summary": "rewrite titles on product pages",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var a domain.ActionRecord
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Nil(t, a.SuccessScore)

	resp, body = s.do(t, http.MethodPost, "/v1/actions/"+a.ID.String()+"/impact", map[string]any{"success_score": 0.9})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &a))
	require.NotNil(t, a.SuccessScore)
	assert.InDelta(t, 0.9, *a.SuccessScore, 1e-9)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown agent", "/v1/actions", map[string]any{"property_id": p.ID.String(), "agent_type": "WIZARD", "action_type": "x"}, http.StatusBadRequest},
		{"missing type", "/v1/actions", map[string]any{"property_id": p.ID.String(), "agent_type": "ANALYST"}, http.StatusBadRequest},
		{"score out of range", "/v1/actions/" + a.ID.String() + "/impact", map[string]any{"success_score": 1.2}, http.StatusBadRequest},
		{"score missing", "/v1/actions/" + a.ID.String() + "/impact", map[string]any{}, http.StatusBadRequest},
		{"unknown action", "/v1/actions/00000000-0000-0000-0000-000000000001/impact", map[string]any{"success_score": 0.5}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
		})
	}

	resp, body = s.do(t, http.MethodGet, "/v1/skills?property_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = s.do(t, http.MethodGet, "/v1/skills?property_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSleepCycle(t *testing.T) {
	s := newTestServer(t)
	p := s.createProperty(t, "https://example.com/")

	for i := 0; i < 3; i++ {
		score := 0.9
		require.NoError(t, s.actions.Create(context.Background(), &domain.ActionRecord{
			PropertyID:   p.ID,
			AgentType:    domain.AgentOptimizer,
			ActionType:   "content_optimization",
			SuccessScore: &score,
		}))
	}

	resp, body := s.do(t, http.MethodPost, "/v1/sleep-cycle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res struct {
		Promoted int               `json:"promoted"`
		Errors   map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.Promoted)
	assert.Empty(t, res.Errors)

	resp, body = s.do(t, http.MethodGet, "/v1/skills?property_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var skills []domain.SkillRecord
	require.NoError(t, json.Unmarshal(body, &skills))
	require.Len(t, skills, 1)
	assert.Contains(t, skills[0].Tags, domain.SkillTagAutoPromoted)
}
