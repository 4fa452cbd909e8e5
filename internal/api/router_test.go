package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Duel/internal/config"
	"github.com/MikeSquared-Agency/Duel/internal/metrics"
	"github.com/MikeSquared-Agency/Duel/internal/session"
	"github.com/MikeSquared-Agency/Duel/internal/store"
)

// Mocks
type mockStore struct {
	places map[string]*store.Place
	events []*store.SelectionEvent
}

func newMockStore() *mockStore {
	return &mockStore{places: make(map[string]*store.Place)}
}
func (m *mockStore) UpsertPlace(_ context.Context, p *store.Place) error {
	now := time.Now()
	if existing, ok := m.places[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.places[p.ID] = &cp
	return nil
}
func (m *mockStore) GetPlace(_ context.Context, id string) (*store.Place, error) {
	return m.places[id], nil
}
func (m *mockStore) ListPlaces(_ context.Context, f store.PlaceFilter) ([]*store.Place, error) {
	var out []*store.Place
	for _, p := range m.places {
		if f.MaxPriceLevel != nil && p.PriceLevel != nil && *p.PriceLevel > *f.MaxPriceLevel {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewCount > out[j].ReviewCount })
	return out, nil
}
func (m *mockStore) DeletePlace(_ context.Context, id string) error {
	delete(m.places, id)
	return nil
}
func (m *mockStore) CreateSelectionEvent(_ context.Context, e *store.SelectionEvent) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.events = append(m.events, e)
	return nil
}
func (m *mockStore) GetSelectionEvents(_ context.Context, id uuid.UUID) ([]*store.SelectionEvent, error) {
	var out []*store.SelectionEvent
	for _, e := range m.events {
		if e.SessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
func (m *mockStore) GetStats(_ context.Context) (*store.Stats, error) {
	return &store.Stats{TotalPlaces: len(m.places), TotalSelections: len(m.events)}, nil
}
func (m *mockStore) Close() error { return nil }

func intPtr(v int) *int { return &v }

func seedPlaces(ms *mockStore) {
	ms.places["A"] = &store.Place{ID: "A", Name: "Alo", Lat: 43.6484, Lng: -79.3961, ReviewCount: 50, PriceLevel: intPtr(2)}
	ms.places["B"] = &store.Place{ID: "B", Name: "Banh Mi Boys", Lat: 43.6487, Lng: -79.3966, ReviewCount: 80, PriceLevel: intPtr(1)}
	ms.places["C"] = &store.Place{ID: "C", Name: "Canoe", Lat: 43.6477, Lng: -79.3813, ReviewCount: 10, PriceLevel: intPtr(3)}
}

func setupTestRouter() (http.Handler, *mockStore, *session.Manager) {
	ms := newMockStore()
	seedPlaces(ms)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, _ := config.Load("")
	m := session.NewManager(ms, nil, metrics.New(prometheus.NewRegistry()), cfg, logger)
	router := NewRouter(m, ms, RouterConfig{AdminToken: "test-token", RateLimitPerMinute: 1000}, logger)
	return router, ms, m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) session.View {
	t.Helper()
	var v session.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func slotID(v session.View, i int) string {
	if v.Slots[i].Candidate == nil {
		return ""
	}
	return v.Slots[i].Candidate.ID
}

func createSession(t *testing.T, h http.Handler) session.View {
	t.Helper()
	w := do(t, h, "POST", "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeView(t, w)
}

func TestCreateSessionFromCatalogue(t *testing.T) {
	router, _, _ := setupTestRouter()

	v := createSession(t, router)
	if v.PoolSize != 3 {
		t.Errorf("expected pool size 3, got %d", v.PoolSize)
	}
	if slotID(v, 0) != "B" || slotID(v, 1) != "A" {
		t.Errorf("expected [B A], got [%s %s]", slotID(v, 0), slotID(v, 1))
	}
	if v.Slots[0].Candidate.DistanceKm == nil {
		t.Error("expected distance annotation")
	}
}

func TestCreateSessionWithCandidates(t *testing.T) {
	router, _, _ := setupTestRouter()

	body := `{"candidates":[
		{"id":"x","name":"X","location":{"lat":43.6,"lng":-79.4},"popularity":1},
		{"id":"y","name":"Y","location":{"lat":43.6,"lng":-79.4},"popularity":9},
		{"id":"","name":"broken"}
	]}`
	w := do(t, router, "POST", "/api/v1/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	v := decodeView(t, w)
	if v.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %d", v.Rejected)
	}
	if slotID(v, 0) != "y" || slotID(v, 1) != "x" {
		t.Errorf("expected [y x], got [%s %s]", slotID(v, 0), slotID(v, 1))
	}
}

func TestCreateSessionValidation(t *testing.T) {
	router, _, _ := setupTestRouter()

	cases := map[string]string{
		"bad json":       `{`,
		"bad origin":     `{"origin":{"lat":91,"lng":0}}`,
		"zero radius":    `{"radius_km":0}`,
		"negative price": `{"max_price_tier":-1}`,
	}
	for name, body := range cases {
		w := do(t, router, "POST", "/api/v1/sessions", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestGetSession(t *testing.T) {
	router, _, _ := setupTestRouter()
	v := createSession(t, router)

	w := do(t, router, "GET", "/api/v1/sessions/"+v.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeView(t, w)
	if got.ID != v.ID {
		t.Errorf("expected id %s, got %s", v.ID, got.ID)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := do(t, router, "GET", "/api/v1/sessions/"+uuid.NewString(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	w = do(t, router, "GET", "/api/v1/sessions/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestSelectFlow(t *testing.T) {
	router, ms, _ := setupTestRouter()
	v := createSession(t, router)
	path := "/api/v1/sessions/" + v.ID.String() + "/select"

	w := do(t, router, "POST", path, `{"slot":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res session.SelectResult
	json.NewDecoder(w.Body).Decode(&res)
	if res.Chosen == nil || res.Chosen.ID != "B" {
		t.Fatalf("expected B chosen, got %+v", res.Chosen)
	}
	if res.Installed == nil || res.Installed.ID != "C" {
		t.Fatalf("expected C installed, got %+v", res.Installed)
	}
	if !res.View.Slots[0].Active {
		t.Error("expected slot 0 active")
	}

	w = do(t, router, "POST", path, `{"slot":0}`)
	res = session.SelectResult{}
	json.NewDecoder(w.Body).Decode(&res)
	if res.Installed != nil {
		t.Errorf("expected exhaustion, got %+v", res.Installed)
	}
	if !res.View.Slots[1].Exhausted {
		t.Error("expected slot 1 exhausted")
	}

	if len(ms.events) != 2 {
		t.Fatalf("expected 2 recorded selections, got %d", len(ms.events))
	}

	w = do(t, router, "GET", "/api/v1/sessions/"+v.ID.String()+"/selections", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var events []store.SelectionEvent
	json.NewDecoder(w.Body).Decode(&events)
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestSelectValidation(t *testing.T) {
	router, _, _ := setupTestRouter()
	v := createSession(t, router)
	path := "/api/v1/sessions/" + v.ID.String() + "/select"

	for _, body := range []string{`{}`, `{"slot":2}`, `{"slot":-1}`, `nope`} {
		w := do(t, router, "POST", path, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestSetFilterFlow(t *testing.T) {
	router, _, _ := setupTestRouter()
	v := createSession(t, router)
	path := "/api/v1/sessions/" + v.ID.String() + "/filter"

	w := do(t, router, "PUT", path, `{"max_price_tier":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeView(t, w)
	if slotID(got, 0) != "B" || slotID(got, 1) != "" {
		t.Errorf("expected [B -], got [%s %s]", slotID(got, 0), slotID(got, 1))
	}
	if got.Epoch != 1 {
		t.Errorf("expected epoch 1, got %d", got.Epoch)
	}

	w = do(t, router, "PUT", path, `{"max_price_tier":null,"refill":false}`)
	got = decodeView(t, w)
	if got.Filter.MaxPriceTier != nil {
		t.Error("expected filter cleared")
	}
	if slotID(got, 1) != "" {
		t.Errorf("expected slots kept without refill, got %s", slotID(got, 1))
	}

	w = do(t, router, "POST", "/api/v1/sessions/"+v.ID.String()+"/refill", "")
	got = decodeView(t, w)
	if slotID(got, 0) != "B" || slotID(got, 1) != "A" {
		t.Errorf("expected [B A] after refill, got [%s %s]", slotID(got, 0), slotID(got, 1))
	}
}

func TestDeleteSession(t *testing.T) {
	router, _, m := setupTestRouter()
	v := createSession(t, router)

	w := do(t, router, "DELETE", "/api/v1/sessions/"+v.ID.String(), "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if m.Len() != 0 {
		t.Errorf("expected no sessions, got %d", m.Len())
	}
	w = do(t, router, "DELETE", "/api/v1/sessions/"+v.ID.String(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewMetricsRouter(prometheus.NewRegistry())
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	met.SessionsCreated.Inc()

	router := NewMetricsRouter(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("duel_sessions_created_total 1")) {
		t.Errorf("expected sessions counter in output, got %s", w.Body.String())
	}
}
