package mood

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/backend/internal/middleware"
	model "github.com/mindhaven/backend/internal/model/mood"
	"github.com/mindhaven/backend/internal/model/user"
	"github.com/mindhaven/backend/internal/repo"
	"github.com/mindhaven/backend/internal/service/cooldown"
	moodservice "github.com/mindhaven/backend/internal/service/mood"
	"github.com/mindhaven/backend/internal/service/moodlog"
)

type stubAnalyzer struct {
	result *model.Assessment
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string) (*model.Assessment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func asUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), id)))
		})
	}
}

type moodFixture struct {
	repo     *repo.Repo
	analyzer *stubAnalyzer
	throttle *cooldown.Policy
	now      *time.Time
}

func newMoodServer(t *testing.T, userID string) (*httptest.Server, *moodFixture) {
	t.Helper()

	r, err := repo.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	ctx := context.Background()
	if err := r.InsertUser(ctx, user.User{ID: userID, Email: userID + "@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixture := &moodFixture{
		repo: r,
		analyzer: &stubAnalyzer{result: &model.Assessment{
			Insight:   "sounds tough",
			MoodScore: 4,
			Emotions:  []string{"tired"},
			Tips:      []string{"a", "b", "c"},
			Closing:   "take care",
		}},
		now: &now,
	}
	fixture.throttle = cooldown.NewPolicy(cooldown.NewMemoryStore(),
		cooldown.WithClock(func() time.Time { return *fixture.now }))

	router := chi.NewRouter()
	router.Use(asUser(userID))
	New(fixture.analyzer, moodlog.NewService(r), fixture.throttle).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, fixture
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	server, fixture := newMoodServer(t, "user-1")

	resp := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"rough day"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got model.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Insight != "sounds tough" || got.MoodScore != 4 {
		t.Fatalf("unexpected assessment: %+v", got)
	}
	if fixture.analyzer.calls != 1 {
		t.Fatalf("expected one analyzer call, got %d", fixture.analyzer.calls)
	}
}

func TestAnalyzeCooldownReturns429(t *testing.T) {
	server, fixture := newMoodServer(t, "user-1")

	first := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"rough day"}`)
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", first.StatusCode)
	}

	second := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"still rough"}`)
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if fixture.analyzer.calls != 1 {
		t.Fatalf("throttled call must not reach the analyzer, calls=%d", fixture.analyzer.calls)
	}

	*fixture.now = fixture.now.Add(cooldown.DefaultCooldown + time.Second)
	third := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"better now"}`)
	third.Body.Close()
	if third.StatusCode != http.StatusOK {
		t.Fatalf("after cooldown: expected 200, got %d", third.StatusCode)
	}
}

func TestAnalyzeFailureSkipsCooldown(t *testing.T) {
	server, fixture := newMoodServer(t, "user-1")
	fixture.analyzer.err = &moodservice.AnalysisError{Kind: moodservice.KindUpstream, Message: "AI service error. Please try again."}

	resp := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"rough day"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	// A failed analysis must not start the cooldown window.
	fixture.analyzer.err = nil
	retry := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"rough day"}`)
	retry.Body.Close()
	if retry.StatusCode != http.StatusOK {
		t.Fatalf("retry after failure: expected 200, got %d", retry.StatusCode)
	}
}

func TestAnalyzeErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind moodservice.Kind
		want int
	}{
		{moodservice.KindValidation, http.StatusBadRequest},
		{moodservice.KindTimeout, http.StatusGatewayTimeout},
		{moodservice.KindRateLimited, http.StatusTooManyRequests},
		{moodservice.KindQuotaExceeded, http.StatusPaymentRequired},
		{moodservice.KindEmptyResponse, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		server, fixture := newMoodServer(t, "user-1")
		fixture.analyzer.err = &moodservice.AnalysisError{Kind: tc.kind, Message: string(tc.kind)}

		resp := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"x"}`)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Fatalf("kind %s: expected %d, got %d", tc.kind, tc.want, resp.StatusCode)
		}
	}
}

func TestAnalyzeUnavailableWithoutAnalyzer(t *testing.T) {
	router := chi.NewRouter()
	router.Use(asUser("user-1"))
	New(nil, nil, nil).RegisterRoutes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	resp := postJSON(t, server.URL+"/mood/analyze", `{"moodText":"x"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestMoodLogCRUD(t *testing.T) {
	server, _ := newMoodServer(t, "user-1")

	create := postJSON(t, server.URL+"/mood/logs",
		`{"moodText":"rough day","insight":"sounds tough","moodScore":4,"emotions":["tired"],"tips":["a","b","c"],"closing":"take care"}`)
	defer create.Body.Close()
	if create.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", create.StatusCode)
	}
	var entry model.Log
	if err := json.NewDecoder(create.Body).Decode(&entry); err != nil {
		t.Fatalf("decode created log: %v", err)
	}
	if entry.ID == "" || entry.MoodScore != 4 {
		t.Fatalf("unexpected created log: %+v", entry)
	}

	list, err := http.Get(server.URL + "/mood/logs")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer list.Body.Close()
	var entries []model.Log
	if err := json.NewDecoder(list.Body).Decode(&entries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("unexpected list: %+v", entries)
	}

	patch, err := http.NewRequest(http.MethodPatch, server.URL+"/mood/logs/"+entry.ID, strings.NewReader(`{"moodText":"updated"}`))
	if err != nil {
		t.Fatalf("build patch: %v", err)
	}
	patchResp, err := http.DefaultClient.Do(patch)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer patchResp.Body.Close()
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", patchResp.StatusCode)
	}
	var updated model.Log
	if err := json.NewDecoder(patchResp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode patched log: %v", err)
	}
	if updated.MoodText != "updated" {
		t.Fatalf("patch did not stick: %q", updated.MoodText)
	}

	del, err := http.NewRequest(http.MethodDelete, server.URL+"/mood/logs/"+entry.ID, nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	delResp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", delResp.StatusCode)
	}
}

func TestMoodLogValidationAndMisses(t *testing.T) {
	server, _ := newMoodServer(t, "user-1")

	empty := postJSON(t, server.URL+"/mood/logs", `{"moodText":"  "}`)
	empty.Body.Close()
	if empty.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty text: expected 400, got %d", empty.StatusCode)
	}

	del, _ := http.NewRequest(http.MethodDelete, server.URL+"/mood/logs/nope", nil)
	delResp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing log: expected 404, got %d", delResp.StatusCode)
	}
}

func TestMoodLogOwnership(t *testing.T) {
	server, fixture := newMoodServer(t, "user-1")

	// Seed a second user's log directly through the repo.
	ctx := context.Background()
	if err := fixture.repo.InsertUser(ctx, user.User{ID: "user-2", Email: "other@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	otherLog, err := moodlog.NewService(fixture.repo).Create(ctx, "user-2", "not yours", model.Assessment{
		Insight: "i", MoodScore: 5, Emotions: []string{"e"}, Tips: []string{"t"}, Closing: "c",
	})
	if err != nil {
		t.Fatalf("seed other log: %v", err)
	}

	del, _ := http.NewRequest(http.MethodDelete, server.URL+"/mood/logs/"+otherLog.ID, nil)
	delResp, err := http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign log: expected 403, got %d", delResp.StatusCode)
	}
}
