package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/testutil"
)

const cullSignals = `[
  {"type":"explicit","source":"quiz","timestamp":"2025-07-30T10:00:00Z",
   "data":{"kind":"choice","archetypeWeights":{"C-4":2}}},
  {"type":"explicit","source":"quiz","timestamp":"2025-07-30T10:01:00Z",
   "data":{"kind":"choice","archetypeWeights":{"C-4":2}}}
]`

const voidSignals = `[
  {"type":"explicit","source":"quiz","timestamp":"2025-07-31T10:00:00Z",
   "data":{"kind":"choice","archetypeWeights":{"Ø":3}}}
]`

// testEnv sets up a memory-backed service and router for testing.
// An empty authToken means disabled mode; a non-empty token enables auth.
func testEnv(t *testing.T, authToken string) (*genomeservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithInbox(t, authToken != "", authToken, false)
	return svc, router
}

// testEnvWithInbox optionally attaches an inbox directory and returns its root.
func testEnvWithInbox(t *testing.T, authEnabled bool, authToken string, withInbox bool) (*genomeservice.Service, http.Handler, string) {
	t.Helper()

	svc := testutil.TestService(t)
	if !withInbox {
		return svc, NewRouter(svc, nil, authEnabled, authToken, nil), ""
	}
	root, store := testutil.TestInbox(t)
	return svc, NewRouter(svc, store, authEnabled, authToken, nil), root
}

func do(router http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createGenome(t *testing.T, router http.Handler, owner, signals string) {
	t.Helper()
	w := do(router, http.MethodPost, "/genomes", `{"userId":"`+owner+`","signals":`+signals+`}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s = %d, body = %s", owner, w.Code, w.Body.String())
	}
}

func TestCreateAndGetGenome(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "alice", cullSignals)

	w := do(router, http.MethodGet, "/genomes/alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != `"1"` {
		t.Errorf("ETag = %q, want \"1\"", etag)
	}
	var g GenomeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatal(err)
	}
	if g.OwnerID != "alice" || g.Archetype.Primary.ID != "C-4" {
		t.Errorf("genome = %+v", g)
	}
	if g.Formal.PrimarySigil != nil {
		t.Error("formal sigil exposed before reveal")
	}
	if body := w.Body.String(); strings.Contains(body, "psychometrics") || strings.Contains(body, "signalHistory") {
		t.Errorf("public genome leaked engine data: %s", body)
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "dup", cullSignals)

	w := do(router, http.MethodPost, "/genomes", `{"userId":"dup","signals":`+cullSignals+`}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateInvalid(t *testing.T) {
	_, router := testEnv(t, "")
	for name, body := range map[string]string{
		"json":  `{`,
		"owner": `{"userId":"","signals":[]}`,
		"kind":  `{"userId":"x","signals":[{"type":"explicit","source":"quiz","timestamp":"2025-01-01T00:00:00Z","data":{"kind":"telepathy"}}]}`,
	} {
		if w := do(router, http.MethodPost, "/genomes", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "lock", cullSignals)

	body := `{"signals":` + voidSignals + `}`
	w := do(router, http.MethodPost, "/genomes/lock/signals", body, "If-Match", `"1"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with current version = %d, body = %s", w.Code, w.Body.String())
	}
	var c ChangeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.Genome.Version != 2 || w.Header().Get("ETag") != `"2"` {
		t.Errorf("version = %d, ETag = %q", c.Genome.Version, w.Header().Get("ETag"))
	}

	// Stale version → 409.
	w = do(router, http.MethodPost, "/genomes/lock/signals", body, "If-Match", `"1"`)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale version = %d, want 409", w.Code)
	}

	w = do(router, http.MethodPost, "/genomes/lock/signals", body, "If-Match", "abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed If-Match = %d, want 400", w.Code)
	}
}

func TestEvolveWithoutIfMatch(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "evo", cullSignals)

	w := do(router, http.MethodPost, "/genomes/evo/evolve", `{"signals":`+voidSignals+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("evolve = %d, body = %s", w.Code, w.Body.String())
	}
	var c ChangeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.Created || c.Genome.Version != 2 || c.Drift <= 0 {
		t.Errorf("change = %+v", c)
	}
}

func TestUpdateGenome_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(router, http.MethodPost, "/genomes/nobody/signals", `{"signals":`+voidSignals+`}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestRevealGenome(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "rev", cullSignals)

	w := do(router, http.MethodPost, "/genomes/rev/reveal", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reveal = %d", w.Code)
	}
	var g GenomeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &g)
	if !g.Formal.Revealed || g.Formal.PrimarySigil == nil {
		t.Errorf("formal = %+v", g.Formal)
	}
}

func TestDeleteGenome(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "bye", cullSignals)

	if w := do(router, http.MethodDelete, "/genomes/bye", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(router, http.MethodGet, "/genomes/bye", ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := do(router, http.MethodDelete, "/genomes/bye", ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListAndCompareGenomes(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "a", cullSignals)
	createGenome(t, router, "b", cullSignals)

	w := do(router, http.MethodGet, "/genomes?limit=10", "")
	var list GenomeListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 2 || len(list.Genomes) != 2 {
		t.Errorf("list = %+v", list)
	}

	w = do(router, http.MethodGet, "/compare?a=a&b=b", "")
	var sim SimilarityResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sim)
	if w.Code != http.StatusOK || sim.Similarity < 0.999 {
		t.Errorf("compare = %d, %+v", w.Code, sim)
	}

	if w := do(router, http.MethodGet, "/compare?a=a", ""); w.Code != http.StatusBadRequest {
		t.Errorf("compare missing b = %d, want 400", w.Code)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(router, http.MethodPost, "/classify", `{"signals":`+cullSignals+`,"context":"Curating"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("classify = %d, body = %s", w.Code, w.Body.String())
	}
	var res ClassifyResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Classification.Primary.ID != "C-4" || res.Context != "Curating" {
		t.Errorf("classify = %+v", res)
	}

	// Nothing was stored.
	w = do(router, http.MethodGet, "/genomes", "")
	var list GenomeListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 0 {
		t.Errorf("classify persisted %d genomes", list.Total)
	}
}

func TestArchetypesEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(router, http.MethodGet, "/archetypes", "")
	var res ArchetypeListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Archetypes) != 12 {
		t.Errorf("archetypes = %d, want 12", len(res.Archetypes))
	}
}

func TestReadingAndAxes(t *testing.T) {
	_, router := testEnv(t, "")
	axes := `{"orderChaos":0.9,"mercyRuthlessness":0.1,"introvertExtrovert":0.9,"faithDoubt":0.1}`

	w := do(router, http.MethodPost, "/reading", axes)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"movingLines":[5,6]`) {
		t.Errorf("reading = %d, %s", w.Code, w.Body.String())
	}
	if w := do(router, http.MethodPost, "/reading", `{"orderChaos":"high"}`); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric axis = %d, want 400", w.Code)
	}

	createGenome(t, router, "axes", cullSignals)
	w = do(router, http.MethodPost, "/genomes/axes/axes", axes)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != `"2"` {
		t.Errorf("submit axes = %d, ETag = %q", w.Code, w.Header().Get("ETag"))
	}
}

func TestContextEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "ctx", cullSignals)

	w := do(router, http.MethodPut, "/genomes/ctx/contexts/Creating", `{"signals":`+voidSignals+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update context = %d, body = %s", w.Code, w.Body.String())
	}
	var view genomeservice.ContextView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.Label != "Creating" || view.LastActive == nil {
		t.Errorf("view = %+v", view)
	}

	w = do(router, http.MethodGet, "/genomes/ctx/contexts", "")
	var list ContextListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Contexts) != 1 || list.Contexts[0].Label != "Creating" {
		t.Errorf("contexts = %+v", list)
	}

	if w := do(router, http.MethodGet, "/genomes/ctx/contexts/Curating", ""); w.Code != http.StatusOK {
		t.Errorf("unused context view = %d, want 200", w.Code)
	}

	w = do(router, http.MethodPost, "/contexts/detect",
		`{"signals":[{"type":"unintentional_implicit","source":"feed","timestamp":"2025-07-30T10:00:00Z","data":{"kind":"dwell","itemId":"x"}}]}`)
	if !strings.Contains(w.Body.String(), `"context":"Consuming"`) {
		t.Errorf("detect = %s", w.Body.String())
	}
}

func TestRecalibrationEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	createGenome(t, router, "cal", cullSignals)

	w := do(router, http.MethodGet, "/genomes/cal/recalibration", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"historySize":2`) {
		t.Errorf("recalibration = %d, %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(router, http.MethodPost, "/genomes", `{"userId":"auth","signals":`+cullSignals+`}`,
		"Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := do(router, http.MethodGet, "/genomes", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := do(router, http.MethodGet, "/genomes", "", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(router, http.MethodGet, "/genomes", ""); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	// No token → 401.
	if w := do(router, http.MethodGet, "/events", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// The stub blocks until the request context ends.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := testutil.TestService(t)

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, nil, authEnabled, token, sseHandler)
}

// Batch upload tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batches", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadBatch_Direct(t *testing.T) {
	svc, router := testEnv(t, "")

	batch := "userId: bob\nsource: feed\nsignals:\n  - type: intentional_implicit\n    data:\n      kind: save\n      itemId: post-1\n"
	w := uploadFile(t, router, "bob.yaml", []byte(batch))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := svc.Get(context.Background(), "bob"); err != nil {
		t.Errorf("genome not created: %v", err)
	}
}

func TestUploadBatch_Queued(t *testing.T) {
	svc, router, root := testEnvWithInbox(t, false, "", true)

	batch := []byte(`{"userId":"carol","signals":` + cullSignals + `}`)
	w := uploadFile(t, router, "carol.json", batch)
	if w.Code != http.StatusAccepted {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	data, err := os.ReadFile(filepath.Join(root, "carol.json"))
	if err != nil || !bytes.Equal(data, batch) {
		t.Errorf("queued file = %q, %v", data, err)
	}
	if _, err := svc.Get(context.Background(), "carol"); err == nil {
		t.Error("queued batch should not be ingested inline")
	}

	if w := uploadFile(t, router, "carol.json", batch); w.Code != http.StatusConflict {
		t.Errorf("duplicate queue = %d, want 409", w.Code)
	}
}

func TestUploadBatch_Rejected(t *testing.T) {
	_, router, root := testEnvWithInbox(t, false, "", true)

	cases := map[string]struct {
		name string
		body string
	}{
		"extension": {"batch.txt", `{}`},
		"hidden":    {".batch.json", `{}`},
		"invalid":   {"x.json", `{"userId":"x","signals":[]}`},
		"syntax":    {"y.json", `{`},
	}
	for label, c := range cases {
		if w := uploadFile(t, router, c.name, []byte(c.body)); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", label, w.Code)
		}
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d files in inbox", len(entries))
	}
}

func TestUploadBatch_AuthProtected(t *testing.T) {
	_, router := testEnv(t, "secret")
	if w := uploadFile(t, router, "x.json", []byte(`{}`)); w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
}

func TestUploadBatch_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/batches", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
