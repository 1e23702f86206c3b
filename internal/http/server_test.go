package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"propcrm/internal/auth"
	"propcrm/internal/cache"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/middleware/ratelimit"
	"propcrm/internal/objectstore"
	"propcrm/internal/services"
	"propcrm/internal/store/memory"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type removeFails struct {
	objectstore.Store
}

func (removeFails) Remove(context.Context, []string) error { return errors.New("bucket unreachable") }

type harness struct {
	srv *Server
	mem *memory.Store
}

type harnessOption func(*Deps)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	mem := memory.New()
	local, err := objectstore.NewLocal(t.TempDir(), "listing-photos", "http://crm.test")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	deps := Deps{
		Objects:   local,
		RateLimit: ratelimit.Config{Requests: 10000, Window: time.Minute, CleanupInterval: time.Hour},
		Logger:    applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
	}
	for _, o := range opts {
		o(&deps)
	}

	now := func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }
	income := services.NewIncomeService(mem,
		cache.NewLRU[core.MonthIncome](16, time.Minute),
		cache.NewLRU[core.Dashboard](16, time.Minute))
	deps.Income = income
	deps.Listings = services.NewListingService(mem, deps.Objects,
		services.WithClock(now),
		services.WithIncomeInvalidation(income.Invalidate))
	deps.Export = services.NewExportService(mem)

	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &harness{srv: srv, mem: mem}
}

func (h *harness) do(t *testing.T, method, target string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func (h *harness) createListing(t *testing.T, body string) string {
	t.Helper()
	rr := h.do(t, http.MethodPost, "/api/listings", strings.NewReader(body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decode(t, rr)["id"].(string)
}

func (h *harness) uploadPhoto(t *testing.T, id string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "front.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(pngBytes)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+id+"/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decode(t, rr)
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := h.do(t, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newHarness(t, func(d *Deps) {
		d.Ping = func(context.Context) error { return errors.New("db down") }
	})
	rr := down.do(t, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing ping = %d", rr.Code)
	}
	if decode(t, rr)["status"] != "not_ready" {
		t.Fatalf("body: %s", rr.Body.String())
	}
}

func TestListingLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.createListing(t, `{"type":"rent","status":"Available","condo_name":"Vertica","area":"Cheras","price":1800,"available_from":"2026-04-01"}`)

	rr := h.do(t, http.MethodGet, "/api/listings?view=all", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("queue status=%d", rr.Code)
	}
	queue := decode(t, rr)
	if items := queue["items"].([]any); len(items) != 1 {
		t.Fatalf("queue items = %d", len(items))
	}

	rr = h.do(t, http.MethodPatch, "/api/listings/"+id, strings.NewReader(`{"status":"Viewing","priority":1}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body.String())
	}
	patched := decode(t, rr)
	if patched["status"] != "Viewing" || patched["available_from"] != nil {
		t.Fatalf("available_from must clear when leaving Available: %v", patched)
	}
	if patched["last_update"] == nil {
		t.Fatalf("edit must refresh last_update")
	}

	rr = h.do(t, http.MethodPost, "/api/listings/"+id+"/processed", nil)
	if rr.Code != http.StatusOK || decode(t, rr)["inbox"] != false {
		t.Fatalf("processed status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(t, http.MethodGet, "/api/listings/"+id+"/tenant-text", nil)
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("tenant text status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "Vertica") {
		t.Fatalf("tenant text missing name: %q", rr.Body.String())
	}

	rr = h.do(t, http.MethodPut, "/api/listings/"+id+"/deal", strings.NewReader(`{"gross":"2,000","commission_rate":150,"deductions":-5}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("deal status=%d body=%s", rr.Code, rr.Body.String())
	}
	income := decode(t, rr)["income"].(map[string]any)
	if income["commission_rate"] != 100.0 || income["deductions"] != 0.0 || income["net"] != 2000.0 {
		t.Fatalf("deal income = %v", income)
	}

	photo := h.uploadPhoto(t, id)
	u, err := url.Parse(photo["url"].(string))
	if err != nil {
		t.Fatal(err)
	}
	rr = h.do(t, http.MethodGet, u.Path, nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("storage get status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rr.Body.Bytes(), pngBytes) {
		t.Fatalf("storage body mismatch")
	}

	rr = h.do(t, http.MethodGet, "/api/listings/"+id, nil)
	detail := decode(t, rr)
	if len(detail["photos"].([]any)) != 1 || detail["deal"] == nil || detail["income"] == nil {
		t.Fatalf("detail = %v", detail)
	}

	rr = h.do(t, http.MethodDelete, "/api/listings/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr); got["ok"] != true || got["removed_photos"] != 1.0 {
		t.Fatalf("delete body = %v", got)
	}

	rr = h.do(t, http.MethodDelete, "/api/listings/"+id, nil)
	if rr.Code != http.StatusNotFound || decode(t, rr)["stage"] != services.StageLookup {
		t.Fatalf("second delete status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := h.do(t, http.MethodGet, u.Path, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("object survived delete: %d", rr.Code)
	}
}

func TestDeleteStorageFailureIsBadGateway(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Objects = removeFails{d.Objects} })
	id := h.createListing(t, `{"type":"sale","condo_name":"Arte"}`)
	h.uploadPhoto(t, id)

	rr := h.do(t, http.MethodDelete, "/api/listings/"+id, nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if decode(t, rr)["stage"] != services.StageStorage {
		t.Fatalf("body must name the storage stage: %s", rr.Body.String())
	}
	if rr := h.do(t, http.MethodGet, "/api/listings/"+id, nil); rr.Code != http.StatusOK {
		t.Fatalf("listing must survive a storage failure, got %d", rr.Code)
	}
}

func TestQuickCapture(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/api/listings/quick",
		strings.NewReader(`{"text":"Vertica Residency\nCheras\nRM 1,800 3R 2B fully furnished"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode(t, rr)
	if got["condo_name"] != "Vertica Residency" || got["inbox"] != true || got["price"] != 1800.0 {
		t.Fatalf("quick listing = %v", got)
	}

	rr = h.do(t, http.MethodGet, "/api/listings?view=inbox", nil)
	counts := decode(t, rr)["counts"].(map[string]any)
	if counts["inbox"] != 1.0 {
		t.Fatalf("inbox count = %v", counts)
	}

	if rr := h.do(t, http.MethodPost, "/api/listings/quick", strings.NewReader(`{"text":"  "}`)); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank text status=%d", rr.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"empty name", http.MethodPost, "/api/listings", `{"type":"rent","condo_name":"  "}`, http.StatusUnprocessableEntity},
		{"bad type", http.MethodPost, "/api/listings", `{"type":"lease","condo_name":"A"}`, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/api/listings", `{"type":"rent","condo_name":"A","colour":"red"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/listings", ``, http.StatusBadRequest},
		{"queue bad status", http.MethodGet, "/api/listings?status=Sold", "", http.StatusBadRequest},
		{"missing listing", http.MethodGet, "/api/listings/nope", "", http.StatusNotFound},
		{"patch missing listing", http.MethodPatch, "/api/listings/nope", `{"area":"x"}`, http.StatusNotFound},
		{"bad month", http.MethodGet, "/api/income?month=2026-13", "", http.StatusBadRequest},
		{"dashboard inverted", http.MethodGet, "/api/dashboard?from=2026-05&to=2026-01", "", http.StatusBadRequest},
		{"dashboard bad type", http.MethodGet, "/api/dashboard?type=lease", "", http.StatusBadRequest},
		{"deals inverted", http.MethodGet, "/api/deals?from=2026-02-01&to=2026-01-01", "", http.StatusBadRequest},
		{"deals missing to", http.MethodGet, "/api/deals?from=2026-02-01", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/listings", `{}`, http.StatusMethodNotAllowed},
		{"wrong method on item", http.MethodPost, "/api/listings/abc/tenant-text", `{}`, http.StatusMethodNotAllowed},
		{"wrong method on income", http.MethodDelete, "/api/income", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" || tc.method == http.MethodPost {
				body = strings.NewReader(tc.body)
			}
			rr := h.do(t, tc.method, tc.target, body)
			if rr.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.want, rr.Body.String())
			}
			if _, ok := decode(t, rr)["error"]; !ok {
				t.Fatalf("error body missing: %s", rr.Body.String())
			}
		})
	}
}

func TestIncomeEndpoints(t *testing.T) {
	h := newHarness(t)
	id := h.createListing(t, `{"type":"rent","condo_name":"Vertica"}`)
	h.do(t, http.MethodPut, "/api/listings/"+id+"/deal", strings.NewReader(`{"gross":1000,"commission_rate":50,"deductions":100}`))

	rr := h.do(t, http.MethodGet, "/api/income?month=2026-03", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("income status=%d", rr.Code)
	}
	mi := decode(t, rr)
	if mi["total_net"] != 400.0 || len(mi["lines"].([]any)) != 1 {
		t.Fatalf("month income = %v", mi)
	}

	rr = h.do(t, http.MethodGet, "/api/dashboard?from=2026-01&to=2026-03&type=rent", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if d := decode(t, rr); d["all_time_net"] != 400.0 || d["range_net"] != 400.0 || d["rent"] != 1.0 {
		t.Fatalf("dashboard = %v", d)
	}

	rr = h.do(t, http.MethodGet, "/api/deals?from=2026-03-10&to=2026-03-10", nil)
	if rr.Code != http.StatusOK || len(decode(t, rr)["lines"].([]any)) != 1 {
		t.Fatalf("deals status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestExportListings(t *testing.T) {
	h := newHarness(t)
	h.createListing(t, `{"type":"rent","condo_name":"Vertica, Tower \"A\""}`)

	rr := h.do(t, http.MethodGet, "/api/export/listings", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="property-backup-`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), `"Vertica, Tower ""A"""`) {
		t.Fatalf("csv body = %q", rr.Body.String())
	}
}

func TestStorageRejectsOtherBuckets(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodGet, "/storage/v1/object/public/other/listings/1/a.png", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestAuthGuardsAPI(t *testing.T) {
	a := auth.New("test-secret", "")
	h := newHarness(t, func(d *Deps) { d.Auth = a })

	if rr := h.do(t, http.MethodGet, "/api/listings", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d", rr.Code)
	}
	if rr := h.do(t, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz must stay public, got %d", rr.Code)
	}

	token, err := a.IssueToken("agent-1", "agent", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if rr := h.do(t, http.MethodGet, "/api/listings", nil, "Authorization", "Bearer "+token); rr.Code != http.StatusOK {
		t.Fatalf("bearer status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMiddlewareChain(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodGet, "/healthz", nil, "X-Request-ID", "req-abc", "Origin", "http://app.test")
	if got := rr.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Fatalf("request id = %q", got)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("CORS header missing")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}

	if rr := h.do(t, http.MethodGet, "/api/listings?next=../../etc/passwd", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("probe status=%d", rr.Code)
	}

	limited := newHarness(t, func(d *Deps) {
		d.RateLimit = ratelimit.Config{Requests: 2, Window: time.Minute, CleanupInterval: time.Hour}
	})
	var last int
	for i := 0; i < 3; i++ {
		last = limited.do(t, http.MethodGet, "/healthz", nil).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d", last)
	}
}
