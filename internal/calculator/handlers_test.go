package calculator

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"calc-history/internal/history"
	"calc-history/internal/testutil"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *manualScheduler) {
	t.Helper()
	log := history.New(history.NewMemoryStore(), zap.NewNop())
	t.Cleanup(log.Wait)

	sched := &manualScheduler{}
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(NewSession(log, sched, 0)))
	return r, sched
}

func TestHandlersApplyInput(t *testing.T) {
	h, _ := newTestRouter(t)

	steps := []struct{ path, body string }{
		{"/calculator/digit", `{"token":"1"}`},
		{"/calculator/digit", `{"token":"2"}`},
		{"/calculator/operator", `{"token":"add"}`},
		{"/calculator/key", `{"key":"8"}`},
		{"/calculator/command", `{"token":"equals"}`},
	}

	var w *httptest.ResponseRecorder
	for _, step := range steps {
		w = testutil.PostJSON(h, step.path, step.body)
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	}

	var v View
	testutil.DecodeJSONBody(t, w.Body, &v)
	if v.Display != "20" {
		t.Fatalf("expected display 20, got %q", v.Display)
	}
	if len(v.History) != 1 || v.History[0] != "12 + 8 = 20" {
		t.Fatalf("expected history [12 + 8 = 20], got %q", v.History)
	}
}

func TestHandlersRejectBadInput(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name, path, body string
	}{
		{name: "unknown digit", path: "/calculator/digit", body: `{"token":"x"}`},
		{name: "unknown operator", path: "/calculator/operator", body: `{"token":"^"}`},
		{name: "unknown command", path: "/calculator/command", body: `{"token":"undo"}`},
		{name: "unknown key", path: "/calculator/key", body: `{"key":"Tab"}`},
		{name: "malformed body", path: "/calculator/digit", body: `{"token":`},
		{name: "malformed key body", path: "/calculator/key", body: `[]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.PostJSON(h, tc.path, tc.body)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestHandlersDivisionByZeroIsAView(t *testing.T) {
	h, sched := newTestRouter(t)

	for _, key := range []string{"7", "/", "0", "="} {
		w := testutil.PostJSON(h, "/calculator/key", `{"key":"`+key+`"}`)
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	}

	w := testutil.Get(h, "/calculator")
	var v View
	testutil.DecodeJSONBody(t, w.Body, &v)
	if !v.Error || v.Display != ErrorDisplay {
		t.Fatalf("expected Error view, got %+v", v)
	}

	sched.Advance(DefaultErrorReset)

	w = testutil.Get(h, "/calculator")
	v = View{}
	testutil.DecodeJSONBody(t, w.Body, &v)
	if v.Error || v.Display != "0" {
		t.Fatalf("expected cleared view, got %+v", v)
	}
}

func TestHandlersHistory(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, key := range []string{"6", "*", "7", "Enter"} {
		testutil.PostJSON(h, "/calculator/key", `{"key":"`+key+`"}`)
	}

	w := testutil.Get(h, "/calculator/history")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if len(resp.Records) != 1 || resp.Records[0].Text != "6 × 7 = 42" {
		t.Fatalf("expected one record 6 × 7 = 42, got %+v", resp.Records)
	}
	if resp.Records[0].Timestamp.IsZero() {
		t.Fatal("expected record timestamp")
	}

	w = testutil.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/calculator/history", nil), h)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var v View
	testutil.DecodeJSONBody(t, w.Body, &v)
	if len(v.History) != 0 || v.Display != "42" {
		t.Fatalf("expected empty history and display 42, got %+v", v)
	}
}

func TestHandlersKeys(t *testing.T) {
	h, _ := newTestRouter(t)

	w := testutil.PostJSON(h, "/calculator/keys", `{"keys":["2","+","3","*","4","Enter"]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp KeysResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if len(resp.Steps) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(resp.Steps))
	}
	if resp.Steps[3].Display != "5" || resp.Steps[3].Input != "operator" {
		t.Fatalf("expected chained result 5 after operator, got %+v", resp.Steps[3])
	}
	if resp.View.Display != "20" {
		t.Fatalf("expected display 20, got %q", resp.View.Display)
	}
}

func TestHandlersKeysRejectsWholeSequence(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, body := range []string{`{"keys":[]}`, `{"keys":["1","?","2"]}`, `nope`} {
		w := testutil.PostJSON(h, "/calculator/keys", body)
		testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
	}

	var v View
	testutil.DecodeJSONBody(t, testutil.Get(h, "/calculator").Body, &v)
	if v.Display != "0" {
		t.Fatalf("expected untouched session, got display %q", v.Display)
	}
}
