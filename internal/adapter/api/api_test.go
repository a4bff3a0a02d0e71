package api

import (
	"bytes"
	"encoding/json"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	sessionstorage "github.com/burenotti/go_health_funnel/internal/adapter/storage/sessions"
	"github.com/burenotti/go_health_funnel/internal/app/auth"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/app/messagebus"
	"github.com/burenotti/go_health_funnel/internal/domain/nutrition"
	"github.com/burenotti/go_health_funnel/internal/domain/pricing"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := sessionstorage.NewMemoryBackend()
	bus := messagebus.New(logger)
	t.Cleanup(bus.Close)

	return NewServer(
		Logger(logger),
		DBContext(storage.Nop{}),
		SessionStorage(func(db storage.DBContext) funnelapp.SessionStorage { return backend.Storage(db) }),
		FunnelService(funnelapp.New(logger, nutrition.NewEstimator(nutrition.FixedDeficit), pricing.DefaultCatalog(""), time.Hour)),
		Authorizer(auth.NewAuthorizer("test-secret", "funnel")),
		MessageBus(bus),
	)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}

func TestFunnelFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/funnel/sessions", "", nil)
	expectStatus(t, rec, http.StatusCreated)
	view := decode[sessionView](t, rec)
	if view.Stage != "welcome" || view.Token == "" || view.TotalSteps != 8 {
		t.Fatalf("unexpected session view %+v", view)
	}
	token := view.Token

	rec = do(t, s, http.MethodGet, "/funnel/results", token, nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, s, http.MethodPost, "/funnel/start", token, nil)
	expectStatus(t, rec, http.StatusOK)
	view = decode[sessionView](t, rec)
	if view.Question == nil || view.Question.Key != "has_account" || view.Question.CanAdvance {
		t.Fatalf("unexpected first question %+v", view.Question)
	}

	rec = do(t, s, http.MethodPost, "/funnel/next", token, nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	answers := []string{"não", "feminino", "30", "60", "165", "perder", "sedentario", "ana@example.com"}
	for _, a := range answers {
		rec = do(t, s, http.MethodPut, "/funnel/answer", token, answerReq{Value: a})
		expectStatus(t, rec, http.StatusOK)
		rec = do(t, s, http.MethodPost, "/funnel/next", token, nil)
		expectStatus(t, rec, http.StatusOK)
	}
	view = decode[sessionView](t, rec)
	if view.Stage != "results" || view.Progress != 100 || view.Answers["has_account"] != "no" {
		t.Fatalf("unexpected view after questionnaire %+v", view)
	}

	rec = do(t, s, http.MethodGet, "/funnel/results", token, nil)
	expectStatus(t, rec, http.StatusOK)
	plan := decode[planView](t, rec)
	if plan.Calories != 1160 || plan.ProteinG != 120 || plan.FatG != 32 || plan.CarbsG != 98 || plan.WaterL != "2.1" || plan.FiberG != 25 {
		t.Errorf("unexpected plan %+v", plan)
	}

	rec = do(t, s, http.MethodPost, "/funnel/checkout", token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodPost, "/funnel/plan", token, selectPlanReq{PlanID: "weekly"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, s, http.MethodPost, "/funnel/plan", token, selectPlanReq{PlanID: "monthly"})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/funnel/payment", token, nil)
	expectStatus(t, rec, http.StatusOK)
	payment := decode[paymentView](t, rec)
	if payment.Pix.Amount != "R$ 12,90" || payment.CustomerEmail != "ana@example.com" {
		t.Errorf("unexpected payment %+v", payment)
	}
	if !strings.HasPrefix(payment.ReceiptMailto, "mailto:pana74269@gmail.com?subject=") {
		t.Errorf("unexpected mailto %q", payment.ReceiptMailto)
	}

	rec = do(t, s, http.MethodPost, "/funnel/payment/back", token, nil)
	expectStatus(t, rec, http.StatusOK)
	view = decode[sessionView](t, rec)
	if view.Stage != "pricing" || view.Plan != "" {
		t.Errorf("unexpected view after return %+v", view)
	}

	rec = do(t, s, http.MethodPost, "/funnel/start", token, nil)
	expectStatus(t, rec, http.StatusConflict)
}

func TestFunnel_Unauthorized(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "garbage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/funnel", tc.token, nil)
			expectStatus(t, rec, http.StatusUnauthorized)
		})
	}
}

func TestFunnel_UnknownSession(t *testing.T) {
	s := newTestServer(t)
	token, err := s.authorizer.GenerateSessionToken("missing", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	rec := do(t, s, http.MethodGet, "/funnel", token, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestEstimate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/estimate", "", estimateReq{
		Sex:           "masculino",
		Age:           28,
		WeightKg:      75,
		HeightCm:      175,
		ActivityLevel: "moderado",
	})
	expectStatus(t, rec, http.StatusOK)
	plan := decode[planView](t, rec)
	if plan.BMR != 1774 || plan.TDEE != 2750 || plan.Calories != 2250 || plan.CarbsG != 272 || plan.WaterL != "2.6" {
		t.Errorf("unexpected plan %+v", plan)
	}
}

func TestEstimate_Invalid(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		req  estimateReq
		want int
	}{
		{"missing age", estimateReq{Sex: "male", WeightKg: 70, HeightCm: 170, ActivityLevel: "light"}, http.StatusBadRequest},
		{"unknown sex", estimateReq{Sex: "x", Age: 30, WeightKg: 70, HeightCm: 170, ActivityLevel: "light"}, http.StatusUnprocessableEntity},
		{"unknown activity", estimateReq{Sex: "male", Age: 30, WeightKg: 70, HeightCm: 170, ActivityLevel: "extreme"}, http.StatusUnprocessableEntity},
		{"unknown goal", estimateReq{Sex: "male", Age: 30, WeightKg: 70, HeightCm: 170, ActivityLevel: "light", Goal: "bulk"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/estimate", "", tc.req)
			expectStatus(t, rec, tc.want)
		})
	}
}

func TestPricingAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/pricing", "", nil)
	expectStatus(t, rec, http.StatusOK)
	catalog := decode[catalogView](t, rec)
	if len(catalog.Plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(catalog.Plans))
	}
	annual := catalog.Plans[1]
	if annual.ID != "annual" || annual.Price != "R$ 25,00" || !annual.Highlighted || annual.SavingsPercent != 84 {
		t.Errorf("unexpected annual plan %+v", annual)
	}

	rec = do(t, s, http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)
}
