package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/debtrail/debtrail/internal/auth"
	"github.com/debtrail/debtrail/internal/notify"
	"github.com/debtrail/debtrail/internal/service"
	"github.com/debtrail/debtrail/internal/storage/sqlite"
)

const testGatewaySecret = "test-gateway-secret"

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "debtrail-server-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	linking := service.NewLinkingService(store)
	srv := New(
		service.NewDebtService(store, linking, notify.Noop{}),
		service.NewPaymentService(store, notify.Noop{}),
		service.NewProfileService(store, linking),
		linking,
		jwtManager,
		testGatewaySecret,
	)
	return &testServer{router: srv.Router(), jwt: jwtManager}
}

// do sends a JSON request. An empty token leaves the Authorization header off.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// registerUser provisions a profile via the API and returns its id and token.
func (ts *testServer) registerUser(t *testing.T, name, email, phoneNumber string) (string, string) {
	t.Helper()

	userID := uuid.New().String()
	token, err := ts.jwt.Generate(userID, email, phoneNumber)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	rec := ts.do(t, http.MethodPut, "/v1/profile", token, gin.H{
		"name":         name,
		"email":        email,
		"phone_number": phoneNumber,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /v1/profile = %d: %s", rec.Code, rec.Body.String())
	}
	return userID, token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/debts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/v1/debts", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestDebtEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, lenderToken := ts.registerUser(t, "Lender", "lender@example.com", "+2348011111111")
	_, strangerToken := ts.registerUser(t, "Stranger", "stranger@example.com", "")

	due := time.Now().Add(30 * 24 * time.Hour).Unix()

	rec := ts.do(t, http.MethodPost, "/v1/debts", lenderToken, gin.H{
		"debtor_phone_number": "+2348012345678",
		"principal":           "10000",
		"interest_rate":       10,
		"due_date":            due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/debts = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	debtID, _ := created["id"].(string)
	if debtID == "" {
		t.Fatal("created debt has no id")
	}
	if created["total_amount"] != "11000" {
		t.Errorf("total_amount = %v, want 11000", created["total_amount"])
	}
	if created["status"] != "PENDING" {
		t.Errorf("status = %v, want PENDING", created["status"])
	}

	t.Run("validation errors map to 400", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/debts", lenderToken, gin.H{
			"debtor_phone_number": "+2348012345678",
			"principal":           "1",
			"interest_rate":       10,
			"due_date":            due,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("get as lender", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/debts/"+debtID, lenderToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("get as stranger maps to 403", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/debts/"+debtID, strangerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown debt maps to 404", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/debts/"+uuid.New().String(), lenderToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("list as lender", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/debts?role=lender", lenderToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		debts, _ := body["debts"].([]any)
		if len(debts) != 1 {
			t.Errorf("debts = %d, want 1", len(debts))
		}
	})

	t.Run("edit notes", func(t *testing.T) {
		rec := ts.do(t, http.MethodPatch, "/v1/debts/"+debtID, lenderToken, gin.H{
			"notes": "lunch money",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["notes"] != "lunch money" {
			t.Errorf("notes = %v, want lunch money", body["notes"])
		}
	})

	t.Run("mark defaulted", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/debts/"+debtID+"/default", lenderToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["status"] != "DEFAULTED" {
			t.Errorf("status = %v, want DEFAULTED", body["status"])
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/v1/debts/"+debtID, lenderToken, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPaymentEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, lenderToken := ts.registerUser(t, "Lender", "lender@example.com", "+2348011111111")

	due := time.Now().Add(30 * 24 * time.Hour).Unix()
	rec := ts.do(t, http.MethodPost, "/v1/debts", lenderToken, gin.H{
		"debtor_phone_number": "+2348012345678",
		"principal":           "10000",
		"interest_rate":       10,
		"due_date":            due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/debts = %d: %s", rec.Code, rec.Body.String())
	}
	debtID := decodeBody(t, rec)["id"].(string)

	rec = ts.do(t, http.MethodPost, "/v1/debts/"+debtID+"/payments", lenderToken, gin.H{
		"amount": "4000",
		"notes":  "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST payments = %d: %s", rec.Code, rec.Body.String())
	}
	payment := decodeBody(t, rec)
	if payment["status"] != "SUCCESSFUL" {
		t.Errorf("payment status = %v, want SUCCESSFUL", payment["status"])
	}
	if payment["gateway"] != "manual" {
		t.Errorf("gateway = %v, want manual", payment["gateway"])
	}

	rec = ts.do(t, http.MethodGet, "/v1/debts/"+debtID+"/payments", lenderToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET payments = %d: %s", rec.Code, rec.Body.String())
	}
	payments, _ := decodeBody(t, rec)["payments"].([]any)
	if len(payments) != 1 {
		t.Errorf("payments = %d, want 1", len(payments))
	}

	rec = ts.do(t, http.MethodGet, "/v1/debts/"+debtID, lenderToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET debt = %d: %s", rec.Code, rec.Body.String())
	}
	if balance := decodeBody(t, rec)["outstanding_balance"]; balance != "7000" {
		t.Errorf("outstanding_balance = %v, want 7000", balance)
	}
}

func TestGatewayWebhook(t *testing.T) {
	ts := newTestServer(t)
	_, lenderToken := ts.registerUser(t, "Lender", "lender@example.com", "+2348011111111")

	due := time.Now().Add(30 * 24 * time.Hour).Unix()
	rec := ts.do(t, http.MethodPost, "/v1/debts", lenderToken, gin.H{
		"debtor_phone_number": "+2348012345678",
		"principal":           "10000",
		"interest_rate":       10,
		"due_date":            due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/debts = %d: %s", rec.Code, rec.Body.String())
	}
	debtID := decodeBody(t, rec)["id"].(string)

	webhook := func(secret string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		payload := gin.H{
			"reference": "txn-hook-001",
			"debt_id":   debtID,
			"amount":    "5000",
			"gateway":   "paystack",
			"status":    "SUCCESSFUL",
		}
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/gateway/payments", &buf)
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set("X-Gateway-Secret", secret)
		}
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("rejects a missing or wrong secret", func(t *testing.T) {
		if rec := webhook(""); rec.Code != http.StatusUnauthorized {
			t.Errorf("no secret: status = %d, want 401", rec.Code)
		}
		if rec := webhook("wrong"); rec.Code != http.StatusUnauthorized {
			t.Errorf("wrong secret: status = %d, want 401", rec.Code)
		}
	})

	t.Run("applies once, replay is a no-op", func(t *testing.T) {
		if rec := webhook(testGatewaySecret); rec.Code != http.StatusOK {
			t.Fatalf("first webhook = %d: %s", rec.Code, rec.Body.String())
		}
		if rec := webhook(testGatewaySecret); rec.Code != http.StatusOK {
			t.Fatalf("replayed webhook = %d: %s", rec.Code, rec.Body.String())
		}

		rec := ts.do(t, http.MethodGet, "/v1/debts/"+debtID, lenderToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET debt = %d: %s", rec.Code, rec.Body.String())
		}
		if balance := decodeBody(t, rec)["outstanding_balance"]; balance != "6000" {
			t.Errorf("outstanding_balance = %v, want 6000", balance)
		}
	})
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestServer(t)
	userID, token := ts.registerUser(t, "Ada", "ada@example.com", "+2348011111111")

	rec := ts.do(t, http.MethodGet, "/v1/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/profile = %d: %s", rec.Code, rec.Body.String())
	}
	profile := decodeBody(t, rec)
	if profile["id"] != userID {
		t.Errorf("id = %v, want %s", profile["id"], userID)
	}
	if profile["phone_number"] != "+2348011111111" {
		t.Errorf("phone_number = %v, want canonical form", profile["phone_number"])
	}

	t.Run("conflicting email maps to the owner", func(t *testing.T) {
		otherID := uuid.New().String()
		otherToken, err := ts.jwt.Generate(otherID, "ada@example.com", "")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := ts.do(t, http.MethodPut, "/v1/profile", otherToken, gin.H{
			"name":  "Ada Again",
			"email": "ada@example.com",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT /v1/profile = %d: %s", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["id"] != userID {
			t.Errorf("id = %v, want email owner %s", body["id"], userID)
		}
	})

	t.Run("delete profile", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/v1/profile", token, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("DELETE /v1/profile = %d: %s", rec.Code, rec.Body.String())
		}
		rec = ts.do(t, http.MethodGet, "/v1/profile", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET after delete = %d, want 404", rec.Code)
		}
	})

	t.Run("link sweep endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/maintenance/link-sweep", nil)
		req.Header.Set("X-Gateway-Secret", testGatewaySecret)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("POST link-sweep = %d: %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/maintenance/link-sweep", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("no secret: status = %d, want 401", rec.Code)
		}
	})
}
