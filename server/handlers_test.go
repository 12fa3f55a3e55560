package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-payment-broker/internal/config"
	"github.com/jrsteele09/go-payment-broker/payments"
	"github.com/jrsteele09/go-payment-broker/server"
	"github.com/jrsteele09/go-payment-broker/upstream"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.EnvVars
	config.Cors
	config.Banking
}

// stubMinter avoids real key material in HTTP-layer tests
type stubMinter struct{}

func (stubMinter) Mint() (string, error) { return "test-assertion", nil }

type serverFixture struct {
	repo   *payments.InMemorySessionRepo
	broker *httptest.Server
}

// setupServerFixture wires the full broker against a stub open-banking API.
func setupServerFixture(t *testing.T, upstreamStatus string) *serverFixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-assertion", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"payment_id":"p1","url":"https://bank/auth","session_id":"s1"}`))
	})
	mux.HandleFunc("GET /payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"` + upstreamStatus + `"}`))
	})
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"https://bank/consent","session_id":"s9"}`))
	})
	mux.HandleFunc("GET /aspsps", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "FI", r.URL.Query().Get("country"))
		_, _ = w.Write([]byte(`{"aspsps":[{"name":"Nordea","country":"FI"}]}`))
	})
	upstreamStub := httptest.NewServer(mux)
	t.Cleanup(upstreamStub.Close)

	client := upstream.New(upstreamStub.URL, 5*time.Second, stubMinter{})
	repo := payments.NewInMemorySessionRepo()
	service := payments.NewService(client, repo, "http://localhost:8080/callback")

	broker := httptest.NewServer(server.New(testConfig{}, service))
	t.Cleanup(broker.Close)

	return &serverFixture{repo: repo, broker: broker}
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestCreatePaymentEndpoint(t *testing.T) {
	t.Run("creates a payment and returns the redirect target", func(t *testing.T) {
		f := setupServerFixture(t, "pending")

		resp, body := postJSON(t, f.broker.URL+"/api/payments",
			`{"amount":100,"creditorIban":"FI0012345600000785","creditorName":"Jane Doe","bankName":"Nordea","bankCountry":"FI"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.Equal(t, true, body["success"])
		require.Equal(t, "p1", body["paymentId"])
		require.Equal(t, "https://bank/auth", body["authUrl"])

		payment := body["payment"].(map[string]any)
		require.Equal(t, "pending", payment["status"])
		require.Equal(t, "100", payment["amount"])
		require.Equal(t, "Jane Doe", payment["creditorName"])

		stored, err := f.repo.Get("p1")
		require.NoError(t, err)
		require.Equal(t, payments.StatusPending, stored.Status)
	})

	t.Run("missing fields yield 400 with an error envelope", func(t *testing.T) {
		f := setupServerFixture(t, "pending")

		resp, body := postJSON(t, f.broker.URL+"/api/payments", `{"amount":100}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body["error"], "missing required fields")
		require.Empty(t, f.repo.List())
	})

	t.Run("malformed JSON yields 400", func(t *testing.T) {
		f := setupServerFixture(t, "pending")

		resp, body := postJSON(t, f.broker.URL+"/api/payments", `{not-json`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.NotEmpty(t, body["error"])
	})
}

func TestPaymentStatusEndpoint(t *testing.T) {
	t.Run("unknown id yields 404", func(t *testing.T) {
		f := setupServerFixture(t, "pending")

		resp, body := getJSON(t, f.broker.URL+"/api/payments/missing")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Contains(t, string(body), "not found")
	})

	t.Run("upstream status overwrites local state on poll", func(t *testing.T) {
		f := setupServerFixture(t, "SettlementCompleted")
		require.NoError(t, f.repo.Upsert("p1", payments.Session{
			ID:                "p1",
			Status:            payments.StatusPending,
			UpstreamSessionID: "s1",
		}))

		resp, body := getJSON(t, f.broker.URL+"/api/payments/p1")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var session payments.Session
		require.NoError(t, json.Unmarshal(body, &session))
		require.Equal(t, "SettlementCompleted", session.Status)
	})
}

func TestListPaymentsEndpoint(t *testing.T) {
	f := setupServerFixture(t, "pending")
	require.NoError(t, f.repo.Upsert("p1", payments.Session{ID: "p1"}))
	require.NoError(t, f.repo.Upsert("p2", payments.Session{ID: "p2"}))

	resp, body := getJSON(t, f.broker.URL+"/api/payments")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessions []payments.Session
	require.NoError(t, json.Unmarshal(body, &sessions))
	require.Len(t, sessions, 2)
}

func TestConnectEndpoint(t *testing.T) {
	f := setupServerFixture(t, "pending")

	resp, body := postJSON(t, f.broker.URL+"/api/connect", `{"bankName":"Nordea","bankCountry":"FI"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.Equal(t, "https://bank/consent", body["authUrl"])
	require.Equal(t, "s9", body["sessionId"])

	resp, body = postJSON(t, f.broker.URL+"/api/connect", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "missing required fields")
}

func TestBanksEndpoint(t *testing.T) {
	f := setupServerFixture(t, "pending")

	resp, body := getJSON(t, f.broker.URL+"/api/banks/fi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"aspsps":[{"name":"Nordea","country":"FI"}]}`, string(body))
}

func TestCallbackEndpoint(t *testing.T) {
	t.Run("authorization callback renders the success page and authorizes the session", func(t *testing.T) {
		f := setupServerFixture(t, "pending")
		require.NoError(t, f.repo.Upsert("payment_12345", payments.Session{
			ID:               "payment_12345",
			Kind:             payments.KindPayment,
			Status:           payments.StatusPending,
			CorrelationToken: "payment_12345",
		}))

		resp, body := getJSON(t, f.broker.URL+"/callback?code=abc&state=payment_12345")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		require.Contains(t, string(body), "Payment Authorized")
		require.Contains(t, string(body), "payment_12345")

		stored, err := f.repo.Get("payment_12345")
		require.NoError(t, err)
		require.Equal(t, payments.StatusAuthorized, stored.Status)
		require.Equal(t, "abc", stored.AuthCode)
	})

	t.Run("error callback renders the failure page without touching the store", func(t *testing.T) {
		f := setupServerFixture(t, "pending")
		require.NoError(t, f.repo.Upsert("payment_12345", payments.Session{
			ID:     "payment_12345",
			Status: payments.StatusPending,
		}))

		resp, body := getJSON(t, f.broker.URL+"/callback?error=access_denied")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), "Payment Not Completed")
		require.Contains(t, string(body), "access_denied")

		stored, err := f.repo.Get("payment_12345")
		require.NoError(t, err)
		require.Equal(t, payments.StatusPending, stored.Status)
	})

	t.Run("orphan callback still renders a terminal page", func(t *testing.T) {
		f := setupServerFixture(t, "pending")

		resp, body := getJSON(t, f.broker.URL+"/callback?code=abc&state=payment_99999")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), "Payment Authorized")
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := setupServerFixture(t, "pending")

	resp, body := getJSON(t, f.broker.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, "healthy", decoded["status"])
	require.NotEmpty(t, decoded["timestamp"])
}

func TestCorsHeaders(t *testing.T) {
	f := setupServerFixture(t, "pending")

	req, err := http.NewRequest(http.MethodGet, f.broker.URL+"/api/payments", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
