// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "valley-ledger/internal"
)

const (
	superEmail    = "root@valley.test"
	superPassword = "root-password"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain runs the suite against a real PostgreSQL database. It is skipped
// unless LEDGER_INTEGRATION=1.
func TestMain(m *testing.M) {
	if os.Getenv("LEDGER_INTEGRATION") != "1" {
		fmt.Println("LEDGER_INTEGRATION not set, skipping API integration tests")
		os.Exit(0)
	}
	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	code := m.Run()
	testServer.Close()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func setupEnvVars() {
	defaults := map[string]string{
		"DB_NAME":             "ledgerdb_test",
		"DB_SSLMODE":          "disable",
		"DB_AUTO_MIGRATE":     "true",
		"JWT_SECRET":          "integration-secret",
		"SUPERADMIN_EMAIL":    superEmail,
		"SUPERADMIN_PASSWORD": superPassword,
	}
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// clearDatabase truncates every table and re-seeds the superadmin.
func clearDatabase(t *testing.T) {
	_, err := testApp.DB.Exec("TRUNCATE TABLE transactions, cards, loan_applications, users, admins RESTART IDENTITY CASCADE;")
	require.NoError(t, err)
	require.NoError(t, testApp.AccountService.EnsureSuperAdmin(context.Background(), superEmail, superPassword))
}

// makeRequest sends an HTTP request to the test server and decodes a JSON object body.
func makeRequest(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func login(t *testing.T, path, email, password string) (string, string) {
	status, body := makeRequest(t, http.MethodPost, path, "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string), body["id"].(string)
}

func openAccount(t *testing.T, name, email string) map[string]any {
	status, body := makeRequest(t, http.MethodPost, "/accounts", "", map[string]string{
		"fullname": name, "email": email, "phone": "555-0100", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

func money(t *testing.T, v any) decimal.Decimal {
	d, err := decimal.NewFromString(v.(string))
	require.NoError(t, err)
	return d
}

func TestTransferFlowIntegration(t *testing.T) {
	clearDatabase(t)

	superToken, _ := login(t, "/admin/auth/login", superEmail, superPassword)

	status, created := makeRequest(t, http.MethodPost, "/admin/admins", superToken, map[string]string{
		"username": "teller", "email": "teller@valley.test", "password": "teller-pass",
	})
	require.Equal(t, http.StatusCreated, status, created)
	adminID := created["id"].(string)

	status, wallet := makeRequest(t, http.MethodPost, "/admin/admins/"+adminID+"/wallet/fund", superToken, map[string]string{"amount": "500.00"})
	require.Equal(t, http.StatusOK, status, wallet)
	assert.True(t, decimal.RequireFromString("500").Equal(money(t, wallet["wallet"])))

	adminToken, _ := login(t, "/admin/auth/login", "teller@valley.test", "teller-pass")

	alice := openAccount(t, "Alice Doe", "alice@valley.test")
	bob := openAccount(t, "Bob Roe", "bob@valley.test")
	aliceToken, _ := login(t, "/auth/login", "alice@valley.test", "secret-pass")

	status, _ = makeRequest(t, http.MethodPost, "/me/pin", aliceToken, map[string]string{"pin": "1234", "confirm_pin": "1234"})
	require.Equal(t, http.StatusOK, status)

	status, funded := makeRequest(t, http.MethodPost, "/admin/users/"+alice["id"].(string)+"/fund", adminToken, map[string]string{
		"account_type": "current", "amount": "100.00",
	})
	require.Equal(t, http.StatusOK, status, funded)
	assert.True(t, decimal.RequireFromString("400").Equal(money(t, funded["from_balance"])))

	t.Run("SuccessfulTransfer", func(t *testing.T) {
		status, body := makeRequest(t, http.MethodPost, "/transfers", aliceToken, map[string]string{
			"account_number":    bob["savings_account_number"].(string),
			"from_account_type": "current",
			"to_account_type":   "savings",
			"amount":            "30.00",
			"pin":               "1234",
		})
		require.Equal(t, http.StatusOK, status, body)
		assert.NotEmpty(t, body["correlation_id"])
		assert.Len(t, body["transaction_ids"], 2)
		assert.True(t, decimal.RequireFromString("70").Equal(money(t, body["from_balance"])))
		assert.True(t, decimal.RequireFromString("30").Equal(money(t, body["to_balance"])))
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		status, body := makeRequest(t, http.MethodPost, "/transfers", aliceToken, map[string]string{
			"account_number":    bob["savings_account_number"].(string),
			"from_account_type": "current",
			"amount":            "1000.00",
			"pin":               "1234",
		})
		assert.Equal(t, http.StatusPaymentRequired, status)
		assert.Equal(t, "Insufficient funds", body["error"])
	})

	t.Run("WrongPin", func(t *testing.T) {
		status, body := makeRequest(t, http.MethodPost, "/transfers", aliceToken, map[string]string{
			"account_number": bob["savings_account_number"].(string),
			"amount":         "1.00",
			"pin":            "9999",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("HistoryShowsDebitLeg", func(t *testing.T) {
		status, body := makeRequest(t, http.MethodGet, "/transactions", aliceToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, 2, body["total_count"])
	})

	t.Run("ProfileReflectsBalances", func(t *testing.T) {
		status, body := makeRequest(t, http.MethodGet, "/me", aliceToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, decimal.RequireFromString("70").Equal(money(t, body["current"])))
	})

	t.Run("CustomerCannotReachAdminRoutes", func(t *testing.T) {
		status, _ := makeRequest(t, http.MethodGet, "/admin/wallet", aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}
