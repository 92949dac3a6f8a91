package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"tally/db"
	"tally/internal/account"
	"tally/internal/auth"
	"tally/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *httptest.Server {
	store, err := db.NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, err)

	tokens := auth.NewTokenService([]byte("test_jwt_secret_key_for_testing_only"))
	accounts := account.NewHandlers(account.NewService(db.NewJSONUserRepository(store)), tokens)
	entries := ledger.NewHandlers(ledger.NewService(db.NewJSONEntryRepository(store)))

	server := httptest.NewServer(SetupRoutes(accounts, entries, tokens))
	t.Cleanup(server.Close)
	return server
}

func request(t *testing.T, server *httptest.Server, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func loginToken(t *testing.T, server *httptest.Server, username, password string) string {
	resp, body := request(t, server, "POST", "/api/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSignupAndLogin(t *testing.T) {
	server := setupServer(t)

	resp, body := request(t, server, "POST", "/api/signup", "", map[string]string{
		"username": "Alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Same name in a different case, different password: still taken
	resp, body = request(t, server, "POST", "/api/signup", "", map[string]string{
		"username": "alice", "password": "pw2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User already exists.", body["message"])

	resp, body = request(t, server, "POST", "/api/login", "", map[string]string{
		"username": "ALICE", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Alice", user["username"])
	assert.NotEmpty(t, body["token"])

	resp, _ = request(t, server, "POST", "/api/login", "", map[string]string{
		"username": "Alice", "password": "pw2",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, server, "POST", "/api/signup", "", map[string]string{
		"username": "", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEntryLifecycle(t *testing.T) {
	server := setupServer(t)

	for _, creds := range [][2]string{{"Alice", "pw1"}, {"Bob", "pw2"}} {
		resp, _ := request(t, server, "POST", "/api/signup", "", map[string]string{
			"username": creds[0], "password": creds[1],
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	aliceToken := loginToken(t, server, "Alice", "pw1")
	bobToken := loginToken(t, server, "Bob", "pw2")

	// Entry creation requires a token
	resp, _ := request(t, server, "POST", "/api/entry", "", map[string]interface{}{
		"debtor": "Alice", "creditor": "Bob", "amount": 50,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := request(t, server, "POST", "/api/entry", aliceToken, map[string]interface{}{
		"debtor": "Alice", "creditor": "Bob", "amount": 50,
		"description": "lunch", "paymentMethod": "physical",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, "accepted", entry["status"])
	assert.Equal(t, "physical", entry["paymentMethod"])
	assert.Equal(t, false, entry["approved"])
	assert.Equal(t, false, entry["paid"])
	entryID := entry["id"].(float64)

	resp, body = request(t, server, "POST", "/api/entry", aliceToken, map[string]interface{}{
		"debtor": "Alice", "creditor": "Bob", "amount": 10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	virtual := body["entry"].(map[string]interface{})
	assert.Equal(t, "virtual", virtual["paymentMethod"])
	assert.Nil(t, virtual["approved"])

	resp, _ = request(t, server, "POST", "/api/entry", aliceToken, map[string]interface{}{
		"debtor": "Alice", "creditor": "Bob", "amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The debtor cannot approve, even with a valid token
	resp, _ = request(t, server, "POST", "/api/entry/approve", aliceToken, map[string]interface{}{
		"id": entryID, "username": "Alice",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, server, "POST", "/api/entry/approve", bobToken, map[string]interface{}{
		"id": entryID, "username": "Bob",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Re-approval by the creditor is allowed
	resp, _ = request(t, server, "POST", "/api/entry/approve", bobToken, map[string]interface{}{
		"id": entryID, "username": "Bob",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, server, "POST", "/api/entry/approve", bobToken, map[string]interface{}{
		"id": entryID + 12345, "username": "Bob",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = request(t, server, "GET", "/api/entries", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["entries"].([]interface{})
	require.Len(t, entries, 2)
	for _, raw := range entries {
		e := raw.(map[string]interface{})
		if e["id"].(float64) == entryID {
			assert.Equal(t, true, e["approved"])
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	server := setupServer(t)

	resp, _ := request(t, server, "POST", "/api/signup", "", map[string]string{
		"username": "Alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := loginToken(t, server, "Alice", "pw1")

	resp, _ = request(t, server, "PUT", "/api/user", "", map[string]interface{}{
		"username": "Alice", "profilePicture": "avatar.png",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := request(t, server, "PUT", "/api/user", token, map[string]interface{}{
		"username": "Alice", "profilePicture": "avatar.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Alice", user["username"])
	assert.Equal(t, "avatar.png", user["profilePicture"])
	assert.Equal(t, float64(0), user["startingBalance"])

	resp, _ = request(t, server, "PUT", "/api/user", token, map[string]interface{}{
		"username": "Mallory", "profilePicture": "x.png",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckAuth(t *testing.T) {
	server := setupServer(t)

	resp, _ := request(t, server, "GET", "/api/check-auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, server, "GET", "/api/check-auth", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, server, "POST", "/api/signup", "", map[string]string{
		"username": "Alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := loginToken(t, server, "Alice", "pw1")

	resp, _ = request(t, server, "GET", "/api/check-auth", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
