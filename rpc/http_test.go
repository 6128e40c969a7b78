package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"autonchain/core"
	"autonchain/crypto"
	"autonchain/storage"
)

func newTestServer(t *testing.T) (*Server, *core.Node) {
	t.Helper()
	node := core.NewNode(storage.NewMemDB())
	server := &Server{
		node:   node,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return server, node
}

func testAddr(last byte) string {
	var raw [20]byte
	raw[19] = last
	return crypto.NewAddress(raw).String()
}

func rawAddr(last byte) [20]byte {
	var raw [20]byte
	raw[19] = last
	return raw
}

func call(t *testing.T, handler http.Handler, method string, params ...interface{}) (*RPCResponse, int) {
	t.Helper()
	encoded := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		encoded = append(encoded, raw)
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  encoded,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	handler.ServeHTTP(rec, req)

	resp := &RPCResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return resp, rec.Code
}

func TestRegisterUsernameOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()
	caller := testAddr(0x01)

	resp, status := call(t, router, "auton_registerUsername", registerUsernameParams{Caller: caller, Username: "alice_01"})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	require.Equal(t, "alice_01", result["username"])
	require.Equal(t, caller, result["owner"])

	// Second claim from a different wallet collides.
	resp, status = call(t, router, "auton_registerUsername", registerUsernameParams{Caller: testAddr(0x02), Username: "alice_01"})
	require.Equal(t, http.StatusConflict, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeConflict, resp.Error.Code)
}

func TestPaymentOverRPC(t *testing.T) {
	server, node := newTestServer(t)
	router := server.Router()
	creatorAddr := testAddr(0x01)
	buyer := testAddr(0x02)

	require.NoError(t, node.Credit(rawAddr(0x02), big.NewInt(10_000_000)))

	resp, status := call(t, router, "auton_initializeCreator", initializeCreatorParams{Caller: creatorAddr})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	resp, status = call(t, router, "auton_addContent", addContentParams{
		Caller: creatorAddr, Title: "first post", Price: 5_000_000, PayloadLocator: "0x0102",
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	resp, status = call(t, router, "auton_processPayment", processPaymentParams{
		Caller: buyer, Creator: creatorAddr, ContentID: 1,
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, "0", result["fee"])

	resp, status = call(t, router, "auton_hasAccess", hasAccessParams{Buyer: buyer, ContentID: 1})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, resp.Result.(map[string]interface{})["hasAccess"])

	resp, status = call(t, router, "auton_getBalance", getBalanceParams{Address: buyer})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "5000000", resp.Result.(map[string]interface{})["balance"])
}

func TestVaultInfoNotFoundOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	resp, status := call(t, router, "vault_info")
	require.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeNotFound, resp.Error.Code)
}

func TestUnknownMethodOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	resp, status := call(t, router, "auton_noSuchMethod")
	require.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestBearerTokenRequiredForMutations(t *testing.T) {
	server, _ := newTestServer(t)
	server.authToken = "secret"
	router := server.Router()
	caller := testAddr(0x01)

	resp, status := call(t, router, "auton_registerUsername", registerUsernameParams{Caller: caller, Username: "alice_01"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "auton_registerUsername",
		"params":  []interface{}{registerUsernameParams{Caller: caller, Username: "alice_01"}},
	})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", "secret"))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	resp, status := call(t, router, "auton_getBalance", getBalanceParams{Address: "not-an-address"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
