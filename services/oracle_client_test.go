package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/services"
)

func TestHTTPOracleDecrypt(t *testing.T) {
	handle, err := crypto.NewRandomHandle()
	require.NoError(t, err)

	var got services.OracleDecryptRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/decrypt", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(&services.OracleDecryptResponse{RequestID: "req-123"})
	}))
	defer server.Close()

	orc := services.NewHTTPOracle(server.URL, "http://ledger:8080/oracle/result")
	requestID, err := orc.Decrypt(context.Background(), []crypto.CiphertextHandle{handle})
	require.NoError(t, err)
	require.Equal(t, "req-123", requestID)
	require.Equal(t, []crypto.CiphertextHandle{handle}, got.Handles)
	require.Equal(t, "http://ledger:8080/oracle/result", got.CallbackURL)
}

func TestHTTPOracleDecryptErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oracle unavailable", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	orc := services.NewHTTPOracle(failing.URL, "http://ledger:8080/oracle/result")
	_, err := orc.Decrypt(context.Background(), nil)
	require.Error(t, err)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&services.OracleDecryptResponse{})
	}))
	defer empty.Close()

	orc = services.NewHTTPOracle(empty.URL, "http://ledger:8080/oracle/result")
	_, err = orc.Decrypt(context.Background(), nil)
	require.Error(t, err)
}
