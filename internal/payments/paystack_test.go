package payments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/payments"
)

func TestInitialize_SendsMinorUnits(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"access_code": "ac_xyz",
				"reference":   "ref_abc",
			},
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	init, err := client.Initialize(context.Background(), "user@example.com", 150)
	require.NoError(t, err)
	assert.Equal(t, "ac_xyz", init.AccessCode)
	assert.Equal(t, "ref_abc", init.Reference)

	// GHS 150 goes over the wire as 15000 pesewas
	assert.Equal(t, float64(15000), gotBody["amount"])
	assert.Equal(t, "user@example.com", gotBody["email"])
}

func TestInitialize_GeneratesReferenceWhenOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"access_code": "ac_xyz"},
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	init, err := client.Initialize(context.Background(), "user@example.com", 100)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(init.Reference, "ref_"))
}

func TestInitialize_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"access_code": "ac", "reference": "ref"},
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	init, err := client.Initialize(context.Background(), "user@example.com", 100)
	require.NoError(t, err)
	assert.Equal(t, "ref", init.Reference)
	assert.Equal(t, 3, attempts)
}

func TestInitialize_DeclineNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid email address",
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	_, err := client.Initialize(context.Background(), "bogus", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email address")
	assert.Equal(t, 1, attempts, "gateway declines must not be retried")
}

func TestInitialize_MissingSecret(t *testing.T) {
	client := payments.NewClient("https://api.paystack.co", "", nil)
	_, err := client.Initialize(context.Background(), "user@example.com", 100)
	assert.ErrorIs(t, err, payments.ErrNotConfigured)
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref_abc", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"status": "success", "amount": 15000},
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	v, err := client.Verify(context.Background(), "ref_abc")
	require.NoError(t, err)
	assert.True(t, v.Paid)
	// 15000 pesewas comes back as GHS 150
	assert.Equal(t, 150.0, v.Amount)
}

func TestVerify_FailedCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"status": "failed"},
		})
	}))
	defer server.Close()

	client := payments.NewClient(server.URL, "sk_test_123", server.Client())

	v, err := client.Verify(context.Background(), "ref_bad")
	require.NoError(t, err)
	assert.False(t, v.Paid)
}
