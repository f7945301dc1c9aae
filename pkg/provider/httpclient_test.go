package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Measure(t *testing.T) {
	var gotSpec MeasurementSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/measure", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSpec))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"counts": map[string]int{"00": 20, "01": 5, "10": 5, "11": 20},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	counts, err := client.Measure(context.Background(), MeasurementSpec{AngleDeg: 45, Basis: "XX", Shots: 50})
	require.NoError(t, err)

	require.Equal(t, OutcomeCounts{"00": 20, "01": 5, "10": 5, "11": 20}, counts)
	require.Equal(t, "XX", gotSpec.Basis)
	require.Equal(t, 50, gotSpec.Shots)
	require.InDelta(t, 45.0, gotSpec.AngleDeg, 1e-9)
}

func TestHTTPClient_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/measure", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"counts": map[string]int{"00": 1}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", 5*time.Second)
	_, err := client.Measure(context.Background(), MeasurementSpec{AngleDeg: 0, Basis: "ZZ", Shots: 1})
	require.NoError(t, err)
}

func TestHTTPClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.Measure(context.Background(), MeasurementSpec{AngleDeg: 45, Basis: "ZZ", Shots: 50})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "backend overloaded")
}

func TestHTTPClient_InvalidCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Counts sum to 49, not the requested 50.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"counts": map[string]int{"00": 24, "11": 25},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.Measure(context.Background(), MeasurementSpec{AngleDeg: 45, Basis: "ZZ", Shots: 50})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid provider response")
}

func TestHTTPClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := client.Measure(context.Background(), MeasurementSpec{AngleDeg: 45, Basis: "ZZ", Shots: 50})
	require.Error(t, err)
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewHTTPClient(srv.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Measure(ctx, MeasurementSpec{AngleDeg: 45, Basis: "ZZ", Shots: 50})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
