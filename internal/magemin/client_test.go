package magemin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimizeManyRoundTrip(t *testing.T) {
	bulk := []float64{70.0, 12.0, 1.0, 4.0, 6.0, 0.1}
	oxides := []string{"SiO2", "Al2O3", "CaO", "MgO", "FeO", "MnO"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/minimize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req minimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 2)
		assert.Equal(t, 8.0, req.Points[0].P)
		assert.Equal(t, 560.0, req.Points[0].T)
		assert.Equal(t, 9.0, req.Points[1].P)
		assert.Equal(t, 580.0, req.Points[1].T)
		assert.Equal(t, bulk, req.Bulk)
		assert.Equal(t, oxides, req.Oxides)
		assert.Equal(t, BasisMol, req.SysIn)

		first := validResult()
		second := validResult()
		second.P, second.T = 9.0, 580.0
		json.NewEncoder(w).Encode(minimizeResponse{Results: []*Result{first, second}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	results, err := c.MinimizeMany([]float64{8, 9}, []float64{560, 580}, bulk, oxides, BasisMol)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 560.0, results[0].T)
	assert.Equal(t, 580.0, results[1].T)
	assert.Equal(t, []string{"g", "q"}, results[0].Phases)
}

func TestMinimizeSinglePoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req minimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 1)
		json.NewEncoder(w).Encode(minimizeResponse{Results: []*Result{validResult()}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Minimize(8, 560, []float64{70, 12, 1, 4, 6, 0.1},
		[]string{"SiO2", "Al2O3", "CaO", "MgO", "FeO", "MnO"}, BasisWt)
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.P)
}

func TestMinimizeManyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database not initialized", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.MinimizeMany([]float64{8}, []float64{560}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge error 500")
	assert.Contains(t, err.Error(), "database not initialized")
}

func TestMinimizeManyRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(minimizeResponse{Error: "unknown oxide \"XyO\""})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.MinimizeMany([]float64{8}, []float64{560}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge rejected request")
	assert.Contains(t, err.Error(), "unknown oxide")
}

func TestMinimizeManyMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.MinimizeMany([]float64{8}, []float64{560}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling response")
}

func TestMinimizeManyCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(minimizeResponse{Results: []*Result{validResult()}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.MinimizeMany([]float64{8, 9}, []float64{560, 580}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 results for 2 points")
}

func TestMinimizeManyMalformedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bad := validResult()
		bad.MolFrac = bad.MolFrac[:1]
		json.NewEncoder(w).Encode(minimizeResponse{Results: []*Result{bad}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.MinimizeMany([]float64{8}, []float64{560}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestMinimizeManyInputValidation(t *testing.T) {
	// Neither case should reach the network.
	c := NewClient("http://127.0.0.1:1", time.Second)

	_, err := c.MinimizeMany([]float64{8, 9}, []float64{560}, nil, nil, BasisMol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 pressures for 1 temperatures")

	_, err = c.MinimizeMany([]float64{8}, []float64{560}, nil, nil, "grams")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBasis)
}
