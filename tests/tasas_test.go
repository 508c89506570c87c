package tests

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"interunido/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Circuit breaker ─────────────────────────────────────────────────────────

func TestCircuitBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	boom := errors.New("proveedor caido")

	// Tres fallos consecutivos disparan el breaker.
	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	// Abierto: fast-fail sin invocar fn.
	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, llamado)
}

func TestCircuitBreaker_FalloIntermitenteNoDispara(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	boom := errors.New("timeout")

	// Dos fallos, un exito, dos fallos: el contador se reinicia con el exito.
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })

	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreaker_MedioAbiertoCierraConUnaSonda(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})
	boom := errors.New("502")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	require.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	// Una sonda exitosa basta para cerrar (SuccessThreshold=1).
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreaker_SondaFallidaReabre(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})
	boom := errors.New("503")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, infra.CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return boom })
	assert.Equal(t, infra.CBOpen, cb.State())
}

// ─── TasaClient ──────────────────────────────────────────────────────────────

func TestTasaClient_ObtieneLaTasaDelProveedor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"moneda":"USD","promedio":36.53}`))
	}))
	defer srv.Close()

	client := infra.NewTasaClient(srv.URL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	tasa, err := client.Obtener(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", tasa.Moneda)
	assert.True(t, tasa.Promedio.Equal(dec("36.53")))
	assert.False(t, tasa.FechaConsulta.IsZero())
}

func TestTasaClient_TasaNoPositivaEsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"moneda":"USD","promedio":0}`))
	}))
	defer srv.Close()

	client := infra.NewTasaClient(srv.URL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	_, err := client.Obtener(context.Background())
	assert.Error(t, err)
}

func TestTasaClient_ProveedorCaidoAbreElCircuito(t *testing.T) {
	var llamadas atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		llamadas.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := infra.NewTasaClient(srv.URL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))

	// Tres intentos fallidos agotan el umbral por defecto.
	for i := 0; i < 3; i++ {
		_, err := client.Obtener(context.Background())
		require.Error(t, err)
		require.NotErrorIs(t, err, infra.ErrCircuitOpen)
	}
	assert.Equal(t, int32(3), llamadas.Load())

	// El cuarto intento ya no toca al proveedor.
	_, err := client.Obtener(context.Background())
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Equal(t, int32(3), llamadas.Load())
	assert.Equal(t, infra.CBOpen, client.Breaker().State())
}
