//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full venta cycle (login → crear operacion → transacciones → completa)
//   - Optimistic version conflict on concurrent edits
//   - Nota lifecycle with derived hashtags

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interunido/internal/config"
	"interunido/internal/infra"
	"interunido/internal/model"
	"interunido/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("interunido_test"),
		tcPostgres.WithUsername("interunido"),
		tcPostgres.WithPassword("interunido"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		Timezone:           "America/Caracas",
		OfficePoolPolicy:   "descartar",
		TasaProviderURL:    "http://localhost:9999", // unused in e2e tests
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("interunido2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Usuario{
		Username:     "admin.e2e",
		Nombre:       "Admin E2E",
		PasswordHash: string(hash),
		Rol:          "admin",
		Activo:       true,
	}).Error)

	tasaClient := infra.NewTasaClient(cfg.TasaProviderURL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	r := router.New(cfg, db, rdb, tasaClient)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "interunido2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		Token string `json:"token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.Token)

	return &testEnv{
		server: srv,
		token:  loginBody.Token,
		engine: r,
	}
}

type operacionBody struct {
	ID             string          `json:"id"`
	Estado         string          `json:"estado"`
	MontoPendiente decimal.Decimal `json:"monto_pendiente"`
	Version        int             `json:"version"`
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full cycle: crear venta → dos transacciones → operacion completa.
func TestE2E_CicloCompletoDeVenta(t *testing.T) {
	env := setupTestEnv(t)

	crearResp := do(t, env.server, "POST", "/v1/operaciones",
		jsonBody(t, map[string]any{
			"tipo":         "venta",
			"cliente":      "Comercial Bolivar CA",
			"monto":        1000.0,
			"divisa":       "USD",
			"tasa_cliente": 36.0,
		}), env.token)
	require.Equal(t, http.StatusCreated, crearResp.StatusCode)
	var op operacionBody
	decodeJSON(t, crearResp, &op)
	assert.Equal(t, "incompleta", op.Estado)
	assert.True(t, op.MontoPendiente.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, op.Version)

	// Primera transaccion: 400 de 1000.
	txResp := do(t, env.server, "POST", "/v1/operaciones/"+op.ID+"/transacciones",
		jsonBody(t, map[string]any{
			"operador_nombre": "Maria",
			"monto":           400.0,
			"tasa_venta":      36.5,
		}), env.token)
	require.Equal(t, http.StatusCreated, txResp.StatusCode)
	var parcial operacionBody
	decodeJSON(t, txResp, &parcial)
	assert.Equal(t, "incompleta", parcial.Estado)
	assert.True(t, parcial.MontoPendiente.Equal(decimal.NewFromInt(600)))

	// Segunda transaccion cierra el saldo exacto.
	txResp = do(t, env.server, "POST", "/v1/operaciones/"+op.ID+"/transacciones",
		jsonBody(t, map[string]any{
			"operador_nombre": "Maria",
			"monto":           600.0,
			"tasa_venta":      36.5,
		}), env.token)
	require.Equal(t, http.StatusCreated, txResp.StatusCode)
	var completa operacionBody
	decodeJSON(t, txResp, &completa)
	assert.Equal(t, "completa", completa.Estado)
	assert.True(t, completa.MontoPendiente.IsZero())

	// Un monto extra sobre una operacion completa se rechaza.
	txResp = do(t, env.server, "POST", "/v1/operaciones/"+op.ID+"/transacciones",
		jsonBody(t, map[string]any{
			"operador_nombre": "Maria",
			"monto":           1.0,
			"tasa_venta":      36.5,
		}), env.token)
	assert.Equal(t, http.StatusBadRequest, txResp.StatusCode)
	_ = txResp.Body.Close()

	listResp := do(t, env.server, "GET", "/v1/operaciones?fecha="+time.Now().Format("2006-01-02"), nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	_ = listResp.Body.Close()
}

// Concurrent edit with a stale version is rejected with 409.
func TestE2E_ConflictoDeVersion(t *testing.T) {
	env := setupTestEnv(t)

	crearResp := do(t, env.server, "POST", "/v1/operaciones",
		jsonBody(t, map[string]any{
			"tipo": "venta", "cliente": "Cliente A", "monto": 500.0, "tasa_cliente": 36.0,
		}), env.token)
	require.Equal(t, http.StatusCreated, crearResp.StatusCode)
	var op operacionBody
	decodeJSON(t, crearResp, &op)

	// Primera edicion con la version vigente pasa.
	okResp := do(t, env.server, "PATCH", "/v1/operaciones/"+op.ID,
		jsonBody(t, map[string]any{"cliente": "Cliente A SRL", "version": op.Version}), env.token)
	require.Equal(t, http.StatusOK, okResp.StatusCode)
	_ = okResp.Body.Close()

	// Reintento con la version ya consumida choca.
	staleResp := do(t, env.server, "PATCH", "/v1/operaciones/"+op.ID,
		jsonBody(t, map[string]any{"cliente": "Otro nombre", "version": op.Version}), env.token)
	assert.Equal(t, http.StatusConflict, staleResp.StatusCode)
	_ = staleResp.Body.Close()
}

// Nota lifecycle: hashtags derived from content, archive hides from listing.
func TestE2E_NotasConEtiquetas(t *testing.T) {
	env := setupTestEnv(t)

	crearResp := do(t, env.server, "POST", "/v1/notas",
		jsonBody(t, map[string]any{
			"titulo":    "Seguimiento",
			"contenido": "Llamar al cliente #urgente antes del #cierre",
		}), env.token)
	require.Equal(t, http.StatusCreated, crearResp.StatusCode)
	var nota struct {
		ID        string   `json:"id"`
		Etiquetas []string `json:"etiquetas"`
	}
	decodeJSON(t, crearResp, &nota)
	assert.Equal(t, []string{"urgente", "cierre"}, nota.Etiquetas)

	// Archivar y verificar que sale del listado normal.
	archResp := do(t, env.server, "PATCH", "/v1/notas/"+nota.ID+"/archivar", nil, env.token)
	require.Equal(t, http.StatusNoContent, archResp.StatusCode)
	_ = archResp.Body.Close()

	listResp := do(t, env.server, "GET", "/v1/notas", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var listado struct {
		Data  []any `json:"data"`
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &listado)
	assert.Empty(t, listado.Data)
}
