package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"interunido/internal/apierror"
	"interunido/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const tasaCacheTTL = 5 * time.Minute

// TasasHandler serves the BCV reference rate. The upstream provider sits
// behind a circuit breaker; a short Redis cache absorbs most of the traffic.
type TasasHandler struct {
	client *infra.TasaClient
	rdb    *redis.Client
}

func NewTasasHandler(client *infra.TasaClient, rdb *redis.Client) *TasasHandler {
	return &TasasHandler{client: client, rdb: rdb}
}

// Obtener godoc
// @Summary Tasa de cambio de referencia (BCV)
// @Tags tasas
// @Produce json
// @Success 200 {object} infra.TasaReferencia
// @Failure 503 {object} apierror.APIError
// @Router /v1/tasas/referencia [get]
func (h *TasasHandler) Obtener(c *gin.Context) {
	ctx := c.Request.Context()
	const cacheKey = "tasas:referencia"

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var tasa infra.TasaReferencia
		if json.Unmarshal(cached, &tasa) == nil {
			c.JSON(http.StatusOK, tasa)
			return
		}
	}

	tasa, err := h.client.Obtener(ctx)
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Proveedor de tasas no disponible"))
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New("Error al consultar la tasa de referencia"))
		return
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(tasa); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, tasaCacheTTL).Err()
	}

	c.JSON(http.StatusOK, tasa)
}
