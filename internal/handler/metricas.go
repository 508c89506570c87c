package handler

import (
	"errors"
	"net/http"

	"interunido/internal/apierror"
	"interunido/internal/dto"
	"interunido/internal/service"

	"github.com/gin-gonic/gin"
)

type MetricasHandler struct{ svc service.MetricasService }

func NewMetricasHandler(svc service.MetricasService) *MetricasHandler {
	return &MetricasHandler{svc: svc}
}

// Resumen godoc
// @Summary      Métricas del dashboard
// @Description  Totales de ventas del período, comparación contra el período anterior, distribución por tipo y serie de tendencia.
// @Tags         metricas
// @Produce      json
// @Security     BearerAuth
// @Param        rango  query string false "hoy | ayer | semana | mes | personalizado (default hoy)"
// @Param        inicio query string false "YYYY-MM-DD, solo con rango=personalizado"
// @Param        fin    query string false "YYYY-MM-DD, solo con rango=personalizado"
// @Success      200    {object} dto.MetricasResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/metricas [get]
func (h *MetricasHandler) Resumen(c *gin.Context) {
	var filter dto.MetricasFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("rango invalido"))
		return
	}

	resp, err := h.svc.Resumen(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrRangoInvalido) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular metricas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorOperador godoc
// @Summary      Métricas por operador (solo admin)
// @Tags         metricas
// @Produce      json
// @Security     BearerAuth
// @Param        rango query string false "hoy | ayer | semana | mes | personalizado"
// @Success      200   {object} dto.MetricasOperadoresResponse
// @Router       /v1/metricas/operadores [get]
func (h *MetricasHandler) PorOperador(c *gin.Context) {
	var filter dto.MetricasFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	resp, err := h.svc.PorOperador(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrRangoInvalido) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular metricas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
