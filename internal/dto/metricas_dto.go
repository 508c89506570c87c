package dto

import "github.com/shopspring/decimal"

// MetricasFilter is bound from the query string of GET /v1/metricas.
// inicio/fin are only read when rango=personalizado.
type MetricasFilter struct {
	Rango  string `form:"rango,default=hoy" validate:"oneof=hoy ayer semana mes personalizado"`
	Inicio string `form:"inicio"` // YYYY-MM-DD
	Fin    string `form:"fin"`    // YYYY-MM-DD
}

// PuntoTendencia is one bucket of the trend chart. Every bucket of the range
// is present, zero-filled when no sales landed in it.
type PuntoTendencia struct {
	Etiqueta string          `json:"etiqueta"` // "15h" for hourly, "2026-08-31" for daily
	Monto    decimal.Decimal `json:"monto"`
}

// DistribucionTipo is one slice of the type/subtype distribution chart.
type DistribucionTipo struct {
	Tipo     string          `json:"tipo"`
	Subtipo  string          `json:"subtipo,omitempty"`
	Cantidad int64           `json:"cantidad"`
	Monto    decimal.Decimal `json:"monto"`
}

type MetricasResponse struct {
	VentasActual     decimal.Decimal    `json:"ventas_actual"`
	VentasAnterior   decimal.Decimal    `json:"ventas_anterior"`
	CambioPorcentual int64              `json:"cambio_porcentual"`
	CantidadActual   int64              `json:"cantidad_actual"`
	CantidadAnterior int64              `json:"cantidad_anterior"`
	Distribucion     []DistribucionTipo `json:"distribucion"`
	Tendencia        []PuntoTendencia   `json:"tendencia"`
	Inicio           string             `json:"inicio"`
	Fin              string             `json:"fin"`
}

// OperadorMetricas is one row of the admin per-operator breakdown,
// ordered by MontoTotal descending.
type OperadorMetricas struct {
	OperadorID     string          `json:"operador_id"`
	Username       string          `json:"username"`
	Ventas         int64           `json:"ventas"`
	CanjesInternos int64           `json:"canjes_internos"`
	CanjesExternos int64           `json:"canjes_externos"`
	MontoTotal     decimal.Decimal `json:"monto_total"`
}

type MetricasOperadoresResponse struct {
	Operadores []OperadorMetricas `json:"operadores"`
}
