package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OperacionFilter is bound from the query string of GET /v1/operaciones.
type OperacionFilter struct {
	Tipo    string `form:"tipo"    validate:"omitempty,oneof=venta canje"`
	Cliente string `form:"cliente"`
	Fecha   string `form:"fecha"` // YYYY-MM-DD
	Estado  string `form:"estado" validate:"omitempty,oneof=incompleta completa all"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
	// OperadorID is set by the handler from the JWT for non-admin callers;
	// it is never bound from the query string.
	OperadorID string `form:"-"`
}

type OperacionListResponse struct {
	Data  []OperacionResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearOperacionRequest struct {
	Tipo        string          `json:"tipo"         validate:"required,oneof=venta canje"`
	Subtipo     *string         `json:"subtipo"      validate:"omitempty,oneof=interno externo"`
	Cliente     string          `json:"cliente"      validate:"required"`
	Monto       decimal.Decimal `json:"monto"        validate:"required,gt=0"`
	Divisa      string          `json:"divisa"       validate:"omitempty,len=3"`
	TasaCliente decimal.Decimal `json:"tasa_cliente" validate:"omitempty,min=0"`
}

// ActualizarOperacionRequest is a partial update; nil fields are left as-is.
// Version must match the stored record or the update is rejected with 409.
type ActualizarOperacionRequest struct {
	Cliente        *string          `json:"cliente"`
	Estado         *string          `json:"estado" validate:"omitempty,oneof=incompleta completa"`
	TasaCliente    *decimal.Decimal `json:"tasa_cliente"`
	MontoPendiente *decimal.Decimal `json:"monto_pendiente"`
	Version        int              `json:"version" validate:"required,min=1"`
}

type ComisionArbitrariaRequest struct {
	Nombre     string          `json:"nombre"`
	Porcentaje decimal.Decimal `json:"porcentaje" validate:"min=0,max=100"`
}

// RegistrarTransaccionRequest is one operator leg submitted against an
// operation's remaining balance.
type RegistrarTransaccionRequest struct {
	OperadorNombre string          `json:"operador_nombre" validate:"required"`
	Monto          decimal.Decimal `json:"monto"           validate:"required,gt=0"`

	// Venta
	TasaVenta              decimal.Decimal  `json:"tasa_venta"`
	TasaOficina            *decimal.Decimal `json:"tasa_oficina"`
	ComisionBancariaFactor decimal.Decimal  `json:"comision_bancaria_factor" validate:"min=0"`
	OficinaPZO             bool             `json:"oficina_pzo"`
	OficinaCCS             bool             `json:"oficina_ccs"`

	// Canje
	ComisionVenta decimal.Decimal `json:"comision_venta" validate:"min=0,max=100"`
	ComisionCosto decimal.Decimal `json:"comision_costo" validate:"min=0,max=100"`

	Comisiones []ComisionArbitrariaRequest `json:"comisiones" validate:"dive"`

	// NotificarEmail: when present, the completion receipt is mailed here.
	NotificarEmail *string `json:"notificar_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ComisionArbitrariaResponse struct {
	Nombre     string          `json:"nombre"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
	Monto      decimal.Decimal `json:"monto"`
}

// DistribucionResponse mirrors the stored distribution snapshot of a leg.
type DistribucionResponse struct {
	TotalVenta       decimal.Decimal              `json:"total_venta"`
	Diferencia       decimal.Decimal              `json:"diferencia"`
	Comisiones       []ComisionArbitrariaResponse `json:"comisiones"`
	MontoADistribuir decimal.Decimal              `json:"monto_a_distribuir"`
	OficinaPZO       decimal.Decimal              `json:"oficina_pzo"`
	OficinaCCS       decimal.Decimal              `json:"oficina_ccs"`
	Ejecutivo        decimal.Decimal              `json:"ejecutivo"`
	GananciaCliente  decimal.Decimal              `json:"ganancia_cliente"`
	Nomina           decimal.Decimal              `json:"nomina"`
}

type TransaccionResponse struct {
	ID             string               `json:"id"`
	OperadorNombre string               `json:"operador_nombre"`
	Monto          decimal.Decimal      `json:"monto"`
	Distribucion   DistribucionResponse `json:"distribucion"`
	CreatedAt      string               `json:"created_at"`
}

type HistorialResponse struct {
	UsuarioID string `json:"usuario_id"`
	Accion    string `json:"accion"`
	Cambios   string `json:"cambios"`
	Fecha     string `json:"fecha"`
}

type OperacionResponse struct {
	ID             string                `json:"id"`
	Tipo           string                `json:"tipo"`
	Subtipo        *string               `json:"subtipo,omitempty"`
	Cliente        string                `json:"cliente"`
	Monto          decimal.Decimal       `json:"monto"`
	Divisa         string                `json:"divisa"`
	TasaCliente    decimal.Decimal       `json:"tasa_cliente"`
	OperadorID     string                `json:"operador_id"`
	Operador       string                `json:"operador,omitempty"`
	Estado         string                `json:"estado"`
	MontoPendiente decimal.Decimal       `json:"monto_pendiente"`
	Version        int                   `json:"version"`
	Transacciones  []TransaccionResponse `json:"transacciones,omitempty"`
	Historial      []HistorialResponse   `json:"historial,omitempty"`
	CreatedAt      string                `json:"created_at"`
}
