package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operacion is the parent record of a sale or exchange.
// Tipo: "venta" | "canje"
// Subtipo (canje only): "interno" | "externo"
// Estado: "incompleta" | "completa"
//
// MontoPendiente is the single canonical pending-amount field. nil means
// unknown — callers must recompute it from the registered transacciones.
type Operacion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo        string    `gorm:"type:varchar(10);not null;index"`
	Subtipo     *string   `gorm:"type:varchar(10)"`
	Cliente     string    `gorm:"not null;index"`
	Monto       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Divisa      string          `gorm:"type:varchar(10);not null;default:'USD'"`
	TasaCliente decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	OperadorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Operador   *Usuario  `gorm:"foreignKey:OperadorID"`

	Estado         string           `gorm:"type:varchar(15);not null;default:'incompleta';index"`
	MontoPendiente *decimal.Decimal `gorm:"type:decimal(18,2)"`

	// Version implements optimistic concurrency: every update must carry the
	// version it read; a mismatch aborts the write.
	Version int `gorm:"not null;default:1"`

	Transacciones []Transaccion        `gorm:"foreignKey:OperacionID"`
	Historial     []HistorialOperacion `gorm:"foreignKey:OperacionID"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Transaccion is one operator leg of an Operacion, with the distribution
// snapshot computed at registration time.
type Transaccion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperacionID uuid.UUID `gorm:"type:uuid;not null;index"`

	OperadorNombre string          `gorm:"not null"`
	Monto          decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	// Venta fields
	TasaVenta   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TasaOficina *decimal.Decimal `gorm:"type:decimal(18,4)"`
	// ComisionBancariaFactor is the whole-percent factor applied to the gross
	// sale total (100.30 means ×1.0030). Zero = no adjustment.
	ComisionBancariaFactor decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	OficinaPZO             bool            `gorm:"not null;default:false"`
	OficinaCCS             bool            `gorm:"not null;default:false"`

	// Canje fields
	ComisionVenta decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	ComisionCosto decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`

	Comisiones []ComisionArbitraria `gorm:"foreignKey:TransaccionID"`

	// Distribution snapshot
	TotalVenta       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Diferencia       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	MontoADistribuir decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	OficinaPZOMonto  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	OficinaCCSMonto  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Ejecutivo        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GananciaCliente  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Nomina           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComisionArbitraria is a free-form named commission taken off a leg's spread
// before the office/executive/client split.
type ComisionArbitraria struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransaccionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nombre        string          `gorm:"not null"`
	Porcentaje    decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	Monto         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreatedAt     time.Time
}

// HistorialOperacion is an append-only audit entry. Rows are never updated or
// deleted once written.
type HistorialOperacion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OperacionID uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID   uuid.UUID `gorm:"type:uuid;not null"`
	Accion      string    `gorm:"type:varchar(30);not null"`
	// Cambios holds the JSON diff of tracked fields, e.g.
	// {"estado":{"antes":"incompleta","despues":"completa"}}
	Cambios   string `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time
}
