package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentasPeriodo is the sum/count of ventas inside one period.
type VentasPeriodo struct {
	Cantidad int64
	Monto    decimal.Decimal
}

// TipoAgregado is one row of the type/subtype distribution query.
type TipoAgregado struct {
	Tipo     string
	Subtipo  string
	Cantidad int64
	Monto    decimal.Decimal
}

// BucketAgregado is one non-empty time bucket; the service zero-fills gaps.
type BucketAgregado struct {
	Bucket time.Time
	Monto  decimal.Decimal
}

// OperadorAgregado is one row of the per-operator breakdown.
type OperadorAgregado struct {
	OperadorID     string
	Username       string
	Ventas         int64
	CanjesInternos int64
	CanjesExternos int64
	MontoTotal     decimal.Decimal
}

// MetricasRepository runs the read-only aggregation queries that feed the
// dashboard. Implementations never modify data.
type MetricasRepository interface {
	SumVentas(ctx context.Context, inicio, fin time.Time) (VentasPeriodo, error)
	AgruparPorTipo(ctx context.Context, inicio, fin time.Time) ([]TipoAgregado, error)
	// SumPorBucket groups venta amounts into hourly or daily buckets,
	// truncated in the given time zone.
	SumPorBucket(ctx context.Context, inicio, fin time.Time, porHora bool, tz string) ([]BucketAgregado, error)
	AgruparPorOperador(ctx context.Context, inicio, fin time.Time) ([]OperadorAgregado, error)
}

type metricasRepo struct{ db *gorm.DB }

func NewMetricasRepository(db *gorm.DB) MetricasRepository { return &metricasRepo{db: db} }

func (r *metricasRepo) SumVentas(ctx context.Context, inicio, fin time.Time) (VentasPeriodo, error) {
	var p VentasPeriodo
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS cantidad, COALESCE(SUM(monto), 0) AS monto
		FROM operaciones
		WHERE tipo = 'venta' AND created_at >= ? AND created_at < ?`,
		inicio, fin).Scan(&p).Error
	return p, err
}

func (r *metricasRepo) AgruparPorTipo(ctx context.Context, inicio, fin time.Time) ([]TipoAgregado, error) {
	var rows []TipoAgregado
	err := r.db.WithContext(ctx).Raw(`
		SELECT tipo, COALESCE(subtipo, '') AS subtipo,
		       COUNT(*) AS cantidad, COALESCE(SUM(monto), 0) AS monto
		FROM operaciones
		WHERE created_at >= ? AND created_at < ?
		GROUP BY tipo, subtipo
		ORDER BY tipo, subtipo`,
		inicio, fin).Scan(&rows).Error
	return rows, err
}

func (r *metricasRepo) SumPorBucket(ctx context.Context, inicio, fin time.Time, porHora bool, tz string) ([]BucketAgregado, error) {
	trunc := "day"
	if porHora {
		trunc = "hour"
	}
	var rows []BucketAgregado
	err := r.db.WithContext(ctx).Raw(`
		SELECT date_trunc(?, created_at AT TIME ZONE ?) AS bucket,
		       COALESCE(SUM(monto), 0) AS monto
		FROM operaciones
		WHERE tipo = 'venta' AND created_at >= ? AND created_at < ?
		GROUP BY bucket
		ORDER BY bucket`,
		trunc, tz, inicio, fin).Scan(&rows).Error
	return rows, err
}

func (r *metricasRepo) AgruparPorOperador(ctx context.Context, inicio, fin time.Time) ([]OperadorAgregado, error) {
	var rows []OperadorAgregado
	err := r.db.WithContext(ctx).Raw(`
		SELECT o.operador_id AS operador_id,
		       u.username AS username,
		       COUNT(*) FILTER (WHERE o.tipo = 'venta') AS ventas,
		       COUNT(*) FILTER (WHERE o.tipo = 'canje' AND o.subtipo = 'interno') AS canjes_internos,
		       COUNT(*) FILTER (WHERE o.tipo = 'canje' AND o.subtipo = 'externo') AS canjes_externos,
		       COALESCE(SUM(o.monto), 0) AS monto_total
		FROM operaciones o
		JOIN usuarios u ON u.id = o.operador_id
		WHERE o.created_at >= ? AND o.created_at < ?
		GROUP BY o.operador_id, u.username
		ORDER BY monto_total DESC`,
		inicio, fin).Scan(&rows).Error
	return rows, err
}
