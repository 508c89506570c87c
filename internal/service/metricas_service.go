package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interunido/internal/dto"
	"interunido/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrRangoInvalido = errors.New("rango de fechas inválido")

const cacheTTLMetricas = 60 * time.Second

type MetricasService interface {
	Resumen(ctx context.Context, filter dto.MetricasFilter) (*dto.MetricasResponse, error)
	PorOperador(ctx context.Context, filter dto.MetricasFilter) (*dto.MetricasOperadoresResponse, error)
}

type metricasService struct {
	repo repository.MetricasRepository
	rdb  *redis.Client
	loc  *time.Location
	tz   string
}

// NewMetricasService builds the dashboard aggregator. tz is the business time
// zone name; an unknown zone falls back to UTC.
func NewMetricasService(repo repository.MetricasRepository, rdb *redis.Client, tz string) MetricasService {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Str("tz", tz).Msg("unknown timezone, falling back to UTC")
		loc = time.UTC
		tz = "UTC"
	}
	return &metricasService{repo: repo, rdb: rdb, loc: loc, tz: tz}
}

// ResolverRango maps a named range token to a half-open [inicio, fin)
// interval in the given location. personalizado reads the explicit dates.
func ResolverRango(rango, inicio, fin string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	now = now.In(loc)
	hoy := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch rango {
	case "hoy", "":
		return hoy, hoy.AddDate(0, 0, 1), nil
	case "ayer":
		return hoy.AddDate(0, 0, -1), hoy, nil
	case "semana":
		return hoy.AddDate(0, 0, -6), hoy.AddDate(0, 0, 1), nil
	case "mes":
		primero := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return primero, hoy.AddDate(0, 0, 1), nil
	case "personalizado":
		ini, err := time.ParseInLocation("2006-01-02", inicio, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrRangoInvalido
		}
		f, err := time.ParseInLocation("2006-01-02", fin, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrRangoInvalido
		}
		f = f.AddDate(0, 0, 1) // inclusive end date
		if !f.After(ini) {
			return time.Time{}, time.Time{}, ErrRangoInvalido
		}
		return ini, f, nil
	default:
		return time.Time{}, time.Time{}, ErrRangoInvalido
	}
}

// CambioPorcentual is the rounded percentage change against the previous
// period. A zero previous period reads as 0, not infinity.
func CambioPorcentual(actual, anterior decimal.Decimal) int64 {
	if anterior.IsZero() {
		return 0
	}
	return actual.Sub(anterior).Div(anterior).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *metricasService) Resumen(ctx context.Context, filter dto.MetricasFilter) (*dto.MetricasResponse, error) {
	cacheKey := fmt.Sprintf("metricas:resumen:%s:%s:%s", filter.Rango, filter.Inicio, filter.Fin)
	if cached := s.leerCache(ctx, cacheKey); cached != nil {
		var resp dto.MetricasResponse
		if json.Unmarshal(cached, &resp) == nil {
			return &resp, nil
		}
	}

	inicio, fin, err := ResolverRango(filter.Rango, filter.Inicio, filter.Fin, time.Now(), s.loc)
	if err != nil {
		return nil, err
	}

	// Symmetric previous period of equal length, immediately before.
	duracion := fin.Sub(inicio)
	prevInicio := inicio.Add(-duracion)

	actual, err := s.repo.SumVentas(ctx, inicio, fin)
	if err != nil {
		return nil, err
	}
	anterior, err := s.repo.SumVentas(ctx, prevInicio, inicio)
	if err != nil {
		return nil, err
	}

	distribucion, err := s.repo.AgruparPorTipo(ctx, inicio, fin)
	if err != nil {
		return nil, err
	}

	porHora := duracion <= 24*time.Hour
	buckets, err := s.repo.SumPorBucket(ctx, inicio, fin, porHora, s.tz)
	if err != nil {
		return nil, err
	}

	resp := &dto.MetricasResponse{
		VentasActual:     actual.Monto.Round(2),
		VentasAnterior:   anterior.Monto.Round(2),
		CambioPorcentual: CambioPorcentual(actual.Monto, anterior.Monto),
		CantidadActual:   actual.Cantidad,
		CantidadAnterior: anterior.Cantidad,
		Distribucion:     make([]dto.DistribucionTipo, 0, len(distribucion)),
		Tendencia:        RellenarBuckets(buckets, inicio, fin, porHora, s.loc),
		Inicio:           inicio.Format("2006-01-02"),
		Fin:              fin.AddDate(0, 0, -1).Format("2006-01-02"),
	}
	for _, d := range distribucion {
		resp.Distribucion = append(resp.Distribucion, dto.DistribucionTipo{
			Tipo:     d.Tipo,
			Subtipo:  d.Subtipo,
			Cantidad: d.Cantidad,
			Monto:    d.Monto.Round(2),
		})
	}

	s.escribirCache(ctx, cacheKey, resp)
	return resp, nil
}

// RellenarBuckets expands the sparse aggregation rows into a dense series:
// every bucket of the range is present, zero-filled when no sales landed in it.
func RellenarBuckets(rows []repository.BucketAgregado, inicio, fin time.Time, porHora bool, loc *time.Location) []dto.PuntoTendencia {
	layout := "2006-01-02"
	paso := 24 * time.Hour
	if porHora {
		layout = "2006-01-02 15"
		paso = time.Hour
	}

	// date_trunc returns local wall-clock timestamps; key them by layout so
	// lookup is independent of the zone the driver scanned them in.
	sumas := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		sumas[r.Bucket.Format(layout)] = r.Monto
	}

	var puntos []dto.PuntoTendencia
	for t := inicio.In(loc); t.Before(fin); t = t.Add(paso) {
		key := t.Format(layout)
		monto, ok := sumas[key]
		if !ok {
			monto = decimal.Zero
		}
		etiqueta := t.Format("2006-01-02")
		if porHora {
			etiqueta = fmt.Sprintf("%02dh", t.Hour())
		}
		puntos = append(puntos, dto.PuntoTendencia{Etiqueta: etiqueta, Monto: monto.Round(2)})
	}
	return puntos
}

func (s *metricasService) PorOperador(ctx context.Context, filter dto.MetricasFilter) (*dto.MetricasOperadoresResponse, error) {
	inicio, fin, err := ResolverRango(filter.Rango, filter.Inicio, filter.Fin, time.Now(), s.loc)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.AgruparPorOperador(ctx, inicio, fin)
	if err != nil {
		return nil, err
	}

	resp := &dto.MetricasOperadoresResponse{
		Operadores: make([]dto.OperadorMetricas, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Operadores = append(resp.Operadores, dto.OperadorMetricas{
			OperadorID:     r.OperadorID,
			Username:       r.Username,
			Ventas:         r.Ventas,
			CanjesInternos: r.CanjesInternos,
			CanjesExternos: r.CanjesExternos,
			MontoTotal:     r.MontoTotal.Round(2),
		})
	}
	return resp, nil
}

// ── Cache helpers ─────────────────────────────────────────────────────────────
// Best effort: a Redis failure degrades to a direct query, never to an error.

func (s *metricasService) leerCache(ctx context.Context, key string) []byte {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return data
}

func (s *metricasService) escribirCache(ctx context.Context, key string, v interface{}) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, cacheTTLMetricas).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("metricas: cache write failed")
	}
}
