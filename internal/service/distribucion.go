package service

// distribucion.go — spread calculation for ventas and canjes.
// All percentages are whole-number percent values (30 means 30%) and are
// divided by 100 at point of use. Nothing here rounds: decimal arithmetic is
// exact and results are rounded only at the response boundary.

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMontoInvalido = errors.New("el monto debe ser mayor a cero")
	ErrTasaInvalida  = errors.New("la tasa debe ser mayor a cero")
)

// Office pool policies for a venta in office mode with zero offices selected.
const (
	PoliticaDescartar = "descartar"
	PoliticaReasignar = "reasignar"
)

var (
	cien         = decimal.NewFromInt(100)
	pctOficinas  = decimal.New(30, -2) // 0.30
	pctEjecutivo = decimal.New(40, -2) // 0.40
	pctCliente   = decimal.New(30, -2) // 0.30
	pctNomina    = decimal.New(5, -2)  // 0.05
)

type ComisionInput struct {
	Nombre     string
	Porcentaje decimal.Decimal
}

type ComisionMonto struct {
	Nombre     string
	Porcentaje decimal.Decimal
	Monto      decimal.Decimal
}

// Distribucion is the full breakdown of one leg's spread. Invariant:
// OficinaPZO + OficinaCCS + Ejecutivo + GananciaCliente + Nomina + Σ Comisiones
// equals Diferencia exactly.
type Distribucion struct {
	TotalVenta       decimal.Decimal
	Diferencia       decimal.Decimal
	Comisiones       []ComisionMonto
	MontoADistribuir decimal.Decimal
	OficinaPZO       decimal.Decimal
	OficinaCCS       decimal.Decimal
	Ejecutivo        decimal.Decimal
	GananciaCliente  decimal.Decimal
	Nomina           decimal.Decimal
}

type DistribucionVentaInput struct {
	Monto       decimal.Decimal
	TasaVenta   decimal.Decimal
	TasaOficina *decimal.Decimal
	TasaCliente decimal.Decimal
	// ComisionBancariaFactor adjusts the gross total when > 0:
	// 100.30 means the bank settles 100.30% of the nominal total.
	ComisionBancariaFactor decimal.Decimal
	OficinaPZO             bool
	OficinaCCS             bool
	Comisiones             []ComisionInput
}

// CalcularDistribucionVenta computes the spread of one sale leg and splits it
// into named buckets. politica decides the disposition of the 30% office pool
// when office mode is on but no office was selected.
func CalcularDistribucionVenta(in DistribucionVentaInput, politica string) (*Distribucion, error) {
	if !in.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}
	if !in.TasaVenta.IsPositive() {
		return nil, ErrTasaInvalida
	}

	totalVenta := in.Monto.Mul(in.TasaVenta)
	if in.ComisionBancariaFactor.IsPositive() {
		totalVenta = totalVenta.Mul(in.ComisionBancariaFactor).Div(cien)
	}

	// Office rate overrides the client's base rate when present and positive.
	tasaEfectiva := in.TasaCliente
	oficinaMode := in.OficinaPZO || in.OficinaCCS
	if in.TasaOficina != nil && in.TasaOficina.IsPositive() {
		tasaEfectiva = *in.TasaOficina
		oficinaMode = true
	}

	diferencia := totalVenta.Sub(in.Monto.Mul(tasaEfectiva))

	d := &Distribucion{
		TotalVenta: totalVenta,
		Diferencia: diferencia,
	}

	// Arbitrary commissions come off the top. Blank names and 0% entries are
	// silently skipped.
	totalComisiones := decimal.Zero
	for _, c := range in.Comisiones {
		if strings.TrimSpace(c.Nombre) == "" || !c.Porcentaje.IsPositive() {
			continue
		}
		monto := diferencia.Mul(c.Porcentaje).Div(cien)
		totalComisiones = totalComisiones.Add(monto)
		d.Comisiones = append(d.Comisiones, ComisionMonto{
			Nombre:     c.Nombre,
			Porcentaje: c.Porcentaje,
			Monto:      monto,
		})
	}
	d.MontoADistribuir = diferencia.Sub(totalComisiones)

	if !oficinaMode {
		// Plain sale: the whole remainder is client profit.
		d.GananciaCliente = d.MontoADistribuir
		return d, nil
	}

	pool := d.MontoADistribuir.Mul(pctOficinas)
	d.Ejecutivo = d.MontoADistribuir.Mul(pctEjecutivo)
	d.GananciaCliente = d.MontoADistribuir.Mul(pctCliente)

	switch {
	case in.OficinaPZO && in.OficinaCCS:
		mitad := pool.Div(decimal.NewFromInt(2))
		d.OficinaPZO = mitad
		d.OficinaCCS = mitad
	case in.OficinaPZO:
		d.OficinaPZO = pool
	case in.OficinaCCS:
		d.OficinaCCS = pool
	default:
		// Office mode with no office selected.
		if politica == PoliticaReasignar {
			d.GananciaCliente = d.GananciaCliente.Add(pool)
		}
		// descartar: the pool stays unallocated.
	}

	return d, nil
}

type DistribucionCanjeInput struct {
	Monto         decimal.Decimal
	ComisionVenta decimal.Decimal
	ComisionCosto decimal.Decimal
	Externo       bool
}

// CalcularDistribucionCanje computes the spread of one exchange leg.
// Interno: the difference alone, no further split. Externo: 5% payroll off
// the top, then 30/30/40 across the two offices and the executive.
func CalcularDistribucionCanje(in DistribucionCanjeInput) (*Distribucion, error) {
	if !in.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}

	diferencia := in.Monto.Mul(in.ComisionVenta.Sub(in.ComisionCosto)).Div(cien)

	d := &Distribucion{
		Diferencia:       diferencia,
		MontoADistribuir: diferencia,
	}

	if !in.Externo {
		return d, nil
	}

	d.Nomina = diferencia.Mul(pctNomina)
	restante := diferencia.Sub(d.Nomina)
	d.OficinaPZO = restante.Mul(pctOficinas)
	d.OficinaCCS = restante.Mul(pctOficinas)
	d.Ejecutivo = restante.Mul(pctEjecutivo)
	d.MontoADistribuir = restante

	return d, nil
}
