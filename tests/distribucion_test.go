package tests

import (
	"testing"

	"interunido/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// sumaDistribucion adds every allocated bucket of a breakdown.
func sumaDistribucion(d *service.Distribucion) decimal.Decimal {
	total := d.OficinaPZO.Add(d.OficinaCCS).Add(d.Ejecutivo).Add(d.GananciaCliente).Add(d.Nomina)
	for _, c := range d.Comisiones {
		total = total.Add(c.Monto)
	}
	return total
}

// ── Ventas ────────────────────────────────────────────────────────────────────

func TestVenta_OficinaPZO_Reparto30_40_30(t *testing.T) {
	// 1000 USD vendidos a 36.5 con tasa de oficina 36.0:
	// total 36500, diferencia 500 → 150 oficina / 200 ejecutivo / 150 cliente.
	d, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto:       dec("1000"),
		TasaVenta:   dec("36.5"),
		TasaOficina: decPtr("36.0"),
		TasaCliente: dec("35.0"),
		OficinaPZO:  true,
	}, service.PoliticaDescartar)
	require.NoError(t, err)

	assert.True(t, d.TotalVenta.Equal(dec("36500")), "total %s", d.TotalVenta)
	assert.True(t, d.Diferencia.Equal(dec("500")), "diferencia %s", d.Diferencia)
	assert.True(t, d.OficinaPZO.Equal(dec("150")), "pzo %s", d.OficinaPZO)
	assert.True(t, d.OficinaCCS.IsZero())
	assert.True(t, d.Ejecutivo.Equal(dec("200")), "ejecutivo %s", d.Ejecutivo)
	assert.True(t, d.GananciaCliente.Equal(dec("150")), "cliente %s", d.GananciaCliente)

	assert.True(t, sumaDistribucion(d).Equal(d.Diferencia))
}

func TestVenta_SinOficina_TodoAlCliente(t *testing.T) {
	d, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto:       dec("1000"),
		TasaVenta:   dec("36.5"),
		TasaCliente: dec("36.2"),
	}, service.PoliticaDescartar)
	require.NoError(t, err)

	assert.True(t, d.Diferencia.Equal(dec("300")))
	assert.True(t, d.GananciaCliente.Equal(dec("300")))
	assert.True(t, d.OficinaPZO.IsZero())
	assert.True(t, d.Ejecutivo.IsZero())
}

func TestVenta_AmbasOficinas_PoolDividido(t *testing.T) {
	d, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto:       dec("1000"),
		TasaVenta:   dec("36.5"),
		TasaOficina: decPtr("36.0"),
		TasaCliente: dec("35.0"),
		OficinaPZO:  true,
		OficinaCCS:  true,
	}, service.PoliticaDescartar)
	require.NoError(t, err)

	assert.True(t, d.OficinaPZO.Equal(dec("75")), "pzo %s", d.OficinaPZO)
	assert.True(t, d.OficinaCCS.Equal(dec("75")), "ccs %s", d.OficinaCCS)
	assert.True(t, sumaDistribucion(d).Equal(d.Diferencia))
}

func TestVenta_ComisionBancaria_AjustaTotal(t *testing.T) {
	// Factor 100.30: el banco liquida el 100.30% del total nominal.
	d, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto:                  dec("1000"),
		TasaVenta:              dec("36.5"),
		TasaCliente:            dec("36.5"),
		ComisionBancariaFactor: dec("100.30"),
	}, service.PoliticaDescartar)
	require.NoError(t, err)

	assert.True(t, d.TotalVenta.Equal(dec("36609.5")), "total %s", d.TotalVenta)
	assert.True(t, d.Diferencia.Equal(dec("109.5")), "diferencia %s", d.Diferencia)
}

func TestVenta_ComisionesArbitrarias_DescuentanDelTope(t *testing.T) {
	d, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto:       dec("1000"),
		TasaVenta:   dec("36.5"),
		TasaOficina: decPtr("36.0"),
		TasaCliente: dec("35.0"),
		OficinaPZO:  true,
		Comisiones: []service.ComisionInput{
			{Nombre: "intermediario", Porcentaje: dec("10")},
			{Nombre: "", Porcentaje: dec("5")},           // blank name: skipped
			{Nombre: "gestor", Porcentaje: decimal.Zero}, // 0%: skipped
		},
	}, service.PoliticaDescartar)
	require.NoError(t, err)

	require.Len(t, d.Comisiones, 1)
	assert.True(t, d.Comisiones[0].Monto.Equal(dec("50")), "comision %s", d.Comisiones[0].Monto)
	assert.True(t, d.MontoADistribuir.Equal(dec("450")))
	assert.True(t, d.OficinaPZO.Equal(dec("135")))
	assert.True(t, d.Ejecutivo.Equal(dec("180")))
	assert.True(t, d.GananciaCliente.Equal(dec("135")))
	assert.True(t, sumaDistribucion(d).Equal(d.Diferencia))
}

func TestVenta_ModoOficinaSinSeleccion_Politicas(t *testing.T) {
	in := service.DistribucionVentaInput{
		Monto:       dec("1000"),
		TasaVenta:   dec("36.5"),
		TasaOficina: decPtr("36.0"),
		TasaCliente: dec("35.0"),
		// office mode on (tasa de oficina) but neither office selected
	}

	descartado, err := service.CalcularDistribucionVenta(in, service.PoliticaDescartar)
	require.NoError(t, err)
	assert.True(t, descartado.GananciaCliente.Equal(dec("150")))
	assert.True(t, descartado.OficinaPZO.IsZero())
	assert.True(t, descartado.OficinaCCS.IsZero())

	reasignado, err := service.CalcularDistribucionVenta(in, service.PoliticaReasignar)
	require.NoError(t, err)
	assert.True(t, reasignado.GananciaCliente.Equal(dec("300")), "cliente %s", reasignado.GananciaCliente)
	assert.True(t, sumaDistribucion(reasignado).Equal(reasignado.Diferencia))
}

func TestVenta_EntradasInvalidas(t *testing.T) {
	_, err := service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto: decimal.Zero, TasaVenta: dec("36.5"),
	}, service.PoliticaDescartar)
	assert.ErrorIs(t, err, service.ErrMontoInvalido)

	_, err = service.CalcularDistribucionVenta(service.DistribucionVentaInput{
		Monto: dec("100"), TasaVenta: decimal.Zero,
	}, service.PoliticaDescartar)
	assert.ErrorIs(t, err, service.ErrTasaInvalida)
}

// ── Canjes ────────────────────────────────────────────────────────────────────

func TestCanjeInterno_SoloDiferencia(t *testing.T) {
	// 2000 al 2.5% de venta y 1.3% de costo → diferencia 24.00, sin reparto.
	d, err := service.CalcularDistribucionCanje(service.DistribucionCanjeInput{
		Monto:         dec("2000"),
		ComisionVenta: dec("2.5"),
		ComisionCosto: dec("1.3"),
	})
	require.NoError(t, err)

	assert.True(t, d.Diferencia.Equal(dec("24")), "diferencia %s", d.Diferencia)
	assert.True(t, d.MontoADistribuir.Equal(dec("24")))
	assert.True(t, d.Nomina.IsZero())
	assert.True(t, d.OficinaPZO.IsZero())
	assert.True(t, d.Ejecutivo.IsZero())
}

func TestCanjeExterno_NominaYReparto(t *testing.T) {
	// Diferencia 100 → nomina 5, restante 95: 28.50 / 28.50 / 38.
	d, err := service.CalcularDistribucionCanje(service.DistribucionCanjeInput{
		Monto:         dec("10000"),
		ComisionVenta: dec("2"),
		ComisionCosto: dec("1"),
		Externo:       true,
	})
	require.NoError(t, err)

	assert.True(t, d.Diferencia.Equal(dec("100")))
	assert.True(t, d.Nomina.Equal(dec("5")), "nomina %s", d.Nomina)
	assert.True(t, d.MontoADistribuir.Equal(dec("95")))
	assert.True(t, d.OficinaPZO.Equal(dec("28.5")), "pzo %s", d.OficinaPZO)
	assert.True(t, d.OficinaCCS.Equal(dec("28.5")), "ccs %s", d.OficinaCCS)
	assert.True(t, d.Ejecutivo.Equal(dec("38")), "ejecutivo %s", d.Ejecutivo)

	assert.True(t, sumaDistribucion(d).Equal(d.Diferencia))
}

func TestCanje_ComisionCostoMayor_DiferenciaNegativa(t *testing.T) {
	// Una comisión de costo mayor a la de venta produce pérdida; el cálculo
	// la reporta tal cual, no la rechaza.
	d, err := service.CalcularDistribucionCanje(service.DistribucionCanjeInput{
		Monto:         dec("1000"),
		ComisionVenta: dec("1"),
		ComisionCosto: dec("2"),
	})
	require.NoError(t, err)
	assert.True(t, d.Diferencia.Equal(dec("-10")))
}

func TestCanje_MontoInvalido(t *testing.T) {
	_, err := service.CalcularDistribucionCanje(service.DistribucionCanjeInput{
		Monto: decimal.Zero, ComisionVenta: dec("2"), ComisionCosto: dec("1"),
	})
	assert.ErrorIs(t, err, service.ErrMontoInvalido)
}
