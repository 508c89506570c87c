package tests

import (
	"testing"

	"interunido/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcumulador_RegistroParcial(t *testing.T) {
	a := service.NewAcumulador(dec("1000"))

	require.NoError(t, a.Registrar(dec("400")))
	assert.True(t, a.Restante().Equal(dec("600")))
	assert.False(t, a.Completa())

	require.NoError(t, a.Registrar(dec("600")))
	assert.True(t, a.Restante().IsZero())
	assert.True(t, a.Completa())
}

func TestAcumulador_RechazoNoMutaEstado(t *testing.T) {
	a := service.NewAcumulador(dec("1000"))
	require.NoError(t, a.Registrar(dec("900")))

	err := a.Registrar(dec("200"))
	assert.ErrorIs(t, err, service.ErrMontoExcedeRestante)

	// El rechazo deja el libro intacto.
	assert.True(t, a.Ingresado().Equal(dec("900")))
	assert.True(t, a.Restante().Equal(dec("100")))
}

func TestAcumulador_MontoNoPositivo(t *testing.T) {
	a := service.NewAcumulador(dec("1000"))
	assert.ErrorIs(t, a.Registrar(decimal.Zero), service.ErrMontoInvalido)
	assert.ErrorIs(t, a.Registrar(dec("-5")), service.ErrMontoInvalido)
}

func TestAcumulador_OperacionCompletaRechazaNuevosMontos(t *testing.T) {
	a := service.NewAcumulador(dec("500"))
	require.NoError(t, a.Registrar(dec("500")))

	assert.ErrorIs(t, a.Registrar(dec("1")), service.ErrOperacionCompleta)
}

func TestAcumulador_RetirarReabreElSaldo(t *testing.T) {
	a := service.NewAcumulador(dec("500"))
	require.NoError(t, a.Registrar(dec("500")))
	require.True(t, a.Completa())

	a.Retirar(dec("200"))
	assert.False(t, a.Completa())
	assert.True(t, a.Restante().Equal(dec("200")))

	// Retirar nunca baja de cero.
	a.Retirar(dec("9999"))
	assert.True(t, a.Ingresado().IsZero())
	assert.True(t, a.Restante().Equal(dec("500")))
}

func TestAcumulador_DecimalesExactos(t *testing.T) {
	// 0.1 + 0.2 debe cubrir exactamente 0.3 — sin residuos de punto flotante.
	a := service.NewAcumulador(dec("0.3"))
	require.NoError(t, a.Registrar(dec("0.1")))
	require.NoError(t, a.Registrar(dec("0.2")))
	assert.True(t, a.Completa())
}

func TestEstadoDerivado(t *testing.T) {
	assert.Equal(t, "incompleta", service.EstadoDerivado(dec("0.01")))
	assert.Equal(t, "completa", service.EstadoDerivado(decimal.Zero))
	assert.Equal(t, "completa", service.EstadoDerivado(dec("-1")))
}
