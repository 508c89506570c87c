package service

// acumulador.go — running ledger of amounts entered against an operation's
// declared total. Replaces the legacy pattern of mutable module-level counters
// with an explicit instance rebuilt from persisted legs.

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrMontoExcedeRestante = errors.New("el monto excede el restante de la operación")
	ErrOperacionCompleta   = errors.New("la operación ya está completa")
)

// Acumulador tracks how much of an operation's target amount has been covered
// by registered legs. Accumulation is monotonic: the entered amount only
// decreases when a previously accepted leg is explicitly withdrawn.
type Acumulador struct {
	montoTotal     decimal.Decimal
	montoIngresado decimal.Decimal
}

// NewAcumulador builds a ledger for the given target. Existing legs are
// replayed through Registrar by the caller.
func NewAcumulador(montoTotal decimal.Decimal) *Acumulador {
	return &Acumulador{montoTotal: montoTotal}
}

// Registrar accepts a leg amount. The amount must be positive and must not
// exceed the remaining balance; on rejection the ledger is left untouched.
func (a *Acumulador) Registrar(monto decimal.Decimal) error {
	if !monto.IsPositive() {
		return ErrMontoInvalido
	}
	if a.Completa() {
		return ErrOperacionCompleta
	}
	if monto.GreaterThan(a.Restante()) {
		return ErrMontoExcedeRestante
	}
	a.montoIngresado = a.montoIngresado.Add(monto)
	return nil
}

// Retirar subtracts a previously accepted leg amount (leg removed or about to
// be re-added in edited form). Never drops below zero.
func (a *Acumulador) Retirar(monto decimal.Decimal) {
	a.montoIngresado = a.montoIngresado.Sub(monto)
	if a.montoIngresado.IsNegative() {
		a.montoIngresado = decimal.Zero
	}
}

// Restante is the balance still open for new legs.
func (a *Acumulador) Restante() decimal.Decimal {
	return a.montoTotal.Sub(a.montoIngresado)
}

// Ingresado is the sum of accepted leg amounts.
func (a *Acumulador) Ingresado() decimal.Decimal {
	return a.montoIngresado
}

// Completa reports whether the remaining balance reached zero. Registrar
// guarantees the balance never goes negative, so zero is the only terminal
// value; a pending amount ≤ 0 read back from storage is treated the same way.
func (a *Acumulador) Completa() bool {
	return !a.Restante().IsPositive()
}

// EstadoDerivado maps a pending amount to the operation status it implies.
// Used as a read-time consistency repair: it derives, it never persists.
func EstadoDerivado(montoPendiente decimal.Decimal) string {
	if montoPendiente.IsPositive() {
		return "incompleta"
	}
	return "completa"
}
