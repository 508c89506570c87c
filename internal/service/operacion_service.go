package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"interunido/internal/dto"
	"interunido/internal/model"
	"interunido/internal/repository"
	"interunido/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOperacionNoEncontrada   = errors.New("operación no encontrada")
	ErrTransaccionNoEncontrada = errors.New("transacción no encontrada")
	ErrNoAutorizado            = errors.New("no autorizado para acceder a esta operación")
	ErrVersionConflicto        = errors.New("la operación fue modificada por otro usuario")
)

type OperacionService interface {
	Crear(ctx context.Context, operadorID uuid.UUID, req dto.CrearOperacionRequest) (*dto.OperacionResponse, error)
	Obtener(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool) (*dto.OperacionResponse, error)
	Listar(ctx context.Context, filter dto.OperacionFilter) (*dto.OperacionListResponse, error)
	Actualizar(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool, req dto.ActualizarOperacionRequest) (*dto.OperacionResponse, error)
	RegistrarTransaccion(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool, req dto.RegistrarTransaccionRequest) (*dto.OperacionResponse, error)
	ActualizarTransaccion(ctx context.Context, id, txID, usuarioID uuid.UUID, esAdmin bool, req dto.RegistrarTransaccionRequest) (*dto.OperacionResponse, error)
	EliminarTransaccion(ctx context.Context, id, txID, usuarioID uuid.UUID, esAdmin bool) (*dto.OperacionResponse, error)
	// ObtenerModelo returns the raw record for collaborators that render it
	// (PDF receipt). Same ownership rules as Obtener.
	ObtenerModelo(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool) (*model.Operacion, error)
}

type operacionService struct {
	repo       repository.OperacionRepository
	dispatcher *worker.Dispatcher
	// politicaOficinas: PoliticaDescartar | PoliticaReasignar
	politicaOficinas string
}

func NewOperacionService(repo repository.OperacionRepository, dispatcher *worker.Dispatcher, politicaOficinas string) OperacionService {
	if politicaOficinas == "" {
		politicaOficinas = PoliticaDescartar
	}
	return &operacionService{repo: repo, dispatcher: dispatcher, politicaOficinas: politicaOficinas}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *operacionService) Crear(ctx context.Context, operadorID uuid.UUID, req dto.CrearOperacionRequest) (*dto.OperacionResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}
	if req.Tipo == "canje" && req.Subtipo == nil {
		return nil, errors.New("un canje requiere subtipo interno o externo")
	}

	divisa := req.Divisa
	if divisa == "" {
		divisa = "USD"
	}
	pendiente := req.Monto
	op := &model.Operacion{
		Tipo:           req.Tipo,
		Subtipo:        req.Subtipo,
		Cliente:        req.Cliente,
		Monto:          req.Monto,
		Divisa:         divisa,
		TasaCliente:    req.TasaCliente,
		OperadorID:     operadorID,
		Estado:         "incompleta",
		MontoPendiente: &pendiente,
		Version:        1,
	}
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, err
	}
	return operacionToResponse(op), nil
}

// ── Obtener / Listar ──────────────────────────────────────────────────────────

func (s *operacionService) Obtener(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool) (*dto.OperacionResponse, error) {
	op, err := s.ObtenerModelo(ctx, id, usuarioID, esAdmin)
	if err != nil {
		return nil, err
	}
	return operacionToResponse(op), nil
}

func (s *operacionService) ObtenerModelo(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool) (*model.Operacion, error) {
	op, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrOperacionNoEncontrada
	}
	if !esAdmin && op.OperadorID != usuarioID {
		return nil, ErrNoAutorizado
	}
	return op, nil
}

func (s *operacionService) Listar(ctx context.Context, filter dto.OperacionFilter) (*dto.OperacionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ops, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OperacionResponse, 0, len(ops))
	for i := range ops {
		items = append(items, *operacionToResponse(&ops[i]))
	}
	return &dto.OperacionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Partial update with optimistic concurrency. A history entry is appended only
// when at least one tracked field actually changed. A pending amount pushed to
// zero or below forces estado "completa".

func (s *operacionService) Actualizar(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool, req dto.ActualizarOperacionRequest) (*dto.OperacionResponse, error) {
	op, err := s.ObtenerModelo(ctx, id, usuarioID, esAdmin)
	if err != nil {
		return nil, err
	}
	if op.Version != req.Version {
		return nil, ErrVersionConflicto
	}

	cambios := map[string]map[string]interface{}{}

	if req.Cliente != nil && *req.Cliente != op.Cliente {
		cambios["cliente"] = diff(op.Cliente, *req.Cliente)
		op.Cliente = *req.Cliente
	}
	if req.TasaCliente != nil && !req.TasaCliente.Equal(op.TasaCliente) {
		cambios["tasa_cliente"] = diff(op.TasaCliente.String(), req.TasaCliente.String())
		op.TasaCliente = *req.TasaCliente
	}
	if req.MontoPendiente != nil {
		if op.MontoPendiente == nil || !req.MontoPendiente.Equal(*op.MontoPendiente) {
			antes := "desconocido"
			if op.MontoPendiente != nil {
				antes = op.MontoPendiente.String()
			}
			cambios["monto_pendiente"] = diff(antes, req.MontoPendiente.String())
			pendiente := *req.MontoPendiente
			op.MontoPendiente = &pendiente
		}
	}
	if req.Estado != nil && *req.Estado != op.Estado {
		cambios["estado"] = diff(op.Estado, *req.Estado)
		op.Estado = *req.Estado
	}

	// The pending amount always wins over a manually supplied estado.
	if op.MontoPendiente != nil {
		derivado := EstadoDerivado(*op.MontoPendiente)
		if derivado != op.Estado {
			cambios["estado"] = diff(op.Estado, derivado)
			op.Estado = derivado
		}
	}

	if len(cambios) == 0 {
		return operacionToResponse(op), nil
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateVersioned(ctx, tx, op, req.Version); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionConflicto
			}
			return err
		}
		return s.appendHistorial(tx, op.ID, usuarioID, "actualizacion", cambios)
	})
	if txErr != nil {
		return nil, txErr
	}
	return operacionToResponse(op), nil
}

// ── RegistrarTransaccion ──────────────────────────────────────────────────────
// The accumulator path: rebuild the ledger from persisted legs, validate the
// new amount against the remaining balance, run the distribution calculator,
// persist leg + distribution + history in one transaction, and flip the
// operation to "completa" when the balance reaches zero.

func (s *operacionService) RegistrarTransaccion(ctx context.Context, id, usuarioID uuid.UUID, esAdmin bool, req dto.RegistrarTransaccionRequest) (*dto.OperacionResponse, error) {
	op, err := s.ObtenerModelo(ctx, id, usuarioID, esAdmin)
	if err != nil {
		return nil, err
	}

	acum, err := rebuildAcumulador(op)
	if err != nil {
		return nil, err
	}

	leg, err := s.construirTransaccion(op, req)
	if err != nil {
		return nil, err
	}

	if err := acum.Registrar(req.Monto); err != nil {
		return nil, err
	}

	if err := s.persistirLeg(ctx, op, acum, leg, usuarioID, "transaccion_agregada", nil); err != nil {
		return nil, err
	}

	s.notificarSiCompleta(ctx, op, req.NotificarEmail)
	return s.Obtener(ctx, id, usuarioID, esAdmin)
}

// ── ActualizarTransaccion ─────────────────────────────────────────────────────
// Edit = withdraw the old leg, then validate and re-add the edited one.

func (s *operacionService) ActualizarTransaccion(ctx context.Context, id, txID, usuarioID uuid.UUID, esAdmin bool, req dto.RegistrarTransaccionRequest) (*dto.OperacionResponse, error) {
	op, err := s.ObtenerModelo(ctx, id, usuarioID, esAdmin)
	if err != nil {
		return nil, err
	}

	anterior := buscarTransaccion(op, txID)
	if anterior == nil {
		return nil, ErrTransaccionNoEncontrada
	}

	acum, err := rebuildAcumulador(op)
	if err != nil {
		return nil, err
	}
	acum.Retirar(anterior.Monto)

	leg, err := s.construirTransaccion(op, req)
	if err != nil {
		return nil, err
	}

	if err := acum.Registrar(req.Monto); err != nil {
		return nil, err
	}

	if err := s.persistirLeg(ctx, op, acum, leg, usuarioID, "transaccion_editada", &txID); err != nil {
		return nil, err
	}

	s.notificarSiCompleta(ctx, op, req.NotificarEmail)
	return s.Obtener(ctx, id, usuarioID, esAdmin)
}

// ── EliminarTransaccion ───────────────────────────────────────────────────────

func (s *operacionService) EliminarTransaccion(ctx context.Context, id, txID, usuarioID uuid.UUID, esAdmin bool) (*dto.OperacionResponse, error) {
	op, err := s.ObtenerModelo(ctx, id, usuarioID, esAdmin)
	if err != nil {
		return nil, err
	}

	anterior := buscarTransaccion(op, txID)
	if anterior == nil {
		return nil, ErrTransaccionNoEncontrada
	}

	acum, err := rebuildAcumulador(op)
	if err != nil {
		return nil, err
	}
	acum.Retirar(anterior.Monto)

	restante := acum.Restante()
	op.MontoPendiente = &restante
	op.Estado = EstadoDerivado(restante)

	cambios := map[string]map[string]interface{}{
		"transaccion": diff(anterior.ID.String(), "eliminada"),
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.DeleteTransaccionTx(tx, txID); err != nil {
			return err
		}
		if err := s.repo.UpdateVersioned(ctx, tx, op, op.Version); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionConflicto
			}
			return err
		}
		return s.appendHistorial(tx, op.ID, usuarioID, "transaccion_eliminada", cambios)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Obtener(ctx, id, usuarioID, esAdmin)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// rebuildAcumulador replays the persisted legs through a fresh ledger.
func rebuildAcumulador(op *model.Operacion) (*Acumulador, error) {
	acum := NewAcumulador(op.Monto)
	for i := range op.Transacciones {
		if err := acum.Registrar(op.Transacciones[i].Monto); err != nil {
			return nil, fmt.Errorf("estado inconsistente en operación %s: %w", op.ID, err)
		}
	}
	return acum, nil
}

func buscarTransaccion(op *model.Operacion, txID uuid.UUID) *model.Transaccion {
	for i := range op.Transacciones {
		if op.Transacciones[i].ID == txID {
			return &op.Transacciones[i]
		}
	}
	return nil
}

// construirTransaccion validates the leg inputs, runs the distribution
// calculator for the operation's type, and returns the leg with its snapshot.
// No state is touched on validation failure.
func (s *operacionService) construirTransaccion(op *model.Operacion, req dto.RegistrarTransaccionRequest) (*model.Transaccion, error) {
	leg := &model.Transaccion{
		OperacionID:            op.ID,
		OperadorNombre:         req.OperadorNombre,
		Monto:                  req.Monto,
		TasaVenta:              req.TasaVenta,
		TasaOficina:            req.TasaOficina,
		ComisionBancariaFactor: req.ComisionBancariaFactor,
		OficinaPZO:             req.OficinaPZO,
		OficinaCCS:             req.OficinaCCS,
		ComisionVenta:          req.ComisionVenta,
		ComisionCosto:          req.ComisionCosto,
	}

	var d *Distribucion
	var err error
	switch op.Tipo {
	case "venta":
		comisiones := make([]ComisionInput, 0, len(req.Comisiones))
		for _, c := range req.Comisiones {
			comisiones = append(comisiones, ComisionInput{Nombre: c.Nombre, Porcentaje: c.Porcentaje})
		}
		d, err = CalcularDistribucionVenta(DistribucionVentaInput{
			Monto:                  req.Monto,
			TasaVenta:              req.TasaVenta,
			TasaOficina:            req.TasaOficina,
			TasaCliente:            op.TasaCliente,
			ComisionBancariaFactor: req.ComisionBancariaFactor,
			OficinaPZO:             req.OficinaPZO,
			OficinaCCS:             req.OficinaCCS,
			Comisiones:             comisiones,
		}, s.politicaOficinas)
	case "canje":
		externo := op.Subtipo != nil && *op.Subtipo == "externo"
		d, err = CalcularDistribucionCanje(DistribucionCanjeInput{
			Monto:         req.Monto,
			ComisionVenta: req.ComisionVenta,
			ComisionCosto: req.ComisionCosto,
			Externo:       externo,
		})
	default:
		err = fmt.Errorf("tipo de operación desconocido: %s", op.Tipo)
	}
	if err != nil {
		return nil, err
	}

	leg.TotalVenta = d.TotalVenta
	leg.Diferencia = d.Diferencia
	leg.MontoADistribuir = d.MontoADistribuir
	leg.OficinaPZOMonto = d.OficinaPZO
	leg.OficinaCCSMonto = d.OficinaCCS
	leg.Ejecutivo = d.Ejecutivo
	leg.GananciaCliente = d.GananciaCliente
	leg.Nomina = d.Nomina
	for _, c := range d.Comisiones {
		leg.Comisiones = append(leg.Comisiones, model.ComisionArbitraria{
			Nombre:     c.Nombre,
			Porcentaje: c.Porcentaje,
			Monto:      c.Monto,
		})
	}
	return leg, nil
}

// persistirLeg writes the leg, the updated balance and the history entry in a
// single transaction. reemplaza, when set, is the id of the leg this one
// replaces (edit path).
func (s *operacionService) persistirLeg(ctx context.Context, op *model.Operacion, acum *Acumulador, leg *model.Transaccion, usuarioID uuid.UUID, accion string, reemplaza *uuid.UUID) error {
	restante := acum.Restante()
	op.MontoPendiente = &restante
	estadoAnterior := op.Estado
	op.Estado = EstadoDerivado(restante)

	cambios := map[string]map[string]interface{}{
		"monto_pendiente": diff("", restante.String()),
	}
	if estadoAnterior != op.Estado {
		cambios["estado"] = diff(estadoAnterior, op.Estado)
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if reemplaza != nil {
			if err := s.repo.DeleteTransaccionTx(tx, *reemplaza); err != nil {
				return err
			}
		}
		if err := s.repo.CreateTransaccionTx(tx, leg); err != nil {
			return err
		}
		if err := s.repo.UpdateVersioned(ctx, tx, op, op.Version); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionConflicto
			}
			return err
		}
		return s.appendHistorial(tx, op.ID, usuarioID, accion, cambios)
	})
}

// notificarSiCompleta enqueues the async receipt job once an operation closes.
// Best effort — a queue failure never fails the request.
func (s *operacionService) notificarSiCompleta(ctx context.Context, op *model.Operacion, email *string) {
	if s.dispatcher == nil || op.Estado != "completa" {
		return
	}
	payload := worker.ReciboJobPayload{OperacionID: op.ID.String()}
	if email != nil && *email != "" {
		payload.NotificarEmail = *email
	}
	_ = s.dispatcher.EnqueueRecibo(ctx, payload)
}

func (s *operacionService) appendHistorial(tx *gorm.DB, opID, usuarioID uuid.UUID, accion string, cambios map[string]map[string]interface{}) error {
	data, err := json.Marshal(cambios)
	if err != nil {
		return err
	}
	h := &model.HistorialOperacion{
		OperacionID: opID,
		UsuarioID:   usuarioID,
		Accion:      accion,
		Cambios:     string(data),
	}
	if tx == nil {
		return s.repo.AppendHistorialTx(s.repo.DB(), h)
	}
	return s.repo.AppendHistorialTx(tx, h)
}

func diff(antes, despues interface{}) map[string]interface{} {
	return map[string]interface{}{"antes": antes, "despues": despues}
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func operacionToResponse(op *model.Operacion) *dto.OperacionResponse {
	pendiente := decimal.Zero
	if op.MontoPendiente != nil {
		pendiente = *op.MontoPendiente
	} else {
		// Unknown pending amount: recompute from the registered legs.
		ingresado := decimal.Zero
		for i := range op.Transacciones {
			ingresado = ingresado.Add(op.Transacciones[i].Monto)
		}
		pendiente = op.Monto.Sub(ingresado)
	}

	resp := &dto.OperacionResponse{
		ID:          op.ID.String(),
		Tipo:        op.Tipo,
		Subtipo:     op.Subtipo,
		Cliente:     op.Cliente,
		Monto:       op.Monto,
		Divisa:      op.Divisa,
		TasaCliente: op.TasaCliente,
		OperadorID:  op.OperadorID.String(),
		// Read-time consistency repair: the derived status always wins.
		Estado:         EstadoDerivado(pendiente),
		MontoPendiente: pendiente.Round(2),
		Version:        op.Version,
		CreatedAt:      op.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if op.Operador != nil {
		resp.Operador = op.Operador.Username
	}

	for i := range op.Transacciones {
		t := &op.Transacciones[i]
		resp.Transacciones = append(resp.Transacciones, transaccionToResponse(t))
	}
	for i := range op.Historial {
		h := &op.Historial[i]
		resp.Historial = append(resp.Historial, dto.HistorialResponse{
			UsuarioID: h.UsuarioID.String(),
			Accion:    h.Accion,
			Cambios:   h.Cambios,
			Fecha:     h.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return resp
}

func transaccionToResponse(t *model.Transaccion) dto.TransaccionResponse {
	comisiones := make([]dto.ComisionArbitrariaResponse, 0, len(t.Comisiones))
	for _, c := range t.Comisiones {
		comisiones = append(comisiones, dto.ComisionArbitrariaResponse{
			Nombre:     c.Nombre,
			Porcentaje: c.Porcentaje,
			Monto:      c.Monto.Round(2),
		})
	}
	return dto.TransaccionResponse{
		ID:             t.ID.String(),
		OperadorNombre: t.OperadorNombre,
		Monto:          t.Monto,
		Distribucion: dto.DistribucionResponse{
			TotalVenta:       t.TotalVenta.Round(2),
			Diferencia:       t.Diferencia.Round(2),
			Comisiones:       comisiones,
			MontoADistribuir: t.MontoADistribuir.Round(2),
			OficinaPZO:       t.OficinaPZOMonto.Round(2),
			OficinaCCS:       t.OficinaCCSMonto.Round(2),
			Ejecutivo:        t.Ejecutivo.Round(2),
			GananciaCliente:  t.GananciaCliente.Round(2),
			Nomina:           t.Nomina.Round(2),
		},
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
