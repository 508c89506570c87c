package handler

import (
	"errors"
	"net/http"

	"interunido/internal/apierror"
	"interunido/internal/dto"
	"interunido/internal/infra"
	"interunido/internal/middleware"
	"interunido/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OperacionesHandler struct {
	svc            service.OperacionService
	pdfStoragePath string
}

func NewOperacionesHandler(svc service.OperacionService, pdfStoragePath string) *OperacionesHandler {
	return &OperacionesHandler{svc: svc, pdfStoragePath: pdfStoragePath}
}

// writeOperacionError maps the service sentinels onto HTTP status codes.
func writeOperacionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOperacionNoEncontrada),
		errors.Is(err, service.ErrTransaccionNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoAutorizado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrVersionConflicto):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrMontoInvalido),
		errors.Is(err, service.ErrTasaInvalida),
		errors.Is(err, service.ErrMontoExcedeRestante),
		errors.Is(err, service.ErrOperacionCompleta):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno"))
	}
}

func caller(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id, claims.Rol == "admin"
}

// Crear godoc
// @Summary      Crear operación
// @Description  Crea una venta o canje. El monto pendiente arranca igual al monto total.
// @Tags         operaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearOperacionRequest true "Datos de la operación"
// @Success      201  {object} dto.OperacionResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/operaciones [post]
func (h *OperacionesHandler) Crear(c *gin.Context) {
	var req dto.CrearOperacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, _ := caller(c)

	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, req)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar operaciones
// @Description  Lista paginada. Los operadores solo ven sus propias operaciones.
// @Tags         operaciones
// @Produce      json
// @Security     BearerAuth
// @Param        tipo    query string false "venta | canje"
// @Param        cliente query string false "Búsqueda parcial por cliente"
// @Param        fecha   query string false "Fecha YYYY-MM-DD"
// @Param        estado  query string false "incompleta | completa | all"
// @Param        page    query int    false "Página (default 1)"
// @Param        limit   query int    false "Registros por página (default 50)"
// @Success      200     {object} dto.OperacionListResponse
// @Failure      400     {object} apierror.APIError
// @Router       /v1/operaciones [get]
func (h *OperacionesHandler) Listar(c *gin.Context) {
	var filter dto.OperacionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	usuarioID, esAdmin := caller(c)
	if !esAdmin {
		filter.OperadorID = usuarioID.String()
	}

	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar operaciones"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener operación
// @Tags         operaciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la operación"
// @Success      200 {object} dto.OperacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/operaciones/{id} [get]
func (h *OperacionesHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	usuarioID, esAdmin := caller(c)

	resp, err := h.svc.Obtener(c.Request.Context(), id, usuarioID, esAdmin)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar operación
// @Description  Actualización parcial con control de versión optimista. Si la versión enviada no coincide retorna 409.
// @Tags         operaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID de la operación"
// @Param        body body dto.ActualizarOperacionRequest true "Campos a modificar + versión esperada"
// @Success      200  {object} dto.OperacionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/operaciones/{id} [patch]
func (h *OperacionesHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarOperacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, esAdmin := caller(c)

	resp, err := h.svc.Actualizar(c.Request.Context(), id, usuarioID, esAdmin, req)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarTransaccion godoc
// @Summary      Registrar transacción
// @Description  Agrega un tramo de operador contra el saldo restante. Calcula y persiste la distribución de ganancias del tramo.
// @Tags         operaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                          true "UUID de la operación"
// @Param        body body dto.RegistrarTransaccionRequest true "Datos del tramo"
// @Success      201  {object} dto.OperacionResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/operaciones/{id}/transacciones [post]
func (h *OperacionesHandler) RegistrarTransaccion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RegistrarTransaccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, esAdmin := caller(c)

	resp, err := h.svc.RegistrarTransaccion(c.Request.Context(), id, usuarioID, esAdmin, req)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ActualizarTransaccion godoc
// @Summary      Editar transacción
// @Description  Reemplaza un tramo existente: el monto anterior vuelve al saldo restante antes de validar el nuevo.
// @Tags         operaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                          true "UUID de la operación"
// @Param        txId path string                          true "UUID de la transacción"
// @Param        body body dto.RegistrarTransaccionRequest true "Datos del tramo"
// @Success      200  {object} dto.OperacionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/operaciones/{id}/transacciones/{txId} [put]
func (h *OperacionesHandler) ActualizarTransaccion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	txID, err := uuid.Parse(c.Param("txId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de transaccion invalido"))
		return
	}
	var req dto.RegistrarTransaccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, esAdmin := caller(c)

	resp, err := h.svc.ActualizarTransaccion(c.Request.Context(), id, txID, usuarioID, esAdmin, req)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarTransaccion godoc
// @Summary      Eliminar transacción
// @Description  Quita un tramo y devuelve su monto al saldo restante de la operación.
// @Tags         operaciones
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la operación"
// @Param        txId path string true "UUID de la transacción"
// @Success      200  {object} dto.OperacionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/operaciones/{id}/transacciones/{txId} [delete]
func (h *OperacionesHandler) EliminarTransaccion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	txID, err := uuid.Parse(c.Param("txId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de transaccion invalido"))
		return
	}
	usuarioID, esAdmin := caller(c)

	resp, err := h.svc.EliminarTransaccion(c.Request.Context(), id, txID, usuarioID, esAdmin)
	if err != nil {
		writeOperacionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarRecibo godoc
// @Summary      Descargar recibo PDF
// @Description  Genera (o regenera) el recibo PDF de la operación y lo retorna como descarga.
// @Tags         operaciones
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la operación"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/operaciones/{id}/recibo [get]
func (h *OperacionesHandler) DescargarRecibo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	usuarioID, esAdmin := caller(c)

	op, err := h.svc.ObtenerModelo(c.Request.Context(), id, usuarioID, esAdmin)
	if err != nil {
		writeOperacionError(c, err)
		return
	}

	path, err := infra.GenerateReciboPDF(op, h.pdfStoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar el recibo"))
		return
	}
	c.FileAttachment(path, "recibo_"+op.ID.String()+".pdf")
}
