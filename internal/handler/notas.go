package handler

import (
	"errors"
	"net/http"

	"interunido/internal/apierror"
	"interunido/internal/dto"
	"interunido/internal/middleware"
	"interunido/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotasHandler serves the per-user notes endpoints. Every operation is scoped
// to the authenticated user; a note of another user behaves as nonexistent.
type NotasHandler struct{ svc service.NotaService }

func NewNotasHandler(svc service.NotaService) *NotasHandler { return &NotasHandler{svc: svc} }

func writeNotaError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotaNoEncontrada) {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, apierror.New("Error interno"))
}

// Crear godoc
// @Summary      Crear nota
// @Description  Crea una nota personal. Las etiquetas se derivan de los hashtags (#palabra) del contenido.
// @Tags         notas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearNotaRequest true "Datos de la nota"
// @Success      201  {object} dto.NotaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/notas [post]
func (h *NotasHandler) Crear(c *gin.Context) {
	var req dto.CrearNotaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar notas
// @Tags         notas
// @Produce      json
// @Security     BearerAuth
// @Param        texto      query string false "Búsqueda en título y contenido"
// @Param        etiquetas  query string false "Etiquetas separadas por coma, sin '#'"
// @Param        inicio     query string false "Fecha YYYY-MM-DD"
// @Param        fin        query string false "Fecha YYYY-MM-DD"
// @Param        archivadas query bool   false "Incluir archivadas"
// @Success      200 {object} dto.NotaListResponse
// @Router       /v1/notas [get]
func (h *NotasHandler) Listar(c *gin.Context) {
	var filter dto.NotaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	resp, err := h.svc.Listar(c.Request.Context(), usuarioID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar notas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotasHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	resp, err := h.svc.Obtener(c.Request.Context(), id, usuarioID)
	if err != nil {
		writeNotaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotasHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarNotaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	resp, err := h.svc.Actualizar(c.Request.Context(), id, usuarioID, req)
	if err != nil {
		writeNotaError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Archivar togglea el estado archivado según el query param "valor"
// (default true). La nota archivada deja de aparecer en el listado normal.
func (h *NotasHandler) Archivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	archivada := c.DefaultQuery("valor", "true") == "true"
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	if err := h.svc.Archivar(c.Request.Context(), id, usuarioID, archivada); err != nil {
		writeNotaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotasHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	usuarioID, _ := uuid.Parse(middleware.GetClaims(c).UserID)

	if err := h.svc.Eliminar(c.Request.Context(), id, usuarioID); err != nil {
		writeNotaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
