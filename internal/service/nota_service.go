package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"interunido/internal/dto"
	"interunido/internal/model"
	"interunido/internal/repository"

	"github.com/google/uuid"
)

var ErrNotaNoEncontrada = errors.New("nota no encontrada")

type NotaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearNotaRequest) (*dto.NotaResponse, error)
	Obtener(ctx context.Context, id, usuarioID uuid.UUID) (*dto.NotaResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.NotaFilter) (*dto.NotaListResponse, error)
	Actualizar(ctx context.Context, id, usuarioID uuid.UUID, req dto.ActualizarNotaRequest) (*dto.NotaResponse, error)
	Archivar(ctx context.Context, id, usuarioID uuid.UUID, archivada bool) error
	Eliminar(ctx context.Context, id, usuarioID uuid.UUID) error
}

type notaService struct {
	repo repository.NotaRepository
}

func NewNotaService(repo repository.NotaRepository) NotaService {
	return &notaService{repo: repo}
}

var etiquetaRe = regexp.MustCompile(`#(\w+)`)

// ExtraerEtiquetas derives the tag list from note content: every "#word"
// token, lower-cased, '#' stripped, deduplicated in order of appearance.
func ExtraerEtiquetas(contenido string) []string {
	matches := etiquetaRe.FindAllStringSubmatch(contenido, -1)
	vistas := make(map[string]bool, len(matches))
	etiquetas := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if vistas[tag] {
			continue
		}
		vistas[tag] = true
		etiquetas = append(etiquetas, tag)
	}
	return etiquetas
}

func (s *notaService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearNotaRequest) (*dto.NotaResponse, error) {
	nota := &model.Nota{
		Titulo:        req.Titulo,
		Contenido:     req.Contenido,
		CreadoPor:     usuarioID,
		TipoOperacion: req.TipoOperacion,
	}
	if req.OperacionID != nil {
		opID, err := uuid.Parse(*req.OperacionID)
		if err != nil {
			return nil, errors.New("operacion_id inválido")
		}
		nota.OperacionID = &opID
	}
	for _, tag := range ExtraerEtiquetas(req.Contenido) {
		nota.Etiquetas = append(nota.Etiquetas, model.EtiquetaNota{Nombre: tag})
	}
	if err := s.repo.Create(ctx, nota); err != nil {
		return nil, err
	}
	return notaToResponse(nota), nil
}

func (s *notaService) Obtener(ctx context.Context, id, usuarioID uuid.UUID) (*dto.NotaResponse, error) {
	nota, err := s.buscarPropia(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	return notaToResponse(nota), nil
}

func (s *notaService) Listar(ctx context.Context, usuarioID uuid.UUID, filter dto.NotaFilter) (*dto.NotaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	notas, total, err := s.repo.List(ctx, usuarioID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NotaResponse, 0, len(notas))
	for i := range notas {
		items = append(items, *notaToResponse(&notas[i]))
	}
	return &dto.NotaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Actualizar applies a partial edit. Tags are recomputed from the new content
// on every save — the stored set always mirrors the text.
func (s *notaService) Actualizar(ctx context.Context, id, usuarioID uuid.UUID, req dto.ActualizarNotaRequest) (*dto.NotaResponse, error) {
	nota, err := s.buscarPropia(ctx, id, usuarioID)
	if err != nil {
		return nil, err
	}
	if req.Titulo != nil {
		nota.Titulo = *req.Titulo
	}
	if req.Contenido != nil {
		nota.Contenido = *req.Contenido
	}
	if err := s.repo.Update(ctx, nota); err != nil {
		return nil, err
	}

	etiquetas := ExtraerEtiquetas(nota.Contenido)
	if err := s.repo.ReplaceEtiquetas(ctx, nota.ID, etiquetas); err != nil {
		return nil, err
	}
	nota.Etiquetas = nota.Etiquetas[:0]
	for _, tag := range etiquetas {
		nota.Etiquetas = append(nota.Etiquetas, model.EtiquetaNota{NotaID: nota.ID, Nombre: tag})
	}
	return notaToResponse(nota), nil
}

func (s *notaService) Archivar(ctx context.Context, id, usuarioID uuid.UUID, archivada bool) error {
	if _, err := s.buscarPropia(ctx, id, usuarioID); err != nil {
		return err
	}
	return s.repo.SetArchivada(ctx, id, archivada)
}

func (s *notaService) Eliminar(ctx context.Context, id, usuarioID uuid.UUID) error {
	if _, err := s.buscarPropia(ctx, id, usuarioID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// buscarPropia loads a note and enforces user scoping: notes are private to
// their creator, admins included.
func (s *notaService) buscarPropia(ctx context.Context, id, usuarioID uuid.UUID) (*model.Nota, error) {
	nota, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotaNoEncontrada
	}
	if nota.CreadoPor != usuarioID {
		return nil, ErrNotaNoEncontrada
	}
	return nota, nil
}

func notaToResponse(n *model.Nota) *dto.NotaResponse {
	etiquetas := make([]string, 0, len(n.Etiquetas))
	for _, e := range n.Etiquetas {
		etiquetas = append(etiquetas, e.Nombre)
	}
	resp := &dto.NotaResponse{
		ID:            n.ID.String(),
		Titulo:        n.Titulo,
		Contenido:     n.Contenido,
		Etiquetas:     etiquetas,
		TipoOperacion: n.TipoOperacion,
		Archivada:     n.Archivada,
		CreatedAt:     n.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     n.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if n.OperacionID != nil {
		opID := n.OperacionID.String()
		resp.OperacionID = &opID
	}
	return resp
}
