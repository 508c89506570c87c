package tests

import (
	"context"
	"testing"

	"interunido/internal/dto"
	"interunido/internal/model"
	"interunido/internal/repository"
	"interunido/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory NotaRepository ─────────────────────────────────────────────────

type stubNotaRepo struct {
	notas map[uuid.UUID]*model.Nota
}

var _ repository.NotaRepository = (*stubNotaRepo)(nil)

func newStubNotaRepo() *stubNotaRepo {
	return &stubNotaRepo{notas: make(map[uuid.UUID]*model.Nota)}
}

func (r *stubNotaRepo) Create(_ context.Context, n *model.Nota) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	for i := range n.Etiquetas {
		n.Etiquetas[i].NotaID = n.ID
	}
	r.notas[n.ID] = n
	return nil
}

func (r *stubNotaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Nota, error) {
	n, ok := r.notas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *n
	return &copia, nil
}

func (r *stubNotaRepo) List(_ context.Context, creadoPor uuid.UUID, filter dto.NotaFilter) ([]model.Nota, int64, error) {
	var result []model.Nota
	for _, n := range r.notas {
		if n.CreadoPor != creadoPor {
			continue
		}
		if !filter.Archivadas && n.Archivada {
			continue
		}
		result = append(result, *n)
	}
	return result, int64(len(result)), nil
}

func (r *stubNotaRepo) Update(_ context.Context, n *model.Nota) error {
	stored, ok := r.notas[n.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Titulo = n.Titulo
	stored.Contenido = n.Contenido
	return nil
}

func (r *stubNotaRepo) ReplaceEtiquetas(_ context.Context, notaID uuid.UUID, etiquetas []string) error {
	stored, ok := r.notas[notaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Etiquetas = nil
	for _, tag := range etiquetas {
		stored.Etiquetas = append(stored.Etiquetas, model.EtiquetaNota{NotaID: notaID, Nombre: tag})
	}
	return nil
}

func (r *stubNotaRepo) SetArchivada(_ context.Context, id uuid.UUID, archivada bool) error {
	stored, ok := r.notas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Archivada = archivada
	return nil
}

func (r *stubNotaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.notas, id)
	return nil
}

// ── Tests: ExtraerEtiquetas ──────────────────────────────────────────────────

func TestExtraerEtiquetas(t *testing.T) {
	casos := []struct {
		contenido string
		esperado  []string
	}{
		{"Pago pendiente #urgente #cliente123", []string{"urgente", "cliente123"}},
		{"#URGENTE y de nuevo #urgente", []string{"urgente"}},
		{"sin etiquetas", []string{}},
		{"raro ## #", []string{}},
		{"#uno texto #dos texto #tres", []string{"uno", "dos", "tres"}},
	}
	for _, c := range casos {
		assert.Equal(t, c.esperado, service.ExtraerEtiquetas(c.contenido), "contenido: %q", c.contenido)
	}
}

// ── Tests: NotaService ───────────────────────────────────────────────────────

func TestCrearNota_DerivaEtiquetas(t *testing.T) {
	repo := newStubNotaRepo()
	svc := service.NewNotaService(repo)
	usuario := uuid.New()

	resp, err := svc.Crear(context.Background(), usuario, dto.CrearNotaRequest{
		Titulo:    "Seguimiento",
		Contenido: "Confirmar transferencia #urgente #banco",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"urgente", "banco"}, resp.Etiquetas)
	assert.False(t, resp.Archivada)
}

func TestActualizarNota_RecalculaEtiquetas(t *testing.T) {
	repo := newStubNotaRepo()
	svc := service.NewNotaService(repo)
	usuario := uuid.New()

	creada, err := svc.Crear(context.Background(), usuario, dto.CrearNotaRequest{
		Titulo: "Nota", Contenido: "texto #viejo",
	})
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	nuevo := "texto nuevo #fresco"
	resp, err := svc.Actualizar(context.Background(), id, usuario, dto.ActualizarNotaRequest{
		Contenido: &nuevo,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"fresco"}, resp.Etiquetas)
	// El set persistido también refleja el contenido nuevo.
	stored := repo.notas[id]
	require.Len(t, stored.Etiquetas, 1)
	assert.Equal(t, "fresco", stored.Etiquetas[0].Nombre)
}

func TestNota_AjenaSeComportaComoInexistente(t *testing.T) {
	repo := newStubNotaRepo()
	svc := service.NewNotaService(repo)
	duenio := uuid.New()

	creada, err := svc.Crear(context.Background(), duenio, dto.CrearNotaRequest{
		Titulo: "Privada", Contenido: "secreto",
	})
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	otro := uuid.New()
	_, err = svc.Obtener(context.Background(), id, otro)
	assert.ErrorIs(t, err, service.ErrNotaNoEncontrada)

	err = svc.Eliminar(context.Background(), id, otro)
	assert.ErrorIs(t, err, service.ErrNotaNoEncontrada)

	// El dueño sigue viéndola.
	_, err = svc.Obtener(context.Background(), id, duenio)
	assert.NoError(t, err)
}

func TestArchivarNota_SaleDelListadoNormal(t *testing.T) {
	repo := newStubNotaRepo()
	svc := service.NewNotaService(repo)
	usuario := uuid.New()

	creada, err := svc.Crear(context.Background(), usuario, dto.CrearNotaRequest{
		Titulo: "Vieja", Contenido: "archivar luego",
	})
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	require.NoError(t, svc.Archivar(context.Background(), id, usuario, true))

	normales, err := svc.Listar(context.Background(), usuario, dto.NotaFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, normales.Data, 0)

	todas, err := svc.Listar(context.Background(), usuario, dto.NotaFilter{Page: 1, Limit: 50, Archivadas: true})
	require.NoError(t, err)
	assert.Len(t, todas.Data, 1)

	// La nota archivada sigue accesible directamente.
	resp, err := svc.Obtener(context.Background(), id, usuario)
	require.NoError(t, err)
	assert.True(t, resp.Archivada)
}

func TestEliminarNota_EsDefinitivo(t *testing.T) {
	repo := newStubNotaRepo()
	svc := service.NewNotaService(repo)
	usuario := uuid.New()

	creada, err := svc.Crear(context.Background(), usuario, dto.CrearNotaRequest{
		Titulo: "Temporal", Contenido: "borrar",
	})
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	require.NoError(t, svc.Eliminar(context.Background(), id, usuario))

	_, err = svc.Obtener(context.Background(), id, usuario)
	assert.ErrorIs(t, err, service.ErrNotaNoEncontrada)
}
