package repository

import (
	"context"
	"strings"

	"interunido/internal/dto"
	"interunido/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotaRepository interface {
	Create(ctx context.Context, n *model.Nota) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Nota, error)
	List(ctx context.Context, creadoPor uuid.UUID, filter dto.NotaFilter) ([]model.Nota, int64, error)
	Update(ctx context.Context, n *model.Nota) error
	ReplaceEtiquetas(ctx context.Context, notaID uuid.UUID, etiquetas []string) error
	SetArchivada(ctx context.Context, id uuid.UUID, archivada bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type notaRepo struct{ db *gorm.DB }

func NewNotaRepository(db *gorm.DB) NotaRepository { return &notaRepo{db: db} }

func (r *notaRepo) Create(ctx context.Context, n *model.Nota) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Nota, error) {
	var n model.Nota
	err := r.db.WithContext(ctx).Preload("Etiquetas").First(&n, id).Error
	return &n, err
}

func (r *notaRepo) List(ctx context.Context, creadoPor uuid.UUID, filter dto.NotaFilter) ([]model.Nota, int64, error) {
	var notas []model.Nota
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Nota{}).Where("creado_por = ?", creadoPor)

	if !filter.Archivadas {
		q = q.Where("archivada = false")
	}
	if filter.Texto != "" {
		like := "%" + filter.Texto + "%"
		q = q.Where("titulo ILIKE ? OR contenido ILIKE ?", like, like)
	}
	if filter.Inicio != "" {
		q = q.Where("DATE(created_at) >= ?", filter.Inicio)
	}
	if filter.Fin != "" {
		q = q.Where("DATE(created_at) <= ?", filter.Fin)
	}
	if filter.Etiquetas != "" {
		tags := []string{}
		for _, t := range strings.Split(filter.Etiquetas, ",") {
			t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
			if t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) > 0 {
			q = q.Where("id IN (?)", r.db.Model(&model.EtiquetaNota{}).
				Select("nota_id").Where("nombre IN ?", tags))
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Etiquetas").
		Order("updated_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&notas).Error

	return notas, total, err
}

func (r *notaRepo) Update(ctx context.Context, n *model.Nota) error {
	return r.db.WithContext(ctx).Omit("Etiquetas").Save(n).Error
}

// ReplaceEtiquetas swaps the derived tag rows atomically. Tags are recomputed
// from content on every save, so the previous set is always discarded.
func (r *notaRepo) ReplaceEtiquetas(ctx context.Context, notaID uuid.UUID, etiquetas []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("nota_id = ?", notaID).Delete(&model.EtiquetaNota{}).Error; err != nil {
			return err
		}
		for _, nombre := range etiquetas {
			if err := tx.Create(&model.EtiquetaNota{NotaID: notaID, Nombre: nombre}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *notaRepo) SetArchivada(ctx context.Context, id uuid.UUID, archivada bool) error {
	return r.db.WithContext(ctx).Model(&model.Nota{}).Where("id = ?", id).Update("archivada", archivada).Error
}

func (r *notaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("nota_id = ?", id).Delete(&model.EtiquetaNota{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Nota{}, id).Error
	})
}
