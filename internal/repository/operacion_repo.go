package repository

import (
	"context"

	"interunido/internal/dto"
	"interunido/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OperacionRepository interface {
	Create(ctx context.Context, o *model.Operacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Operacion, error)
	List(ctx context.Context, filter dto.OperacionFilter) ([]model.Operacion, int64, error)
	// UpdateVersioned persists o only when the stored version still matches
	// expectedVersion, bumping the version on success. Returns
	// gorm.ErrRecordNotFound when the check fails (stale read).
	UpdateVersioned(ctx context.Context, tx *gorm.DB, o *model.Operacion, expectedVersion int) error
	CreateTransaccionTx(tx *gorm.DB, t *model.Transaccion) error
	DeleteTransaccionTx(tx *gorm.DB, id uuid.UUID) error
	AppendHistorialTx(tx *gorm.DB, h *model.HistorialOperacion) error
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type operacionRepo struct{ db *gorm.DB }

func NewOperacionRepository(db *gorm.DB) OperacionRepository { return &operacionRepo{db: db} }

func (r *operacionRepo) DB() *gorm.DB { return r.db }

func (r *operacionRepo) Create(ctx context.Context, o *model.Operacion) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *operacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Operacion, error) {
	var o model.Operacion
	err := r.db.WithContext(ctx).
		Preload("Transacciones.Comisiones").
		Preload("Historial", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Operador").
		First(&o, id).Error
	return &o, err
}

func (r *operacionRepo) List(ctx context.Context, filter dto.OperacionFilter) ([]model.Operacion, int64, error) {
	var ops []model.Operacion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Operacion{})

	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Cliente != "" {
		q = q.Where("cliente ILIKE ?", "%"+filter.Cliente+"%")
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.OperadorID != "" {
		q = q.Where("operador_id = ?", filter.OperadorID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Transacciones.Comisiones").Preload("Operador").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ops).Error

	return ops, total, err
}

func (r *operacionRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, o *model.Operacion, expectedVersion int) error {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).Model(&model.Operacion{}).
		Where("id = ? AND version = ?", o.ID, expectedVersion).
		Updates(map[string]interface{}{
			"cliente":         o.Cliente,
			"tasa_cliente":    o.TasaCliente,
			"estado":          o.Estado,
			"monto_pendiente": o.MontoPendiente,
			"version":         expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	o.Version = expectedVersion + 1
	return nil
}

func (r *operacionRepo) CreateTransaccionTx(tx *gorm.DB, t *model.Transaccion) error {
	return tx.Create(t).Error
}

func (r *operacionRepo) DeleteTransaccionTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("transaccion_id = ?", id).Delete(&model.ComisionArbitraria{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Transaccion{}, id).Error
}

func (r *operacionRepo) AppendHistorialTx(tx *gorm.DB, h *model.HistorialOperacion) error {
	return tx.Create(h).Error
}
