package model

import (
	"time"

	"github.com/google/uuid"
)

// Nota is a free-form note, optionally linked to an operation.
// Etiquetas are derived from "#word" tokens in Contenido on every save —
// never edited directly.
type Nota struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Titulo    string    `gorm:"not null"`
	Contenido string    `gorm:"type:text;not null"`

	CreadoPor uuid.UUID `gorm:"type:uuid;not null;index"`

	TipoOperacion *string    `gorm:"type:varchar(10)"`
	OperacionID   *uuid.UUID `gorm:"type:uuid;index"`

	Etiquetas []EtiquetaNota `gorm:"foreignKey:NotaID;constraint:OnDelete:CASCADE"`
	Archivada bool           `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EtiquetaNota stores one derived tag per row so tag filters can hit an index.
type EtiquetaNota struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NotaID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre string    `gorm:"type:varchar(60);not null;index"`
}
