package dto

// NotaFilter is bound from the query string of GET /v1/notas.
// Text, date and tag filters compose; archived notes only show up when
// explicitly requested.
type NotaFilter struct {
	Texto      string `form:"texto"`
	Inicio     string `form:"inicio"` // YYYY-MM-DD
	Fin        string `form:"fin"`    // YYYY-MM-DD
	Etiquetas  string `form:"etiquetas"` // comma-separated, without '#'
	Archivadas bool   `form:"archivadas"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CrearNotaRequest struct {
	Titulo        string  `json:"titulo"    validate:"required"`
	Contenido     string  `json:"contenido" validate:"required"`
	TipoOperacion *string `json:"tipo_operacion" validate:"omitempty,oneof=venta canje"`
	OperacionID   *string `json:"operacion_id"   validate:"omitempty,uuid"`
}

type ActualizarNotaRequest struct {
	Titulo    *string `json:"titulo"`
	Contenido *string `json:"contenido"`
}

type NotaResponse struct {
	ID            string   `json:"id"`
	Titulo        string   `json:"titulo"`
	Contenido     string   `json:"contenido"`
	Etiquetas     []string `json:"etiquetas"`
	TipoOperacion *string  `json:"tipo_operacion,omitempty"`
	OperacionID   *string  `json:"operacion_id,omitempty"`
	Archivada     bool     `json:"archivada"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type NotaListResponse struct {
	Data  []NotaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
