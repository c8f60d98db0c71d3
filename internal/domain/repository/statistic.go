package repository

import (
	"context"
	"time"
)

// StatisticSnapshot es la foto diaria de usuarios activos.
// Date está normalizada a medianoche local.
type StatisticSnapshot struct {
	Date        time.Time
	ActiveUsers int64
}

// StatisticRepository persiste una fila por día calendario.
type StatisticRepository interface {
	// Upsert inserta o actualiza la fila del día (clave: Date).
	Upsert(ctx context.Context, s StatisticSnapshot) error

	// Latest devuelve las n filas más recientes ordenadas por fecha descendente.
	Latest(ctx context.Context, n int) ([]StatisticSnapshot, error)
}
