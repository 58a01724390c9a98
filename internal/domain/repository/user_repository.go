package repository

import (
	"context"

	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los Get* devuelven (nil, nil) cuando no hay fila.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// Delete elimina el usuario; sus KPIs, reportes y asociaciones caen en cascada.
	Delete(ctx context.Context, id int64) error
	AddRole(ctx context.Context, userID int64, role entity.Role) error
	RemoveRole(ctx context.Context, userID int64, role entity.Role) error
}
