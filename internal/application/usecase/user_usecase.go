package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/policy"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// UserUseCase administración de usuarios y roles (CEO) y perfil propio.
type UserUseCase struct {
	repo repository.UserRepository
	log  *logger.Logger
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, log *logger.Logger) *UserUseCase {
	return &UserUseCase{repo: repo, log: log.Named("user")}
}

// Create crea un usuario con al menos un rol.
func (uc *UserUseCase) Create(ctx context.Context, id entity.Identity, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpManageUsers); err != nil {
		return nil, err
	}
	roles, err := auth.ParseRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	email := entity.NormalizeEmail(in.Email)
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewError(domain.ErrAlreadyExists, "User already exists")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{Email: email, PasswordHash: hash, Roles: roles, CreatedAt: time.Now()}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", user.ID).Int64("by", id.UserID).Msg("usuario creado")
	out := dto.FromUser(user)
	return &out, nil
}

// GetByID obtiene un usuario.
func (uc *UserUseCase) GetByID(ctx context.Context, id entity.Identity, userID int64) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpManageUsers); err != nil {
		return nil, err
	}
	user, err := uc.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := dto.FromUser(user)
	return &out, nil
}

// Profile devuelve el usuario autenticado.
func (uc *UserUseCase) Profile(ctx context.Context, id entity.Identity) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpViewProfile); err != nil {
		return nil, err
	}
	user, err := uc.mustGet(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	out := dto.FromUser(user)
	return &out, nil
}

// List lista usuarios con paginación.
func (uc *UserUseCase) List(ctx context.Context, id entity.Identity, page dto.PageRequest) (*dto.UserListResponse, error) {
	if err := policy.Authorize(id, policy.OpManageUsers); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, dto.FromUser(u))
	}
	return &dto.UserListResponse{Items: items, Limit: page.Limit, Offset: page.Offset}, nil
}

// Update cambia email y/o password.
func (uc *UserUseCase) Update(ctx context.Context, id entity.Identity, userID int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpManageUsers); err != nil {
		return nil, err
	}
	user, err := uc.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Email != "" {
		email := entity.NormalizeEmail(in.Email)
		if email != user.Email {
			other, err := uc.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.NewError(domain.ErrAlreadyExists, "User already exists")
			}
			user.Email = email
		}
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	out := dto.FromUser(user)
	return &out, nil
}

// Delete elimina el usuario junto con sus KPIs y reportes.
func (uc *UserUseCase) Delete(ctx context.Context, id entity.Identity, userID int64) error {
	if err := policy.Authorize(id, policy.OpManageUsers); err != nil {
		return err
	}
	if _, err := uc.mustGet(ctx, userID); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, userID); err != nil {
		return err
	}
	uc.log.Info().Int64("user_id", userID).Int64("by", id.UserID).Msg("usuario eliminado")
	return nil
}

// AddRole agrega un rol; si ya lo tiene devuelve ErrAlreadyExists.
func (uc *UserUseCase) AddRole(ctx context.Context, id entity.Identity, userID int64, roleName string) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpManageRoles); err != nil {
		return nil, err
	}
	role, ok := entity.ParseRole(roleName)
	if !ok {
		return nil, domain.NewError(domain.ErrValidation, "role: unknown role "+roleName)
	}
	user, err := uc.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role) {
		return nil, domain.NewError(domain.ErrAlreadyExists, fmt.Sprintf("User already has role %s", role))
	}
	if err := uc.repo.AddRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Roles = append(user.Roles, role)
	uc.log.Info().Int64("user_id", userID).Str("role", string(role)).Msg("rol agregado")
	out := dto.FromUser(user)
	return &out, nil
}

// RemoveRole quita un rol. No se permite dejar al usuario sin roles.
func (uc *UserUseCase) RemoveRole(ctx context.Context, id entity.Identity, userID int64, roleName string) (*dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.OpManageRoles); err != nil {
		return nil, err
	}
	role, ok := entity.ParseRole(roleName)
	if !ok {
		return nil, domain.NewError(domain.ErrValidation, "role: unknown role "+roleName)
	}
	user, err := uc.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(role) {
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("User does not have role %s", role))
	}
	if len(user.Roles) == 1 {
		return nil, domain.NewError(domain.ErrValidation, "roles: a user must keep at least one role")
	}
	if err := uc.repo.RemoveRole(ctx, userID, role); err != nil {
		return nil, err
	}
	kept := user.Roles[:0]
	for _, r := range user.Roles {
		if r != role {
			kept = append(kept, r)
		}
	}
	user.Roles = kept
	uc.log.Info().Int64("user_id", userID).Str("role", string(role)).Msg("rol quitado")
	out := dto.FromUser(user)
	return &out, nil
}

func (uc *UserUseCase) mustGet(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("User not found with id: %d", userID))
	}
	return user, nil
}
