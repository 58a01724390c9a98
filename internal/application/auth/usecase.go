package auth

import (
	"context"
	"time"

	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
	"github.com/jhoicas/kpi-tracker/pkg/jwt"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	log      *logger.Logger
	// selfAssign permite pedir roles distintos de EMPLOYEE al registrarse (bootstrap del primer CEO).
	selfAssign bool
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, log: log.Named("auth")}
}

// WithSelfAssignedRoles habilita o no que el registro público pida roles distintos de EMPLOYEE.
func (uc *AuthUseCase) WithSelfAssignedRoles(allow bool) *AuthUseCase {
	uc.selfAssign = allow
	return uc
}

// RegisterUser crea un usuario con el password hasheado. Sin roles se asigna EMPLOYEE.
// Otros roles solo se aceptan si el registro con roles propios está habilitado.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	names := in.Roles
	if len(names) == 0 {
		names = []string{string(entity.RoleEmployee)}
	}
	roles, err := ParseRoles(names)
	if err != nil {
		return nil, err
	}
	if !uc.selfAssign {
		for _, r := range roles {
			if r != entity.RoleEmployee {
				return nil, domain.NewError(domain.ErrForbidden, "Only a CEO can assign role "+string(r))
			}
		}
	}
	email := entity.NormalizeEmail(in.Email)
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewError(domain.ErrAlreadyExists, "User already exists")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", user.ID).Strs("roles", entity.RoleNames(roles)).Msg("usuario registrado")
	out := dto.FromUser(user)
	return &out, nil
}

// Login verifica email/password y emite un JWT con userId y roles.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, entity.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(user.PasswordHash, in.Password) {
		return nil, domain.NewError(domain.ErrInvalidCredential, "Invalid email or password")
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, entity.RoleNames(user.Roles), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  dto.FromUser(user),
	}, nil
}

// ParseRoles convierte nombres en roles sin repetidos. Un conjunto vacío es inválido.
func ParseRoles(names []string) ([]entity.Role, error) {
	if len(names) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "roles: at least one role is required")
	}
	seen := make(map[entity.Role]bool, len(names))
	roles := make([]entity.Role, 0, len(names))
	for _, n := range names {
		r, ok := entity.ParseRole(n)
		if !ok {
			return nil, domain.NewError(domain.ErrValidation, "roles: unknown role "+n)
		}
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	return roles, nil
}
