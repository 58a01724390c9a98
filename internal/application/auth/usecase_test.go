package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

const testSecret = "auth-test-secret"

// userStore repositorio en memoria indexado por email.
type userStore struct {
	byEmail map[string]*entity.User
	nextID  int64
}

func newUserStore() *userStore { return &userStore{byEmail: map[string]*entity.User{}} }

func (s *userStore) Create(_ context.Context, u *entity.User) error {
	s.nextID++
	u.ID = s.nextID
	s.byEmail[u.Email] = u
	return nil
}

func (s *userStore) GetByID(_ context.Context, id int64) (*entity.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return s.byEmail[email], nil
}

func (s *userStore) List(context.Context, int, int) ([]*entity.User, error) { return nil, nil }
func (s *userStore) Update(context.Context, *entity.User) error              { return nil }
func (s *userStore) Delete(context.Context, int64) error                     { return nil }
func (s *userStore) AddRole(context.Context, int64, entity.Role) error       { return nil }
func (s *userStore) RemoveRole(context.Context, int64, entity.Role) error    { return nil }

func newAuthUseCase() (*auth.AuthUseCase, *userStore) {
	store := newUserStore()
	uc := auth.NewAuthUseCase(store, auth.JWTConfig{Secret: testSecret, ExpMinutes: 5, Issuer: "test"}, logger.Nop())
	return uc, store
}

func TestRegister_PorDefectoEmployee(t *testing.T) {
	uc, store := newAuthUseCase()

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "A@X.com", Password: "secreto123"})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", out.Email)
	assert.Equal(t, []string{"EMPLOYEE"}, out.Roles)
	assert.NotEqual(t, "secreto123", store.byEmail["a@x.com"].PasswordHash)
}

func TestRegister_Duplicado(t *testing.T) {
	uc, _ := newAuthUseCase()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@x.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "A@x.com", Password: "otro12345"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, "User already exists", domain.Message(err))
}

func TestRegister_RolesPrivilegiadosRequierenHabilitacion(t *testing.T) {
	uc, store := newAuthUseCase()
	ctx := context.Background()

	for _, roles := range [][]string{{"CEO"}, {"EMPLOYEE", "MANAGER"}} {
		_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@x.com", Password: "secreto123", Roles: roles})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Empty(t, store.byEmail)

	out, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@x.com", Password: "secreto123", Roles: []string{"employee"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMPLOYEE"}, out.Roles)

	out, err = uc.WithSelfAssignedRoles(true).RegisterUser(ctx, dto.RegisterRequest{Email: "b@x.com", Password: "secreto123", Roles: []string{"CEO"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CEO"}, out.Roles)
}

func TestLogin_TokenResuelveIdentidad(t *testing.T) {
	uc, _ := newAuthUseCase()
	uc.WithSelfAssignedRoles(true)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ceo@x.com", Password: "secreto123", Roles: []string{"CEO", "EMPLOYEE"}})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "CEO@x.com", Password: "secreto123"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, reg.ID, out.User.ID)

	id, err := auth.NewIdentityResolver(testSecret).Resolve(out.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id.UserID)
	assert.Equal(t, "ceo@x.com", id.Email)
	assert.Equal(t, []entity.Role{entity.RoleCEO, entity.RoleEmployee}, id.Roles)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, _ := newAuthUseCase()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@x.com", Password: "secreto123"})
	require.NoError(t, err)

	for name, in := range map[string]dto.LoginRequest{
		"password incorrecto": {Email: "a@x.com", Password: "nope12345"},
		"email desconocido":   {Email: "b@x.com", Password: "secreto123"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Login(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidCredential)
			assert.Equal(t, "Invalid email or password", domain.Message(err))
		})
	}
}

func TestResolve_TokenInvalido(t *testing.T) {
	_, err := auth.NewIdentityResolver(testSecret).Resolve("no.es.jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestParseRoles(t *testing.T) {
	roles, err := auth.ParseRoles([]string{"ROLE_CEO", "ceo", "Manager"})
	require.NoError(t, err)
	assert.Equal(t, []entity.Role{entity.RoleCEO, entity.RoleManager}, roles)

	_, err = auth.ParseRoles(nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = auth.ParseRoles([]string{"INTERN"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("secreto123")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "secreto123"))
	assert.False(t, auth.CheckPassword(hash, "secreto124"))
}
