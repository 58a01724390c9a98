package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	args := m.Called(ctx, limit, offset)
	list, _ := args.Get(0).([]*entity.User)
	return list, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) AddRole(ctx context.Context, userID int64, role entity.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockUserRepo) RemoveRole(ctx context.Context, userID int64, role entity.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func newUserUseCase() (*usecase.UserUseCase, *mockUserRepo) {
	repo := new(mockUserRepo)
	return usecase.NewUserUseCase(repo, logger.Nop()), repo
}

func TestUserCreate_NormalizaEmailYHashea(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ana@example.com").Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
		return u.Email == "ana@example.com" && auth.CheckPassword(u.PasswordHash, "secreto123")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.User).ID = 10
	}).Return(nil)

	out, err := uc.Create(ctx, ceo, dto.CreateUserRequest{
		Email: "  Ana@Example.COM ", Password: "secreto123", Roles: []string{"EMPLOYEE", "employee", "MANAGER"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), out.ID)
	assert.Equal(t, []string{"EMPLOYEE", "MANAGER"}, out.Roles)
	repo.AssertExpectations(t)
}

func TestUserCreate_Duplicado(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("GetByEmail", ctx, "ana@example.com").Return(&entity.User{ID: 4}, nil)

	_, err := uc.Create(ctx, ceo, dto.CreateUserRequest{Email: "ana@example.com", Password: "secreto123", Roles: []string{"CEO"}})

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, "User already exists", domain.Message(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserCreate_SinRoles(t *testing.T) {
	uc, repo := newUserUseCase()

	_, err := uc.Create(context.Background(), ceo, dto.CreateUserRequest{Email: "ana@example.com", Password: "secreto123"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUser_SoloCEOAdministra(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()

	_, err := uc.GetByID(ctx, employee, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, employee, 1), domain.ErrForbidden)
	_, err = uc.AddRole(ctx, employee, 1, "CEO")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestUserGetByID_NoExiste(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	_, err := uc.GetByID(ctx, ceo, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found with id: 99", domain.Message(err))
}

func TestUserProfile_UsaLaIdentidad(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("GetByID", ctx, employee.UserID).Return(&entity.User{ID: employee.UserID, Email: employee.Email, Roles: employee.Roles}, nil)

	out, err := uc.Profile(ctx, employee)
	require.NoError(t, err)
	assert.Equal(t, employee.Email, out.Email)
}

func TestUserList_PaginaPorDefecto(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("List", ctx, 20, 0).Return([]*entity.User{}, nil)

	out, err := uc.List(ctx, ceo, dto.PageRequest{})
	require.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.Equal(t, 20, out.Limit)
}

func TestUserUpdate_EmailEnUso(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Email: "a@x.com", Roles: employee.Roles}, nil)
	repo.On("GetByEmail", ctx, "b@x.com").Return(&entity.User{ID: 6, Email: "b@x.com"}, nil)

	_, err := uc.Update(ctx, ceo, 5, dto.UpdateUserRequest{Email: "B@x.com"})

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserAddRole(t *testing.T) {
	ctx := context.Background()

	t.Run("rol ya asignado", func(t *testing.T) {
		uc, repo := newUserUseCase()
		repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Roles: []entity.Role{entity.RoleEmployee}}, nil)

		_, err := uc.AddRole(ctx, ceo, 5, "EMPLOYEE")

		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		repo.AssertNotCalled(t, "AddRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rol desconocido", func(t *testing.T) {
		uc, _ := newUserUseCase()
		_, err := uc.AddRole(ctx, ceo, 5, "INTERN")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("agrega", func(t *testing.T) {
		uc, repo := newUserUseCase()
		repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Roles: []entity.Role{entity.RoleEmployee}}, nil)
		repo.On("AddRole", ctx, int64(5), entity.RoleCEO).Return(nil)

		out, err := uc.AddRole(ctx, ceo, 5, "ceo")
		require.NoError(t, err)
		assert.Equal(t, []string{"EMPLOYEE", "CEO"}, out.Roles)
		repo.AssertExpectations(t)
	})
}

func TestUserRemoveRole(t *testing.T) {
	ctx := context.Background()

	t.Run("rol no asignado", func(t *testing.T) {
		uc, repo := newUserUseCase()
		repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Roles: []entity.Role{entity.RoleEmployee, entity.RoleManager}}, nil)

		_, err := uc.RemoveRole(ctx, ceo, 5, "CEO")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ultimo rol", func(t *testing.T) {
		uc, repo := newUserUseCase()
		repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Roles: []entity.Role{entity.RoleEmployee}}, nil)

		_, err := uc.RemoveRole(ctx, ceo, 5, "EMPLOYEE")
		assert.ErrorIs(t, err, domain.ErrValidation)
		repo.AssertNotCalled(t, "RemoveRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("quita", func(t *testing.T) {
		uc, repo := newUserUseCase()
		repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5, Roles: []entity.Role{entity.RoleEmployee, entity.RoleManager}}, nil)
		repo.On("RemoveRole", ctx, int64(5), entity.RoleManager).Return(nil)

		out, err := uc.RemoveRole(ctx, ceo, 5, "MANAGER")
		require.NoError(t, err)
		assert.Equal(t, []string{"EMPLOYEE"}, out.Roles)
	})
}

func TestUserDelete(t *testing.T) {
	uc, repo := newUserUseCase()
	ctx := context.Background()
	repo.On("GetByID", ctx, int64(5)).Return(&entity.User{ID: 5}, nil)
	repo.On("Delete", ctx, int64(5)).Return(nil)

	require.NoError(t, uc.Delete(ctx, ceo, 5))
	repo.AssertExpectations(t)
}
