package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
// Los roles viven en user_roles y se leen agregados con array_agg.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Pasar pool o tx.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.created_at,
	       COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id`

// Create inserta el usuario y sus roles en una sola sentencia (atómica).
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		WITH u AS (
			INSERT INTO users (email, password_hash, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		), roles AS (
			INSERT INTO user_roles (user_id, role)
			SELECT u.id, unnest($4::text[]) FROM u
		)
		SELECT id FROM u`
	err := r.q.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.CreatedAt, entity.RoleNames(user.Roles),
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.ErrAlreadyExists, "User already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.id = $1 GROUP BY u.id`, id)
}

// GetByEmail obtiene un usuario por email (ya normalizado).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.email = $1 GROUP BY u.id`, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List lista usuarios con paginación, por id.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, selectUser+` GROUP BY u.id ORDER BY u.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update actualiza email y password_hash.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	_, err := r.q.Exec(ctx, `UPDATE users SET email = $2, password_hash = $3 WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.ErrAlreadyExists, "User already exists")
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete elimina un usuario; user_roles, kpis, reports y report_kpi caen por ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// AddRole agrega un rol al usuario.
func (r *UserRepo) AddRole(ctx context.Context, userID int64, role entity.Role) error {
	_, err := r.q.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, string(role))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.ErrAlreadyExists, fmt.Sprintf("User already has role %s", role))
		}
		if isForeignKeyViolation(err) {
			return domain.NewError(domain.ErrNotFound, fmt.Sprintf("User not found with id: %d", userID))
		}
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

// beginner lo implementan *pgxpool.Pool y pgx.Tx (dentro de una tx abre un savepoint).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RemoveRole quita un rol; nunca deja al usuario sin roles. La fila de users queda bloqueada
// antes de contar, así dos bajas concurrentes sobre el mismo usuario se serializan.
func (r *UserRepo) RemoveRole(ctx context.Context, userID int64, role entity.Role) error {
	db, ok := r.q.(beginner)
	if !ok {
		return errors.New("remove role: querier sin soporte de transacciones")
	}
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewError(domain.ErrNotFound, fmt.Sprintf("User not found with id: %d", userID))
			}
			return fmt.Errorf("lock user: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			DELETE FROM user_roles
			WHERE user_id = $1 AND role = $2
			  AND (SELECT count(*) FROM user_roles WHERE user_id = $1) > 1`,
			userID, string(role))
		if err != nil {
			return fmt.Errorf("remove role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewError(domain.ErrValidation, "roles: role not held or it is the last one")
		}
		return nil
	})
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u     entity.User
		roles []string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &roles); err != nil {
		return nil, err
	}
	u.Roles = make([]entity.Role, 0, len(roles))
	for _, name := range roles {
		if role, ok := entity.ParseRole(name); ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return &u, nil
}
