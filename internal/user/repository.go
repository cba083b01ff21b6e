// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

// Unique index backing the external subject; a violation on it means a
// concurrent first login already provisioned this identity.
const externalSubjectConstraint = "users_external_subject_key"

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetInTenant(ctx context.Context, tenantID, id string) (*User, error)
	GetLocalByEmail(ctx context.Context, email string) (*User, error)
	GetByExternalSubject(ctx context.Context, subject string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Deactivate(ctx context.Context, tenantID, id string) error
	ListByTenant(ctx context.Context, tenantID string, params ListUsersParams) ([]User, int, error)
}

const userColumns = `id, tenant_id, email, password_hash, name, role, auth_type,
		       external_subject, photo_url, deactivated_at, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, name, role,
		                   auth_type, external_subject, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.AuthType,
		user.ExternalSubject,
		user.PhotoURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.UniqueConstraint(err) == externalSubjectConstraint {
			return fmt.Errorf("create user: %w", core.ErrConflict)
		}
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) get(ctx context.Context, op, where string, args ...any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if !core.ValidIDs(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return r.get(ctx, "get user", "id = $1", id)
}

func (r *repository) GetInTenant(ctx context.Context, tenantID, id string) (*User, error) {
	if !core.ValidIDs(tenantID, id) {
		return nil, fmt.Errorf("get tenant user: %w", core.ErrNotFound)
	}
	return r.get(ctx, "get tenant user", "id = $1 AND tenant_id = $2", id, tenantID)
}

// GetLocalByEmail resolves the single local account for an email. Local
// emails are globally unique so login needs no tenant hint.
func (r *repository) GetLocalByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx, "get user by email",
		"email = $1 AND auth_type = 'local'", strings.ToLower(email))
}

func (r *repository) GetByExternalSubject(ctx context.Context, subject string) (*User, error) {
	return r.get(ctx, "get user by subject", "external_subject = $1", subject)
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, role = $3, photo_url = $4, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Role,
		user.PhotoURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND auth_type = 'local' AND deactivated_at IS NULL`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) Deactivate(ctx context.Context, tenantID, id string) error {
	if !core.ValidIDs(tenantID, id) {
		return fmt.Errorf("deactivate user: %w", core.ErrNotFound)
	}

	query := `
		UPDATE users
		SET deactivated_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deactivated_at IS NULL`

	return r.execOne(ctx, "deactivate user", query, id, tenantID)
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByTenant(
	ctx context.Context,
	tenantID string,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if !params.IncludeDeactivated {
		conditions = append(conditions, "deactivated_at IS NULL")
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
