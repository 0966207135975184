package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	"github.com/ar3/our-gruuv-sub016/modules/people/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/repo"
)

const teammateColumns = "id, tenant_id, display_name, email, status, created_at, updated_at"

type TeammateRepository struct{}

func NewTeammateRepository() teammate.Repository {
	return &TeammateRepository{}
}

func (r *TeammateRepository) GetPaginated(ctx context.Context, params *teammate.FindParams) ([]teammate.Teammate, int64, error) {
	if params == nil {
		params = &teammate.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	if q := strings.TrimSpace(params.Q); q != "" {
		where = append(where, fmt.Sprintf("(display_name ILIKE $%d OR email ILIKE $%d)", 2, 2))
		args = append(args, "%"+q+"%")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + teammateColumns + `
		FROM teammates
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY display_name, id
	` + repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []teammate.Teammate
	for rows.Next() {
		row, err := scanTeammate(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, toDomainTeammate(row))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM teammates WHERE `+strings.Join(where, " AND "), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *TeammateRepository) GetByID(ctx context.Context, id uuid.UUID) (teammate.Teammate, error) {
	return r.getOne(ctx, "id = $2", id)
}

func (r *TeammateRepository) GetByEmail(ctx context.Context, email string) (teammate.Teammate, error) {
	return r.getOne(ctx, "email = $2", strings.ToLower(strings.TrimSpace(email)))
}

func (r *TeammateRepository) getOne(ctx context.Context, cond string, arg interface{}) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}

	row, err := scanTeammate(tx.QueryRow(ctx, `
		SELECT `+teammateColumns+`
		FROM teammates
		WHERE tenant_id = $1 AND `+cond,
		tenantID, arg,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return teammate.Teammate{}, teammate.ErrNotFound
		}
		return teammate.Teammate{}, err
	}
	return toDomainTeammate(row), nil
}

func (r *TeammateRepository) Create(ctx context.Context, t teammate.Teammate) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	if t.TenantID() != uuid.Nil && t.TenantID() != tenantID {
		return teammate.Teammate{}, teammate.ErrNotFound
	}

	now := time.Now()
	row, err := scanTeammate(tx.QueryRow(ctx, `
		INSERT INTO teammates (id, tenant_id, display_name, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+teammateColumns,
		uuid.New(), tenantID, t.DisplayName(), t.Email(), string(t.Status()), now,
	))
	if err != nil {
		return teammate.Teammate{}, err
	}
	return toDomainTeammate(row), nil
}

func (r *TeammateRepository) Update(ctx context.Context, t teammate.Teammate) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}

	row, err := scanTeammate(tx.QueryRow(ctx, `
		UPDATE teammates
		SET display_name = $3, email = $4, status = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+teammateColumns,
		tenantID, t.ID(), t.DisplayName(), t.Email(), string(t.Status()), time.Now(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return teammate.Teammate{}, teammate.ErrNotFound
		}
		return teammate.Teammate{}, err
	}
	return toDomainTeammate(row), nil
}

func scanTeammate(row pgx.Row) (*models.Teammate, error) {
	var m models.Teammate
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.DisplayName,
		&m.Email,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
