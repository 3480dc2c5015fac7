package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertValueQuery = `
    INSERT INTO attribute_values (id, attribute_id, value, "order")
    VALUES (:id, :attribute_id, :value, :order)
`

func (r *PGRepository) Create(ctx context.Context, a *model.Attribute) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	query := `
        INSERT INTO attributes (id, name, slug, type, unit, is_filterable, min_value, max_value, created_at, updated_at)
        VALUES (:id, :name, :slug, :type, :unit, :is_filterable, :min_value, :max_value, :created_at, :updated_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
		return errors.Wrap(err, "insert attribute")
	}

	for i := range a.AttributeValues {
		if _, err := tx.NamedExecContext(ctx, insertValueQuery, &a.AttributeValues[i]); err != nil {
			return errors.Wrap(err, "insert attribute value")
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Attribute, error) {
	var a model.Attribute
	err := r.DB.GetContext(ctx, &a, `SELECT * FROM attributes WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find attribute")
	}

	attrs := []model.Attribute{a}
	if err := r.loadValues(ctx, attrs); err != nil {
		return nil, err
	}
	return &attrs[0], nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Attribute, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var attrs []model.Attribute
	err := r.DB.SelectContext(ctx, &attrs, `SELECT * FROM attributes WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "find attributes")
	}
	if err := r.loadValues(ctx, attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.AttributeFilters) ([]model.Attribute, int, error) {
	var attrs []model.Attribute
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}
	if f.IsFilterable != nil {
		conditions = append(conditions, "is_filterable = :is_filterable")
		args["is_filterable"] = *f.IsFilterable
	}
	if f.Search != "" {
		conditions = append(conditions, "(name ILIKE :search OR slug ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM attributes"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "count attributes")
	}

	query := "SELECT * FROM attributes" + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &attrs, args); err != nil {
		return nil, 0, errors.Wrap(err, "list attributes")
	}
	if err := r.loadValues(ctx, attrs); err != nil {
		return nil, 0, err
	}

	return attrs, count, nil
}

func (r *PGRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM attributes WHERE slug = $1`
	args := []interface{}{slug}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, errors.Wrap(err, "check slug")
	}
	return count > 0, nil
}

func (r *PGRepository) Update(ctx context.Context, a *model.Attribute, replaceValues bool) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	query := `
        UPDATE attributes
        SET name = :name,
            type = :type,
            unit = :unit,
            is_filterable = :is_filterable,
            min_value = :min_value,
            max_value = :max_value,
            updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
		return errors.Wrap(err, "update attribute")
	}

	if replaceValues {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attribute_values WHERE attribute_id = $1`, a.ID); err != nil {
			return errors.Wrap(err, "clear attribute values")
		}
		for i := range a.AttributeValues {
			if _, err := tx.NamedExecContext(ctx, insertValueQuery, &a.AttributeValues[i]); err != nil {
				return errors.Wrap(err, "insert attribute value")
			}
		}
	}

	return tx.Commit()
}

func (r *PGRepository) AddValue(ctx context.Context, v *model.AttributeValue) error {
	_, err := r.DB.NamedExecContext(ctx, insertValueQuery, v)
	return errors.Wrap(err, "insert attribute value")
}

func (r *PGRepository) RemoveValue(ctx context.Context, attributeID, valueID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM attribute_values WHERE id = $1 AND attribute_id = $2`, valueID, attributeID)
	return errors.Wrap(err, "delete attribute value")
}

func (r *PGRepository) CategoryIDs(ctx context.Context, attributeID string) ([]string, error) {
	var ids []string
	err := r.DB.SelectContext(ctx, &ids,
		`SELECT category_id FROM category_attributes WHERE attribute_id = $1 ORDER BY category_id`, attributeID)
	if err != nil {
		return nil, errors.Wrap(err, "list attribute categories")
	}
	return ids, nil
}

func (r *PGRepository) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var categoryIDs []string
	err = tx.SelectContext(ctx, &categoryIDs,
		`DELETE FROM category_attributes WHERE attribute_id = $1 RETURNING category_id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "delete category bindings")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attributes WHERE id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "delete attribute")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return categoryIDs, nil
}

// loadValues fills AttributeValues for attrs with one query, ordered by rank.
func (r *PGRepository) loadValues(ctx context.Context, attrs []model.Attribute) error {
	if len(attrs) == 0 {
		return nil
	}
	ids := make([]string, len(attrs))
	index := make(map[string]int, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
		index[a.ID] = i
		attrs[i].AttributeValues = []model.AttributeValue{}
	}

	var values []model.AttributeValue
	err := r.DB.SelectContext(ctx, &values,
		`SELECT id, attribute_id, value, "order" FROM attribute_values WHERE attribute_id = ANY($1) ORDER BY "order" ASC, id ASC`,
		pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "load attribute values")
	}

	for _, v := range values {
		if i, ok := index[v.AttributeID]; ok {
			attrs[i].AttributeValues = append(attrs[i].AttributeValues, v)
		}
	}
	return nil
}
