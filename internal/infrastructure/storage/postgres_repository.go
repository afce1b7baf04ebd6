package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

const (
	contentTable = "content_items"
	// uniqueViolation is the Postgres SQLSTATE for unique_violation.
	uniqueViolation = "23505"
)

var contentColumns = []string{
	"id", "title", "link", "summary", "tags", "reading_time", "difficulty", "source", "created_at",
}

// PostgresRepository persists content items into Postgres.
type PostgresRepository struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

var _ ports.ContentRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindByLink returns the stored item for link, if any.
func (r *PostgresRepository) FindByLink(ctx context.Context, link string) (domain.ContentItem, bool, error) {
	query, args, err := r.psql.
		Select(contentColumns...).
		From(contentTable).
		Where(sq.Eq{"link": link}).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.ContentItem{}, false, fmt.Errorf("build find query: %w", err)
	}

	item, err := scanContent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentItem{}, false, nil
	}
	if err != nil {
		return domain.ContentItem{}, false, fmt.Errorf("find by link: %w", err)
	}

	return item, true, nil
}

// Insert stores a new item. A conflicting link yields domain.ErrDuplicateLink.
func (r *PostgresRepository) Insert(ctx context.Context, item domain.ContentItem) error {
	query, args, err := r.psql.
		Insert(contentTable).
		Columns("title", "link", "summary", "tags", "reading_time", "difficulty", "source", "created_at").
		Values(
			item.Title,
			item.Link,
			item.Summary,
			pq.Array(item.Tags),
			item.ReadingTime,
			string(item.Difficulty),
			item.Source,
			item.CreatedAt,
		).
		Suffix("ON CONFLICT (link) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateLink
		}
		return fmt.Errorf("insert content: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert content rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrDuplicateLink
	}

	return nil
}

// Query returns a page of items sorted by creation date, newest first.
func (r *PostgresRepository) Query(ctx context.Context, q domain.ContentQuery) (domain.ContentPage, error) {
	q = normalizeQuery(q)
	page := domain.ContentPage{Page: q.Page, Limit: q.Limit}

	countBuilder := r.psql.Select("COUNT(*)").From(contentTable)
	listBuilder := r.psql.Select(contentColumns...).From(contentTable)
	if len(q.Tags) > 0 {
		overlap := sq.Expr("tags && ?", pq.Array(q.Tags))
		countBuilder = countBuilder.Where(overlap)
		listBuilder = listBuilder.Where(overlap)
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return page, fmt.Errorf("build count query: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count content: %w", err)
	}

	listSQL, listArgs, err := listBuilder.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64((q.Page - 1) * q.Limit)).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return page, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	page.Items = make([]domain.ContentItem, 0, q.Limit)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return page, fmt.Errorf("scan content: %w", err)
		}
		page.Items = append(page.Items, item)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("rows iteration: %w", err)
	}

	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (domain.ContentItem, error) {
	var (
		item       domain.ContentItem
		difficulty string
		tags       pq.StringArray
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Link,
		&item.Summary,
		&tags,
		&item.ReadingTime,
		&difficulty,
		&item.Source,
		&item.CreatedAt,
	)
	if err != nil {
		return domain.ContentItem{}, err
	}
	item.Tags = []string(tags)
	item.Difficulty = domain.Difficulty(difficulty)
	return item, nil
}
