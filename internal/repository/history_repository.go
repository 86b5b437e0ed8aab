package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/stockhist/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository wires a repository backed by pgxpool.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Save(ctx context.Context, record domain.HistoryRecord) (domain.HistoryRecord, error) {
	if r.pool == nil {
		return domain.HistoryRecord{}, fmt.Errorf("history repository not initialized")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID any
	if record.OrderID != nil {
		orderID = *record.OrderID
	}
	var orderNumber any
	if record.OrderNumber != nil {
		orderNumber = *record.OrderNumber
	}

	saved := record
	err = tx.QueryRow(
		ctx,
		`INSERT INTO receiving_history (member_id, order_id, order_number, message, status, type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		record.MemberID,
		orderID,
		orderNumber,
		record.Message,
		record.Status,
		string(record.Type),
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("failed to insert history record: %w", err)
	}

	saved.Items = make([]domain.HistoryLineItem, 0, len(record.Items))
	for _, item := range record.Items {
		inserted := item
		inserted.HistoryID = saved.ID
		err = tx.QueryRow(
			ctx,
			`INSERT INTO receiving_history_item (history_id, part_id, quantity)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			saved.ID,
			item.PartID,
			item.Quantity,
		).Scan(&inserted.ID)
		if err != nil {
			return domain.HistoryRecord{}, fmt.Errorf("failed to insert history item: %w", err)
		}
		saved.Items = append(saved.Items, inserted)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("failed to commit history record: %w", err)
	}

	return saved, nil
}

func (r *historyRepository) FindByMember(ctx context.Context, memberID int64, page, size int) (domain.HistoryPage, error) {
	return r.findPage(
		ctx,
		"WHERE member_id = $1",
		[]any{memberID},
		page,
		size,
	)
}

func (r *historyRepository) FindAll(ctx context.Context, page, size int) (domain.HistoryPage, error) {
	return r.findPage(ctx, "", nil, page, size)
}

func (r *historyRepository) FindByOrderNumber(ctx context.Context, orderNumber string, page, size int) (domain.HistoryPage, error) {
	return r.findPage(
		ctx,
		"WHERE order_number = $1",
		[]any{orderNumber},
		page,
		size,
	)
}

// findPage runs the shared count + page + items queries. Records are ordered
// by creation time descending with id as the tie breaker so identical
// timestamps still page deterministically.
func (r *historyRepository) findPage(ctx context.Context, where string, args []any, page, size int) (domain.HistoryPage, error) {
	if r.pool == nil {
		return domain.HistoryPage{}, fmt.Errorf("history repository not initialized")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM receiving_history " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.HistoryPage{}, fmt.Errorf("failed to count history records: %w", err)
	}

	limitArg := len(args) + 1
	offsetArg := len(args) + 2
	pageQuery := fmt.Sprintf(
		`SELECT id, member_id, order_id, order_number, message, status, type, created_at, updated_at
		 FROM receiving_history %s
		 ORDER BY created_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`,
		where, limitArg, offsetArg,
	)

	rows, err := r.pool.Query(ctx, pageQuery, append(append([]any{}, args...), size, page*size)...)
	if err != nil {
		return domain.HistoryPage{}, fmt.Errorf("failed to query history records: %w", err)
	}
	defer rows.Close()

	records := []domain.HistoryRecord{}
	for rows.Next() {
		var (
			record      domain.HistoryRecord
			orderID     pgtype.Int8
			orderNumber pgtype.Text
			movement    string
			createdAt   pgtype.Timestamptz
			updatedAt   pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.MemberID,
			&orderID,
			&orderNumber,
			&record.Message,
			&record.Status,
			&movement,
			&createdAt,
			&updatedAt,
		); scanErr != nil {
			return domain.HistoryPage{}, fmt.Errorf("failed to scan history record: %w", scanErr)
		}

		if orderID.Valid {
			value := orderID.Int64
			record.OrderID = &value
		}
		if orderNumber.Valid {
			value := orderNumber.String
			record.OrderNumber = &value
		}
		record.Type = domain.MovementType(movement)
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			record.UpdatedAt = updatedAt.Time
		}

		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return domain.HistoryPage{}, fmt.Errorf("failed to iterate history records: %w", rowsErr)
	}

	if err := r.loadItems(ctx, records); err != nil {
		return domain.HistoryPage{}, err
	}

	totalPages, last := pageMeta(total, page, size)

	return domain.HistoryPage{
		Records:       records,
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		PageSize:      size,
		Last:          last,
	}, nil
}

// pageMeta computes total page count and whether the given page is the last
// one. An empty result set has zero pages and the first page counts as last.
func pageMeta(total int64, page, size int) (int, bool) {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return totalPages, page+1 >= totalPages
}

// loadItems attaches line items to every record in the page with a single
// query, preserving insertion order within each record.
func (r *historyRepository) loadItems(ctx context.Context, records []domain.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]int64, len(records))
	index := make(map[int64]int, len(records))
	for i := range records {
		ids[i] = records[i].ID
		index[records[i].ID] = i
		records[i].Items = []domain.HistoryLineItem{}
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, history_id, part_id, quantity
		 FROM receiving_history_item
		 WHERE history_id = ANY($1)
		 ORDER BY id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to query history items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.HistoryLineItem
		if scanErr := rows.Scan(&item.ID, &item.HistoryID, &item.PartID, &item.Quantity); scanErr != nil {
			return fmt.Errorf("failed to scan history item: %w", scanErr)
		}
		if i, ok := index[item.HistoryID]; ok {
			records[i].Items = append(records[i].Items, item)
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate history items: %w", rowsErr)
	}

	return nil
}
