package repository

import (
	"context"
	"time"

	"xiaonuan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "type", "amount", "currency", "description", "category",
	"transaction_date", "transaction_time", "created_at", "updated_at", "is_deleted",
}

// TransactionFilter narrows List results. Nil/zero fields are ignored.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      models.TransactionType
	Category  string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Search    string
	Limit     int
	Offset    int
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) (int64, error) {
	query := squirrel.Insert("transactions").
		Columns("user_id", "type", "amount", "currency", "description", "category",
			"transaction_date", "transaction_time", "created_at", "updated_at", "is_deleted").
		Values(tx.UserID, tx.Type, tx.Amount, tx.Currency, tx.Description, tx.Category,
			tx.TransactionDate, tx.TransactionTime, tx.CreatedAt, tx.UpdatedAt, tx.IsDeleted).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateBatch inserts all transactions inside one database transaction and
// returns their new ids in input order. Any failure rolls back every insert
// from this call.
func (r *TransactionRepository) CreateBatch(ctx context.Context, txs []*models.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx)

	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		query := squirrel.Insert("transactions").
			Columns("user_id", "type", "amount", "currency", "description", "category",
				"transaction_date", "transaction_time", "created_at", "updated_at", "is_deleted").
			Values(tx.UserID, tx.Type, tx.Amount, tx.Currency, tx.Description, tx.Category,
				tx.TransactionDate, tx.TransactionTime, tx.CreatedAt, tx.UpdatedAt, tx.IsDeleted).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return nil, err
		}

		var id int64
		if err := dbTx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"id": id, "user_id": userID, "is_deleted": false}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

// List returns a page of the user's transactions plus the total match count
// before pagination, newest first.
func (r *TransactionRepository) List(ctx context.Context, userID int64, f TransactionFilter) ([]*models.Transaction, int, error) {
	where := r.filterConditions(userID, f)

	countQuery := squirrel.Select("COUNT(*)").
		From("transactions").
		Where(where).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(where).
		OrderBy("transaction_date DESC", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		query = query.Offset(uint64(f.Offset))
	}

	sql, args, err = query.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, total, rows.Err()
}

func (r *TransactionRepository) filterConditions(userID int64, f TransactionFilter) squirrel.And {
	where := squirrel.And{
		squirrel.Eq{"user_id": userID, "is_deleted": false},
	}
	if f.StartDate != nil {
		where = append(where, squirrel.GtOrEq{"transaction_date": *f.StartDate})
	}
	if f.EndDate != nil {
		// transaction_date carries a time component, so the whole end day is
		// included by comparing against the following midnight.
		where = append(where, squirrel.Lt{"transaction_date": f.EndDate.AddDate(0, 0, 1)})
	}
	if f.Type != "" {
		where = append(where, squirrel.Eq{"type": f.Type})
	}
	if f.Category != "" {
		where = append(where, squirrel.Eq{"category": f.Category})
	}
	if f.MinAmount != nil {
		where = append(where, squirrel.GtOrEq{"amount": *f.MinAmount})
	}
	if f.MaxAmount != nil {
		where = append(where, squirrel.LtOrEq{"amount": *f.MaxAmount})
	}
	if f.Search != "" {
		where = append(where, squirrel.ILike{"description": "%" + f.Search + "%"})
	}
	return where
}

func (r *TransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Update("transactions").
		Set("type", tx.Type).
		Set("amount", tx.Amount).
		Set("currency", tx.Currency).
		Set("description", tx.Description).
		Set("category", tx.Category).
		Set("transaction_date", tx.TransactionDate).
		Set("transaction_time", tx.TransactionTime).
		Set("updated_at", tx.UpdatedAt).
		Where(squirrel.Eq{"id": tx.ID, "user_id": tx.UserID, "is_deleted": false}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TransactionRepository) SoftDelete(ctx context.Context, userID, id int64) error {
	query := squirrel.Update("transactions").
		Set("is_deleted", true).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id, "user_id": userID, "is_deleted": false}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TransactionRepository) scanOne(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Currency, &tx.Description, &tx.Category,
		&tx.TransactionDate, &tx.TransactionTime, &tx.CreatedAt, &tx.UpdatedAt, &tx.IsDeleted,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}
