package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/postgres/generated"
	"github.com/iho/paisbank/internal/usecase"
)

const transactionColumns = `id, card_id, "user", title, amount, currency, type, date, version, created_at, updated_at`

// sortColumns whitelists ORDER BY expressions. Title sorts bytewise to
// match the in-memory engine.
var sortColumns = map[string]string{
	domain.SortByID:        "id",
	domain.SortByDate:      "date",
	domain.SortByAmount:    "amount",
	domain.SortByTitle:     `title COLLATE "C"`,
	domain.SortByType:      `type COLLATE "C"`,
	domain.SortByCard:      "card_id",
	domain.SortByCreatedAt: "created_at",
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db, queries: generated.New(db)}
}

// Create inserts t and sets its store-assigned ID.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	row, err := generated.New(ptx).CreateTransaction(ctx, generated.CreateTransactionParams{
		CardID:    t.CardID,
		User:      t.Owner,
		Title:     t.Title,
		Amount:    decimalToNumeric(t.Amount),
		Currency:  t.Currency,
		Type:      string(t.Type),
		Date:      timeToPgTimestamptz(t.Date),
		Version:   t.Version,
		CreatedAt: timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(t.UpdatedAt),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCardNotFound
		}
		return mapError(err)
	}

	t.ID = row.ID

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transaction, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := generated.New(ptx).GetTransactionByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}

	return rowToTransaction(row), nil
}

// Update writes t if the stored row is still at t.Version and bumps
// t.Version. The card, owner and creation time are never rewritten.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(ptx).UpdateTransaction(ctx, generated.UpdateTransactionParams{
		ID:        t.ID,
		Version:   t.Version,
		Title:     t.Title,
		Amount:    decimalToNumeric(t.Amount),
		Currency:  t.Currency,
		Type:      string(t.Type),
		Date:      timeToPgTimestamptz(t.Date),
		UpdatedAt: timeToPgTimestamptz(t.UpdatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrStaleVersion
	}

	t.Version++

	return nil
}

// Delete removes the transaction if it is still at expectedVersion.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id, expectedVersion int64) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(ptx).DeleteTransaction(ctx, generated.DeleteTransactionParams{
		ID:      id,
		Version: expectedVersion,
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrStaleVersion
	}

	return nil
}

// ListByOwner returns the owner's transactions, newest date first.
func (r *TransactionRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, owner)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToTransaction(row))
	}

	return items, nil
}

// SumByCard returns the sum of the card's transaction amounts.
func (r *TransactionRepository) SumByCard(ctx context.Context, cardID int64) (decimal.Decimal, error) {
	sum, err := r.queries.SumTransactionsByCard(ctx, cardID)
	if err != nil {
		return decimal.Zero, mapError(err)
	}

	return numericToDecimal(sum), nil
}

// Search runs q in the database: filters become WHERE clauses, the sort
// key a whitelisted ORDER BY with id as tie-breaker.
func (r *TransactionRepository) Search(ctx context.Context, q domain.TransactionQuery) (domain.QueryResult, error) {
	q = q.Normalize()
	if q.Scope.Owner == "" {
		return domain.QueryResult{Items: []*domain.Transaction{}}, nil
	}

	where, args := searchWhere(q)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&count); err != nil {
		return domain.QueryResult{}, mapError(err)
	}

	sql, args := searchSelect(q, where, args)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return domain.QueryResult{}, mapError(err)
	}
	defer rows.Close()

	items := make([]*domain.Transaction, 0)
	for rows.Next() {
		var i generated.Transaction
		if err := rows.Scan(
			&i.ID,
			&i.CardID,
			&i.User,
			&i.Title,
			&i.Amount,
			&i.Currency,
			&i.Type,
			&i.Date,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return domain.QueryResult{}, mapError(err)
		}
		items = append(items, rowToTransaction(i))
	}
	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, mapError(err)
	}

	return domain.QueryResult{Items: items, Count: count}, nil
}

func searchWhere(q domain.TransactionQuery) (string, []any) {
	args := []any{q.Scope.Owner}
	clauses := []string{`"user" = $1`}

	add := func(format string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if q.Scope.CardID != nil {
		add("card_id = $%d", *q.Scope.CardID)
	}
	if len(q.Filter.CardIDs) > 0 {
		add("card_id = ANY($%d)", q.Filter.CardIDs)
	}
	if len(q.Filter.Types) > 0 {
		types := make([]string, 0, len(q.Filter.Types))
		for _, t := range q.Filter.Types {
			types = append(types, string(t))
		}
		add("type = ANY($%d)", types)
	}
	if len(q.Filter.Amounts) > 0 {
		amounts := make([]string, 0, len(q.Filter.Amounts))
		for _, a := range q.Filter.Amounts {
			amounts = append(amounts, a.String())
		}
		add("amount = ANY($%d::numeric[])", amounts)
	}
	if q.SearchText != "" {
		add(`title ILIKE $%d ESCAPE '\'`, "%"+escapeLike(q.SearchText)+"%")
	}

	return strings.Join(clauses, " AND "), args
}

func searchSelect(q domain.TransactionQuery, where string, args []any) (string, []any) {
	column, ok := sortColumns[q.SortKey]
	if !ok {
		column = sortColumns[domain.DefaultSortKey]
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(transactionColumns)
	b.WriteString(" FROM transactions WHERE ")
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	b.WriteString(column)
	b.WriteString(", id")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:        row.ID,
		CardID:    row.CardID,
		Owner:     row.User,
		Title:     row.Title,
		Amount:    numericToDecimal(row.Amount),
		Currency:  row.Currency,
		Type:      domain.TransactionType(row.Type),
		Date:      row.Date.Time,
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
