package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Sort keys accepted by the query engine.
const (
	SortByID        = "id"
	SortByDate      = "date"
	SortByAmount    = "amount"
	SortByTitle     = "title"
	SortByType      = "type"
	SortByCard      = "card"
	SortByCreatedAt = "created_at"

	DefaultSortKey = SortByDate
)

var sortKeys = map[string]bool{
	SortByID:        true,
	SortByDate:      true,
	SortByAmount:    true,
	SortByTitle:     true,
	SortByType:      true,
	SortByCard:      true,
	SortByCreatedAt: true,
}

// Filter keys recognized by ParseTransactionFilter.
const (
	FilterCard   = "card"
	FilterCardID = "cardId"
	FilterType   = "type"
	FilterAmount = "amount"
)

// NormalizeSortKey returns key if it is sortable and DefaultSortKey
// otherwise. Unknown keys are tolerated, not rejected.
func NormalizeSortKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "createdat" {
		key = SortByCreatedAt
	}
	if sortKeys[key] {
		return key
	}
	return DefaultSortKey
}

// QueryScope restricts a query to one principal and optionally one card. It
// is applied before any filter and cannot be widened by one.
type QueryScope struct {
	Owner  string
	CardID *int64
}

// TransactionFilter holds typed "any of" predicates. An empty slice means
// the field is unconstrained.
type TransactionFilter struct {
	CardIDs []int64
	Types   []TransactionType
	Amounts []decimal.Decimal
}

// ParseTransactionFilter builds a filter from query parameters. A key may be
// repeated or hold a comma-separated list. Unknown keys are ignored.
func ParseTransactionFilter(params map[string][]string) (TransactionFilter, error) {
	var f TransactionFilter

	for key, raw := range params {
		values := splitValues(raw)
		if len(values) == 0 {
			continue
		}

		switch key {
		case FilterCard, FilterCardID:
			for _, v := range values {
				id, err := ParseID(v)
				if err != nil {
					return TransactionFilter{}, err
				}
				f.CardIDs = append(f.CardIDs, id)
			}
		case FilterType:
			for _, v := range values {
				t, err := ParseTransactionType(v)
				if err != nil {
					return TransactionFilter{}, err
				}
				f.Types = append(f.Types, t)
			}
		case FilterAmount:
			for _, v := range values {
				amount, err := decimal.NewFromString(v)
				if err != nil {
					return TransactionFilter{}, fmt.Errorf("%w: %q", ErrInvalidAmount, v)
				}
				f.Amounts = append(f.Amounts, amount)
			}
		}
	}

	slices.Sort(f.CardIDs)
	f.CardIDs = slices.Compact(f.CardIDs)

	return f, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// TransactionQuery is a search over a principal's transactions.
type TransactionQuery struct {
	Scope      QueryScope
	Filter     TransactionFilter
	SearchText string
	SortKey    string
	Limit      int
	Offset     int
}

// QueryResult is an ordered page of matches with the total match count.
type QueryResult struct {
	Items []*Transaction
	Count int
}

// Normalize trims the search text, resolves the sort key and clamps the
// page window. A zero Limit means "everything".
func (q TransactionQuery) Normalize() TransactionQuery {
	q.SearchText = strings.TrimSpace(q.SearchText)
	q.SortKey = NormalizeSortKey(q.SortKey)
	if q.Limit > 0 {
		q.Limit, q.Offset = ValidatePagination(q.Limit, q.Offset)
	} else {
		q.Limit = 0
		if q.Offset < 0 {
			q.Offset = 0
		}
	}
	return q
}

// Matches reports whether t satisfies the scope, filter and search text.
func (q TransactionQuery) Matches(t *Transaction) bool {
	if t == nil || q.Scope.Owner == "" || t.Owner != q.Scope.Owner {
		return false
	}

	if q.Scope.CardID != nil && t.CardID != *q.Scope.CardID {
		return false
	}

	if len(q.Filter.CardIDs) > 0 && !slices.Contains(q.Filter.CardIDs, t.CardID) {
		return false
	}

	if len(q.Filter.Types) > 0 && !slices.Contains(q.Filter.Types, t.Type) {
		return false
	}

	if len(q.Filter.Amounts) > 0 && !slices.ContainsFunc(q.Filter.Amounts, t.Amount.Equal) {
		return false
	}

	search := strings.TrimSpace(q.SearchText)
	if search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(search)) {
		return false
	}

	return true
}

// Apply filters, sorts and pages items. The input slice is not modified.
func (q TransactionQuery) Apply(items []*Transaction) QueryResult {
	q = q.Normalize()

	matched := make([]*Transaction, 0, len(items))
	for _, t := range items {
		if q.Matches(t) {
			matched = append(matched, t)
		}
	}

	compare := transactionComparator(q.SortKey)
	slices.SortFunc(matched, func(a, b *Transaction) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	count := len(matched)

	if q.Offset >= len(matched) {
		matched = matched[:0]
	} else {
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return QueryResult{Items: matched, Count: count}
}

func transactionComparator(key string) func(a, b *Transaction) int {
	switch key {
	case SortByID:
		return func(a, b *Transaction) int { return 0 }
	case SortByAmount:
		return func(a, b *Transaction) int { return a.Amount.Cmp(b.Amount) }
	case SortByTitle:
		return func(a, b *Transaction) int { return strings.Compare(a.Title, b.Title) }
	case SortByType:
		return func(a, b *Transaction) int { return strings.Compare(string(a.Type), string(b.Type)) }
	case SortByCard:
		return func(a, b *Transaction) int { return cmp.Compare(a.CardID, b.CardID) }
	case SortByCreatedAt:
		return func(a, b *Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return func(a, b *Transaction) int { return a.Date.Compare(b.Date) }
	}
}
