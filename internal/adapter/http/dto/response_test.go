package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
)

func TestCardFromDomain(t *testing.T) {
	now := time.Now()
	card := &domain.Card{
		ID:         5,
		Owner:      "user-1",
		Name:       "Main",
		CardNumber: "4111111111111111",
		Currency:   "USD",
		Balance:    decimal.RequireFromString("123.45"),
		Version:    2,
		CreatedAt:  now,
	}

	resp := CardFromDomain(card)
	if resp.ID != 5 || resp.User != "user-1" || !resp.Balance.Equal(card.Balance) || resp.Version != 2 {
		t.Fatalf("unexpected card response: %+v", resp)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(raw), `"balance":"123.45"`) || !strings.Contains(string(raw), `"card_number":"4111111111111111"`) {
		t.Fatalf("unexpected JSON %s", raw)
	}
}

func TestSearchFromDomain(t *testing.T) {
	res := domain.QueryResult{
		Items: []*domain.Transaction{
			{ID: 1, CardID: 2, Title: "Coffee", Amount: decimal.NewFromInt(-3), Type: domain.TransactionTypePurchase},
		},
		Count: 7,
	}

	raw, err := json.Marshal(SearchFromDomain(res))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Data []map[string]any `json:"data"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Count != 7 || len(decoded.Data) != 1 || decoded.Data[0]["card"] != float64(2) {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestSearchFromDomainEmptyIsArray(t *testing.T) {
	raw, _ := json.Marshal(SearchFromDomain(domain.QueryResult{}))
	if string(raw) != `{"data":[],"count":0}` {
		t.Fatalf("empty search must encode an empty array, got %s", raw)
	}
}

func TestBalanceEntriesFromDomain(t *testing.T) {
	txID := int64(4)
	entries := BalanceEntriesFromDomain([]*domain.BalanceEntry{
		{ID: "01A", CardID: 1, TransactionID: &txID, Kind: domain.BalanceEntryCreate, Delta: decimal.NewFromInt(5), CardVersion: 2},
		{ID: "01B", CardID: 1, Kind: domain.BalanceEntryReconcile, CardVersion: 3},
	})

	if *entries[0].Transaction != 4 || entries[0].Kind != "create" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}

	raw, _ := json.Marshal(entries[1])
	if strings.Contains(string(raw), `"transaction"`) {
		t.Fatalf("reconcile entries carry no transaction: %s", raw)
	}
}
