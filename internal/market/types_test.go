package market

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNumber_UnmarshalAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want Number
	}{
		{`12`, 12},
		{`12.5`, 12.5},
		{`"12"`, 12},
		{`" 7.25 "`, 7.25},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var n Number
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tt.in, err)
		}
		if n != tt.want {
			t.Fatalf("Unmarshal(%s) = %v, want %v", tt.in, n, tt.want)
		}
	}

	var n Number
	if err := json.Unmarshal([]byte(`"ten"`), &n); err == nil {
		t.Fatalf("Unmarshal accepted non-numeric string")
	}
	if err := json.Unmarshal([]byte(`true`), &n); err == nil {
		t.Fatalf("Unmarshal accepted bool")
	}
}

func TestNumber_MarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(struct {
		P Number `json:"p"`
	}{P: 3.5})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != `{"p":3.5}` {
		t.Fatalf("Marshal = %s", out)
	}
}

func TestItem_CheckQuantity(t *testing.T) {
	it := Item{Quantity: 5}
	for _, ok := range []int{1, 3, 5} {
		if err := it.CheckQuantity(ok); err != nil {
			t.Fatalf("CheckQuantity(%d) returned error: %v", ok, err)
		}
	}
	for _, bad := range []int{-1, 0, 6} {
		err := it.CheckQuantity(bad)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("CheckQuantity(%d) = %v, want ErrInvalidQuantity", bad, err)
		}
	}
}

func TestOwned(t *testing.T) {
	items := []Item{
		{ID: "1", OwnerEmail: "a@example.com"},
		{ID: "2", OwnerEmail: "b@example.com"},
		{ID: "3", OwnerEmail: "a@example.com"},
	}
	got := Owned(items, " a@example.com ")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("Owned = %#v, want items 1 and 3", got)
	}
	if Owned(items, "") != nil {
		t.Fatalf("Owned with empty email should return nil")
	}
}

func TestItemUpdate_RoundTrip(t *testing.T) {
	it := Item{ID: "9", Title: "Old", Price: 1, Quantity: 2, OwnerEmail: "o@example.com", Date: "March 3, 2025"}
	u := UpdateFor(it)
	u.Title = "New"
	u.Price = 4
	got := u.Apply(it)
	if got.Title != "New" || got.Price != 4 || got.ID != "9" || got.OwnerEmail != "o@example.com" || got.Date != it.Date {
		t.Fatalf("Apply = %#v", got)
	}
}

func TestCartTotalAndEntry(t *testing.T) {
	e := NewCartEntry(Item{ID: "x", Price: 2.5, OwnerEmail: "o"}, "b", 4)
	if e.TotalPrice != 10 || e.Quantity != 4 || e.OwnerEmail != "o" || e.ItemID != "x" {
		t.Fatalf("NewCartEntry = %#v", e)
	}
	if got := CartTotal([]CartEntry{e, {TotalPrice: 5}}); got != 15 {
		t.Fatalf("CartTotal = %v, want 15", got)
	}
}

func TestItem_ParsedDate(t *testing.T) {
	got := Item{Date: "October 15, 2026"}.ParsedDate()
	if got.Year() != 2026 || got.Month() != time.October || got.Day() != 15 {
		t.Fatalf("ParsedDate = %v", got)
	}
	if !(Item{Date: "yesterday"}).ParsedDate().IsZero() {
		t.Fatalf("ParsedDate should be zero for unknown layout")
	}
}
