package market

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// DateLayout is how listing dates are stamped when an item is created.
const DateLayout = "January 2, 2006"

// Number is a JSON number that also accepts numeric strings. Older listings
// were posted straight from form fields, so price and quantity arrive either
// way.
type Number float64

// UnmarshalJSON accepts 12, 12.5, "12", "12.5", "" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Int truncates the number for counts such as stock quantity.
func (n Number) Int() int {
	return int(n)
}

// Item mirrors an entry of /items.
type Item struct {
	ID         string `json:"_id,omitempty"`
	Title      string `json:"title"`
	Short      string `json:"short"`
	Full       string `json:"full"`
	Price      Number `json:"price"`
	Quantity   Number `json:"quantity"`
	Date       string `json:"date,omitempty"`
	Location   string `json:"location"`
	Image      string `json:"image"`
	OwnerEmail string `json:"ownerEmail"`
}

// ItemTitle returns the text searched by the browse view.
func ItemTitle(it Item) string {
	return it.Title
}

// OwnedBy reports whether email posted the item.
func (it Item) OwnedBy(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && it.OwnerEmail == email
}

// CheckQuantity validates an order quantity against the listed stock.
func (it Item) CheckQuantity(qty int) error {
	stock := it.Quantity.Int()
	if qty <= 0 || qty > stock {
		return fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, stock)
	}
	return nil
}

// ParsedDate returns the listing date when it uses DateLayout.
func (it Item) ParsedDate() time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(it.Date))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Owned returns the items posted by email, keeping their order.
func Owned(items []Item, email string) []Item {
	var out []Item
	for _, it := range items {
		if it.OwnedBy(email) {
			out = append(out, it)
		}
	}
	return out
}

// ItemUpdate is the PATCH payload for an owner's edit.
type ItemUpdate struct {
	Title    string `json:"title"`
	Short    string `json:"short"`
	Full     string `json:"full"`
	Price    Number `json:"price"`
	Quantity Number `json:"quantity"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

// UpdateFor returns the editable fields of it.
func UpdateFor(it Item) ItemUpdate {
	return ItemUpdate{
		Title:    it.Title,
		Short:    it.Short,
		Full:     it.Full,
		Price:    it.Price,
		Quantity: it.Quantity,
		Location: it.Location,
		Image:    it.Image,
	}
}

// Apply copies the edited fields onto it.
func (u ItemUpdate) Apply(it Item) Item {
	it.Title = u.Title
	it.Short = u.Short
	it.Full = u.Full
	it.Price = u.Price
	it.Quantity = u.Quantity
	it.Location = u.Location
	it.Image = u.Image
	return it
}

// CartEntry mirrors an entry posted to /cart/.
type CartEntry struct {
	ID         string `json:"_id,omitempty"`
	BuyerEmail string `json:"buyerEmail"`
	OwnerEmail string `json:"ownerEmail"`
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	Quantity   Number `json:"quantity"`
	Price      Number `json:"price"`
	TotalPrice Number `json:"totalPrice"`
	Image      string `json:"image"`
}

// NewCartEntry builds the cart payload for buyer ordering qty units of it.
func NewCartEntry(it Item, buyer string, qty int) CartEntry {
	return CartEntry{
		BuyerEmail: buyer,
		OwnerEmail: it.OwnerEmail,
		ItemID:     it.ID,
		Title:      it.Title,
		Quantity:   Number(qty),
		Price:      it.Price,
		TotalPrice: it.Price * Number(qty),
		Image:      it.Image,
	}
}

// CartTotal sums the entries' total prices.
func CartTotal(entries []CartEntry) Number {
	var total Number
	for _, e := range entries {
		total += e.TotalPrice
	}
	return total
}

// InsertResult mirrors the POST /items response.
type InsertResult struct {
	InsertedID string `json:"insertedId"`
}

// UpdateResult mirrors the PATCH /items/{id} response.
type UpdateResult struct {
	ModifiedCount int `json:"modifiedCount"`
}

// DeleteResult mirrors the DELETE /items/{id} response.
type DeleteResult struct {
	DeletedCount int `json:"deletedCount"`
}
