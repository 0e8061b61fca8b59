package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID accepts both numeric and string identifiers; the products store uses
// document keys while the relational tables use integers. It re-encodes in
// the form it was decoded from.
type ID struct {
	value   string
	numeric bool
}

// IntID returns a numeric identifier.
func IntID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringID returns a string identifier, encoded quoted even when it is all digits.
func StringID(s string) ID {
	return ID{value: s}
}

func (id ID) String() string { return id.value }

// IsNumeric reports whether the identifier encodes as a JSON number.
func (id ID) IsNumeric() bool { return id.numeric }

func (id ID) IsZero() bool { return id.value == "" }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// Decimal accepts money values encoded as JSON numbers or numeric strings.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	*d = Decimal(f)
	return nil
}

// Product is a catalogue entry.
type Product struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    Decimal `json:"price"`
}

// Purchase is a purchase history row.
type Purchase struct {
	ID              ID      `json:"id"`
	Product         ID      `json:"product,omitzero"`
	ProductName     string  `json:"product_name,omitempty"`
	ProductCategory string  `json:"product_category,omitempty"`
	Category        string  `json:"category,omitempty"`
	CustomerID      string  `json:"customer_id,omitempty"`
	ItemName        string  `json:"item_name,omitempty"`
	Quantity        int     `json:"quantity"`
	UnitPrice       Decimal `json:"unit_price,omitempty"`
	Total           Decimal `json:"total,omitempty"`
	Date            string  `json:"date,omitempty"`
	Timestamp       string  `json:"timestamp,omitempty"`
}

// PurchaseRequest is the submitPurchase payload.
type PurchaseRequest struct {
	Product    ID      `json:"product,omitzero"`
	Quantity   int     `json:"quantity"`
	Category   string  `json:"category,omitempty"`
	CustomerID string  `json:"customer_id,omitempty"`
	ItemName   string  `json:"item_name,omitempty"`
	UnitPrice  float64 `json:"unit_price,omitempty"`
	Total      float64 `json:"total,omitempty"`
	Date       string  `json:"date,omitempty"`
}

// Sale is a sales history row and the submitSales payload.
type Sale struct {
	ID                ID      `json:"id,omitzero"`
	Date              string  `json:"date"`
	TotalSales        Decimal `json:"total_sales"`
	HolidaySeason     bool    `json:"holiday_season"`
	PromoActive       bool    `json:"promo_active"`
	EconomicIndicator float64 `json:"economic_indicator"`
}

// MonthlyPrediction is one month of a yearly forecast.
type MonthlyPrediction struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	PredictedSales Decimal `json:"predicted_sales"`
}

// SalesPrediction is the sales forecast.
type SalesPrediction struct {
	Monthly Decimal             `json:"monthly"`
	Yearly  []MonthlyPrediction `json:"yearly"`
}

// CategoryProduct is a product summarized within its category.
type CategoryProduct struct {
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantity_sold"`
	Price        Decimal `json:"price"`
}

// PopularProduct ranks a product by units sold.
type PopularProduct struct {
	Name      string `json:"name"`
	TotalSold int    `json:"total_sold"`
}

// PricedProduct lists a product in a price band.
type PricedProduct struct {
	Name  string  `json:"name"`
	Price Decimal `json:"price"`
}

// Recommendations is the product recommendations payload.
type Recommendations struct {
	CategoryRecommendations map[string][]CategoryProduct `json:"category_recommendations"`
	MostPopularProducts     []PopularProduct             `json:"most_popular_products"`
	PriceRanges             map[string][]PricedProduct   `json:"price_ranges"`
}

// Decode unmarshals a response body into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil || len(bytes.TrimSpace(resp.Data)) == 0 {
		return v, ErrEmptyResponse
	}
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", endpointName(resp), err)
	}
	return v, nil
}

func endpointName(resp *Response) string {
	if resp.Request == nil {
		return "response"
	}
	return resp.Request.Endpoint.Name
}
