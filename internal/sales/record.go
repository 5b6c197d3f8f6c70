package sales

import "time"

// Record is one historical sales line: a product appearing in an order.
type Record struct {
	Date        time.Time `json:"date"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	OrderID     string    `json:"order_id"`
	Quantity    float64   `json:"quantity"`
	Day         time.Time `json:"day"`
}

// NewRecord builds a record and derives its calendar day.
func NewRecord(date time.Time, productID, productName, orderID string, quantity float64) Record {
	return Record{
		Date:        date,
		ProductID:   productID,
		ProductName: productName,
		OrderID:     orderID,
		Quantity:    quantity,
		Day:         TruncateDay(date),
	}
}

// TruncateDay drops the time of day, keeping the location.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey identifies a calendar day independently of the time.Location value.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
