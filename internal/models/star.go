package models

// Star schema row types. Dimension rows are immutable once written: the
// warehouse keeps whichever attributes arrived first for a given key.

type DimUser struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Email       string `json:"email"`
}

type DimCategory struct {
	CategoryID   int64  `json:"category_id"`
	CategoryType string `json:"category_type"`
	Merchant     string `json:"merchant"`
}

type DimPayment struct {
	PaymentID       int64  `json:"payment_id"`
	PaymentType     string `json:"payment_type"`
	PaymentCurrency string `json:"payment_currency"`
	PaymentMethod   string `json:"payment_method"`
}

type DimDate struct {
	DateID  int64  `json:"date_id"` // YYYYMMDDHHMM
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
	Month   int    `json:"month"`
	Weekday string `json:"weekday"`
	Day     int    `json:"day"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
}

// TransactionFact references the dimensions by surrogate key. Foreign keys
// are pointers: nil means the source batch could not supply the fields that
// key is derived from, which the pipeline accepts as a gap.
type TransactionFact struct {
	TransactionID string  `json:"transaction_id"`
	CategoryID    *int64  `json:"category_id"`
	DateID        *int64  `json:"date_id"`
	UserID        *string `json:"user_id"`
	PaymentID     *int64  `json:"payment_id"`
	Amount        float64 `json:"transaction_amount"`
}
