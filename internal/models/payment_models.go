package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a session was paid for.
type PaymentMethod int

const (
	PaymentMethodCash  PaymentMethod = 1
	PaymentMethodCard  PaymentMethod = 2
	PaymentMethodQR    PaymentMethod = 3
	PaymentMethodOther PaymentMethod = 4
)

// IsValidPaymentMethod checks if the provided code is a known PaymentMethod.
func IsValidPaymentMethod(method int) bool {
	m := PaymentMethod(method)
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQR, PaymentMethodOther:
		return true
	default:
		return false
	}
}

func (m PaymentMethod) String() string {
	switch m {
	case PaymentMethodCash:
		return "cash"
	case PaymentMethodCard:
		return "card"
	case PaymentMethodQR:
		return "qr"
	case PaymentMethodOther:
		return "other"
	default:
		return "unknown"
	}
}

// PaymentSummary reconciles what a session costs against what has
// been received for it.
type PaymentSummary struct {
	SessionID   int64           `json:"session_id"`
	FinalCost   decimal.Decimal `json:"final_cost"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Settled     bool            `json:"settled"`
	Payments    []Payment       `json:"payments"`
}

// Payment is money received against a session.
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	SessionID     int64           `json:"session_id" db:"session_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Method        PaymentMethod   `json:"method" db:"method"`
	ReceiptNumber string          `json:"receipt_number" db:"receipt_number"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
