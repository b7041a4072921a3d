package order

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed" // order status
	StatusPaid      = "paid"      // payment status

	PaymentMethodPayPal = "paypal"
)

// Order is one checkout attempt. The course fields are a snapshot taken when the order was created.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	OrderStatus    string          `json:"order_status"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	OrderDate      time.Time       `json:"order_date"` // UTC
	PaymentID      string          `json:"payment_id"`
	PayerID        string          `json:"payer_id"`
	InstructorID   string          `json:"instructor_id"`
	InstructorName string          `json:"instructor_name"`
	CourseImage    string          `json:"course_image"`
	CourseTitle    string          `json:"course_title"`
	CourseID       string          `json:"course_id"`
	CoursePricing  decimal.Decimal `json:"course_pricing"`
	Currency       string          `json:"currency"`
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
}

func (o Order) IsPaid() bool { return o.PaymentStatus == StatusPaid }

// NewOrder is the checkout request. The course snapshot is always read server side.
type NewOrder struct {
	CourseID      string `json:"course_id" validate:"required,notblank"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=paypal"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	no.CourseID = core.CleanString(no.CourseID)
	no.PaymentMethod = core.CleanString(no.PaymentMethod, true /* lower */)
	if no.PaymentMethod == "" {
		no.PaymentMethod = PaymentMethodPayPal
	}
	return validate.Struct(no)
}

// Checkout is returned once the payment is created: the buyer must approve it at ApproveURL.
type Checkout struct {
	ApproveURL string `json:"approve_url"`
	OrderID    string `json:"order_id"`
}

// CaptureOrder holds the identifiers returned by the payment processor after the buyer approved the payment.
type CaptureOrder struct {
	PaymentID string `json:"payment_id" validate:"required,notblank"`
	PayerID   string `json:"payer_id" validate:"required,notblank"`
	OrderID   string `json:"order_id" validate:"required,notblank"`
}

func (co *CaptureOrder) Validate(validate *validator.Validate) error {
	co.PaymentID = core.CleanString(co.PaymentID)
	co.PayerID = core.CleanString(co.PayerID)
	co.OrderID = core.CleanString(co.OrderID)
	return validate.Struct(co)
}

// PaymentRequest is what the payment processor is asked to charge.
type PaymentRequest struct {
	ReferenceID string // our order ID
	SKU         string // course ID
	Name        string
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// Payment is a payment created at the payment processor, awaiting the buyer's approval.
type Payment struct {
	ID          string
	ApprovalURL string
}

type receiptData struct {
	OrderID        string
	UserName       string
	CourseID       string
	CourseTitle    string
	InstructorName string
	Amount         string
	Currency       string
	OrderDate      string
}
