package order

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound         = core.NewNotFoundError("order not found")
	ErrAlreadyPurchased = errors.New("you have already purchased this course")
	ErrAlreadyPaid      = errors.New("order has already been paid with another payment")
	ErrPaymentMismatch  = errors.New("payment does not match the order")
)

type (
	Repository interface {
		CreateOrder(ctx context.Context, o Order) (Order, error)
		GetOrder(ctx context.Context, id string) (Order, error)
		UpdateOrder(ctx context.Context, o Order) (Order, error)
	}

	// PaymentProcessor is the third-party payment gateway.
	PaymentProcessor interface {
		CreatePayment(ctx context.Context, req PaymentRequest) (Payment, error)
		ExecutePayment(ctx context.Context, paymentID, payerID string) error
	}

	CourseService interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
		AddStudent(ctx context.Context, courseID string, student course.StudentSummary) error
	}

	EnrollmentService interface {
		IsPurchased(ctx context.Context, userID, courseID string) (bool, error)
		Add(ctx context.Context, userID string, pc enrollment.PurchasedCourse) error
	}

	Service struct {
		repo        Repository
		processor   PaymentProcessor
		courses     CourseService
		enrollments EnrollmentService
		tx          core.Transactor
		mailSvc     core.EmailService
		currency    string
	}
)

func NewService(
	conf *core.Config,
	repo Repository,
	processor PaymentProcessor,
	courses CourseService,
	enrollments EnrollmentService,
	tx core.Transactor,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:        repo,
		processor:   processor,
		courses:     courses,
		enrollments: enrollments,
		tx:          tx,
		mailSvc:     mailSvc,
		currency:    conf.Payment.Currency,
	}
}

// Create creates the payment at the processor then a pending Order. Nothing is saved if the processor fails.
func (svc *Service) Create(ctx context.Context, buyer user.User, no NewOrder) (Checkout, error) {
	c, err := svc.courses.GetByID(ctx, no.CourseID)
	if err != nil {
		if err == course.ErrNotFound {
			return Checkout{}, err
		}
		return Checkout{}, errors.Wrap(err, "getting course")
	}

	purchased, err := svc.enrollments.IsPurchased(ctx, buyer.ID, c.ID)
	if err != nil {
		return Checkout{}, errors.Wrap(err, "checking entitlement")
	}
	if purchased {
		return Checkout{}, core.NewValidationError(ErrAlreadyPurchased,
			core.FieldError{Field: "course_id", Error: ErrAlreadyPurchased.Error()})
	}

	id := uuid.NewString()
	payment, err := svc.processor.CreatePayment(ctx, PaymentRequest{
		ReferenceID: id,
		SKU:         c.ID,
		Name:        c.Title,
		Description: c.Subtitle,
		Amount:      c.Pricing,
		Currency:    svc.currency,
	})
	if err != nil {
		return Checkout{}, errors.Wrap(err, "creating payment")
	}

	now := nowFunc().UTC()
	o := Order{
		ID:             id,
		UserID:         buyer.ID,
		UserName:       buyer.DisplayName(),
		UserEmail:      buyer.Email,
		OrderStatus:    StatusPending,
		PaymentMethod:  no.PaymentMethod,
		PaymentStatus:  StatusPending,
		OrderDate:      now,
		PaymentID:      payment.ID,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		CourseImage:    c.Image,
		CourseTitle:    c.Title,
		CourseID:       c.ID,
		CoursePricing:  c.Pricing,
		Currency:       svc.currency,
		UpdatedAt:      now,
	}
	if _, err = svc.repo.CreateOrder(ctx, o); err != nil {
		return Checkout{}, errors.Wrap(err, "creating order")
	}
	return Checkout{ApproveURL: payment.ApprovalURL, OrderID: o.ID}, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Order, error) {
	return svc.repo.GetOrder(ctx, id)
}

// Capture executes the approved payment then, in one transaction, confirms the order, enrolls the buyer and adds
// them to the course roster.
// Capturing an order already paid with the same payment is a no-op returning the confirmed order.
func (svc *Service) Capture(ctx context.Context, buyerID string, co CaptureOrder) (Order, error) {
	o, err := svc.repo.GetOrder(ctx, co.OrderID)
	if err != nil {
		if err == ErrNotFound {
			return Order{}, err
		}
		return Order{}, errors.Wrap(err, "getting order")
	}
	if o.UserID != buyerID {
		return Order{}, ErrNotFound
	}
	if o.PaymentID != "" && o.PaymentID != co.PaymentID {
		if o.IsPaid() {
			return Order{}, core.NewValidationError(ErrAlreadyPaid)
		}
		return Order{}, core.NewValidationError(ErrPaymentMismatch,
			core.FieldError{Field: "payment_id", Error: ErrPaymentMismatch.Error()})
	}
	if o.IsPaid() {
		return o, nil
	}

	c, err := svc.courses.GetByID(ctx, o.CourseID)
	if err != nil {
		if err == course.ErrNotFound {
			return Order{}, err
		}
		return Order{}, errors.Wrap(err, "getting course")
	}

	if err = svc.processor.ExecutePayment(ctx, co.PaymentID, co.PayerID); err != nil {
		return Order{}, errors.Wrap(err, "executing payment")
	}

	var alreadyPaid bool
	err = svc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		curr, err := svc.repo.GetOrder(ctx, o.ID)
		if err != nil {
			return errors.Wrap(err, "getting order")
		}
		if curr.IsPaid() { // finalized by a concurrent capture
			o, alreadyPaid = curr, true
			return nil
		}

		now := nowFunc().UTC()
		curr.PaymentStatus = StatusPaid
		curr.OrderStatus = StatusConfirmed
		curr.PaymentID = co.PaymentID
		curr.PayerID = co.PayerID
		curr.UpdatedAt = now
		if o, err = svc.repo.UpdateOrder(ctx, curr); err != nil {
			return errors.Wrap(err, "updating order")
		}

		err = svc.enrollments.Add(ctx, o.UserID, enrollment.PurchasedCourse{
			CourseID:       c.ID,
			Title:          c.Title,
			InstructorID:   c.InstructorID,
			InstructorName: c.InstructorName,
			DateOfPurchase: now,
			CourseImage:    c.Image,
		})
		if err != nil {
			return errors.Wrap(err, "enrolling student")
		}

		err = svc.courses.AddStudent(ctx, c.ID, course.StudentSummary{
			StudentID:    o.UserID,
			StudentName:  o.UserName,
			StudentEmail: o.UserEmail,
			PaidAmount:   o.CoursePricing,
		})
		return errors.Wrap(err, "adding student to course")
	})
	if err != nil {
		return Order{}, errors.Wrapf(err, "finalizing order %s (payment %s captured)", o.ID, co.PaymentID)
	}

	if !alreadyPaid {
		svc.sendReceipt(o)
	}
	return o, nil
}

func (svc *Service) sendReceipt(o Order) {
	if o.UserEmail == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: o.UserName, Address: o.UserEmail}},
		Subject:      "Your order is confirmed: " + o.CourseTitle,
		TemplateName: "order_receipt",
		TemplateData: receiptData{
			OrderID:        o.ID,
			UserName:       o.UserName,
			CourseID:       o.CourseID,
			CourseTitle:    o.CourseTitle,
			InstructorName: o.InstructorName,
			Amount:         o.CoursePricing.StringFixed(2),
			Currency:       o.Currency,
			OrderDate:      o.UpdatedAt.Format("Jan 2, 2006"),
		},
	}
	if receipt, err := receiptCSV(o); err == nil {
		_ = msg.Attach(bytes.NewReader(receipt), "receipt-"+o.ID+".csv", "text/csv")
	}
	svc.mailSvc.SendMessages(msg)
}

// receiptCSV renders the order as a one-line CSV receipt, with a header row.
func receiptCSV(o Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"order_id", "date", "course_id", "course_title", "instructor", "amount", "currency", "payment_id"})
	_ = w.Write([]string{
		o.ID,
		o.UpdatedAt.Format(time.RFC3339),
		o.CourseID,
		o.CourseTitle,
		o.InstructorName,
		o.CoursePricing.StringFixed(2),
		o.Currency,
		o.PaymentID,
	})
	w.Flush()
	return buf.Bytes(), w.Error()
}
