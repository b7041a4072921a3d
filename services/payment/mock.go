package paymentsvc

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/order"
)

// ProcessorMock is an in-process PaymentProcessor for development and tests.
type ProcessorMock struct {
	mu          sync.Mutex
	FailCreate  bool
	FailExecute bool
	Created     []order.PaymentRequest
	Executed    map[string]string // {paymentID: payerID}
}

var _ order.PaymentProcessor = (*ProcessorMock)(nil)

func NewProcessorMock() *ProcessorMock {
	return &ProcessorMock{Executed: make(map[string]string)}
}

func (p *ProcessorMock) CreatePayment(_ context.Context, req order.PaymentRequest) (order.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailCreate {
		return order.Payment{}, upstreamErr(errors.New("creating payment: INTERNAL_SERVICE_ERROR"))
	}
	p.Created = append(p.Created, req)
	id := "PAYID-" + uuid.NewString()
	return order.Payment{ID: id, ApprovalURL: "https://www.sandbox.paypal.com/checkoutnow?token=" + id}, nil
}

func (p *ProcessorMock) ExecutePayment(_ context.Context, paymentID, payerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailExecute {
		return upstreamErr(errors.New("executing payment: INSTRUMENT_DECLINED"))
	}
	if _, ok := p.Executed[paymentID]; ok {
		return upstreamErr(errors.New("executing payment: PAYMENT_ALREADY_DONE"))
	}
	p.Executed[paymentID] = payerID
	return nil
}

// Reset clears the recorded calls and failure flags.
func (p *ProcessorMock) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.FailCreate = false
	p.FailExecute = false
	p.Created = nil
	p.Executed = make(map[string]string)
}
