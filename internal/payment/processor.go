package payment

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrDeclined is returned when the processor rejects a charge.
var ErrDeclined = errors.New("payment declined by processor")

// ChargeRequest describes a charge to run through the processor.
type ChargeRequest struct {
	Amount    float64
	Method    string
	Reference string // bill or cart reference, for the processor's records
}

// ChargeResult is the processor's acknowledgement of a successful charge.
type ChargeResult struct {
	TransactionID string
	ProcessedAt   time.Time
}

// Processor is the boundary to an external payment provider. Charge must
// honor ctx cancellation; callers wrap it with a deadline.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// MockProcessor simulates a provider with a fixed processing delay and an
// optional failure rate. It stands in until a real gateway exists, but unlike
// a bare timer it respects cancellation and reports declines distinctly.
type MockProcessor struct {
	Delay       time.Duration
	FailureRate float64 // 0..1, probability a charge is declined
}

// NewMockProcessor creates a MockProcessor with the given processing delay.
func NewMockProcessor(delay time.Duration, failureRate float64) *MockProcessor {
	return &MockProcessor{Delay: delay, FailureRate: failureRate}
}

func (p *MockProcessor) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if p.FailureRate > 0 && rand.Float64() < p.FailureRate {
		return nil, ErrDeclined
	}

	return &ChargeResult{
		TransactionID: time.Now().Format("20060102150405.000000"),
		ProcessedAt:   time.Now(),
	}, nil
}
