package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/smartmenu/order-intake/internal/domain/order"

// Outcomes recorded on the orders.submitted counter.
const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracerProvider sets the provider used to trace service operations.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// Service encapsulates order intake: validation, pricing, persistence and
// read-back.
type Service struct {
	orders  Repository
	events  Publisher
	pricing Pricing
	now     func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	submitted      metric.Int64Counter
}

// NewService creates an order Service. A nil events publisher disables events.
func NewService(orders Repository, events Publisher, pricing Pricing, opts ...Option) (*Service, error) {
	if err := pricing.Validate(); err != nil {
		return nil, errors.Wrap(err, "pricing")
	}
	if events == nil {
		events = NopPublisher{}
	}
	s := &Service{
		orders:         orders,
		events:         events,
		pricing:        pricing,
		now:            time.Now,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	counter, err := s.meterProvider.Meter(instrumentationName).Int64Counter("orders.submitted",
		metric.WithDescription("Order submissions by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.submitted counter")
	}
	s.submitted = counter

	return s, nil
}

// Submit validates the submission, derives the tax breakdown and persists
// the order with its items. Validation failures are returned as
// *validate.Error and never reach storage.
func (s *Service) Submit(ctx context.Context, sub Submission) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Submit")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if err := sub.Validate(); err != nil {
		s.record(ctx, OutcomeRejected)
		return nil, err
	}

	o := s.build(sub)
	if err := s.orders.Create(ctx, o); err != nil {
		s.record(ctx, OutcomeFailed)
		return nil, errors.Wrap(err, "create order")
	}
	s.record(ctx, OutcomeCreated)
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	if err := s.events.PublishCreated(ctx, o); err != nil {
		zctx.From(ctx).Warn("Publish order created event",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}

	return o, nil
}

func (s *Service) build(sub Submission) *Order {
	total := sub.TotalAmount
	subtotal, tax := s.pricing.Breakdown(total)

	items := make([]Item, len(sub.Items))
	for i, item := range sub.Items {
		items[i] = Item{
			ItemID:   item.ItemName,
			Name:     item.ItemName,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	return &Order{
		CustomerName:    strings.TrimSpace(sub.CustomerName),
		CustomerPhone:   strings.TrimSpace(sub.PhoneNumber),
		CustomerAddress: strings.TrimSpace(sub.Address),
		Currency:        s.pricing.Currency,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           total,
		CreatedAt:       s.now().UTC(),
		Items:           items,
	}
}

func (s *Service) record(ctx context.Context, outcome string) {
	s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.List")
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns a single order. The returned error wraps ErrNotFound when the
// order does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}
