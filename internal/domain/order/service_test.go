package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	created []*Order
	nextID  int64
	orders  []Order
	byID    map[int64]*Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	o.ID = m.nextID
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
		o.Items[i].OrderID = o.ID
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	return m.orders, m.err
}

func (m *mockOrderRepo) Get(_ context.Context, id int64) (*Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

type mockPublisher struct {
	published []*Order
	err       error
}

func (m *mockPublisher) PublishCreated(_ context.Context, o *Order) error {
	m.published = append(m.published, o)
	return m.err
}

// --- Helpers ---

var fixedNow = time.Date(2025, 3, 1, 18, 30, 0, 0, time.FixedZone("AST", 3*60*60))

func newTestService(t *testing.T, repo *mockOrderRepo, pub Publisher) *Service {
	t.Helper()
	svc, err := NewService(repo, pub, DefaultPricing(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

// --- Tests ---

func TestNewService_InvalidPricing(t *testing.T) {
	_, err := NewService(&mockOrderRepo{}, nil, Pricing{TaxRate: decimal.NewFromInt(-1), Currency: "SAR"})
	require.Error(t, err)
}

func TestSubmit_Valid(t *testing.T) {
	repo := &mockOrderRepo{}
	pub := &mockPublisher{}
	svc := newTestService(t, repo, pub)

	sub := validSubmission()
	sub.CustomerName = "  Ahmed Ali "
	sub.Address = " 12 Tahrir Street, Cairo\n"

	o, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, "Ahmed Ali", o.CustomerName)
	assert.Equal(t, "01234567890", o.CustomerPhone)
	assert.Equal(t, "12 Tahrir Street, Cairo", o.CustomerAddress)
	assert.Equal(t, "SAR", o.Currency)
	assert.True(t, decimal.RequireFromString("115.00").Equal(o.Total))
	assert.True(t, decimal.RequireFromString("100.00").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.Tax))
	assert.Equal(t, fixedNow.UTC(), o.CreatedAt)
	assert.Equal(t, time.UTC, o.CreatedAt.Location())

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Margherita", o.Items[0].ItemID)
	assert.Equal(t, "Margherita", o.Items[0].Name)
	assert.True(t, decimal.RequireFromString("65.00").Equal(o.Items[0].Price))
	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "Cola", o.Items[1].Name)
	assert.Equal(t, 2, o.Items[1].Quantity)

	require.Len(t, pub.published, 1)
	assert.Same(t, o, pub.published[0])
}

func TestSubmit_AssignsDistinctIDs(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(t, repo, nil)

	first, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestSubmit_ValidationErrorSkipsStorage(t *testing.T) {
	repo := &mockOrderRepo{}
	pub := &mockPublisher{}
	svc := newTestService(t, repo, pub)

	sub := validSubmission()
	sub.CustomerName = "Al"
	sub.Items = nil

	_, err := svc.Submit(context.Background(), sub)

	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Empty(t, repo.created)
	assert.Empty(t, pub.published)
}

func TestSubmit_SubCentAmountsNeverStored(t *testing.T) {
	for _, total := range []string{"0.004", "115.999"} {
		t.Run(total, func(t *testing.T) {
			repo := &mockOrderRepo{}
			svc := newTestService(t, repo, nil)

			sub := validSubmission()
			sub.TotalAmount = decimal.RequireFromString(total)

			_, err := svc.Submit(context.Background(), sub)
			assert.Equal(t, map[string][]string{FieldTotalAmount: {MsgInvalidTotal}}, FieldMessages(err))
			assert.Empty(t, repo.created)
		})
	}
}

func TestSubmit_StoresSubmittedAmountsUnchanged(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(t, repo, nil)

	sub := validSubmission()
	sub.TotalAmount = decimal.RequireFromString("21.76")
	sub.Items = []SubmittedItem{{ItemName: "Tea", Price: decimal.RequireFromString("7.25"), Quantity: 3}}

	o, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("21.76").Equal(o.Total))
	assert.True(t, decimal.RequireFromString("7.25").Equal(o.Items[0].Price))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.Tax)))
}

func TestSubmit_CreateError(t *testing.T) {
	repo := &mockOrderRepo{err: errors.New("db write failed")}
	pub := &mockPublisher{}
	svc := newTestService(t, repo, pub)

	_, err := svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Empty(t, pub.published)
}

func TestSubmit_PublishErrorIgnored(t *testing.T) {
	repo := &mockOrderRepo{}
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(t, repo, pub)

	o, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)
	assert.Len(t, repo.created, 1)
}

func TestSubmit_CustomTaxRate(t *testing.T) {
	repo := &mockOrderRepo{}
	svc, err := NewService(repo, nil, Pricing{TaxRate: decimal.RequireFromString("0.05"), Currency: "EGP"})
	require.NoError(t, err)

	sub := validSubmission()
	sub.TotalAmount = decimal.NewFromInt(105)

	o, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "EGP", o.Currency)
	assert.True(t, decimal.NewFromInt(100).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(5).Equal(o.Tax))
}

func TestList(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{{ID: 2}, {ID: 1}}}
	svc := newTestService(t, repo, nil)

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)

	repo.err = errors.New("db down")
	_, err = svc.List(context.Background())
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	repo := &mockOrderRepo{byID: map[int64]*Order{7: {ID: 7, CustomerName: "Sara"}}}
	svc := newTestService(t, repo, nil)

	t.Run("found", func(t *testing.T) {
		o, err := svc.Get(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "Sara", o.CustomerName)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), 999999)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("storage error", func(t *testing.T) {
		failing := newTestService(t, &mockOrderRepo{err: errors.New("db down")}, nil)
		_, err := failing.Get(context.Background(), 7)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
