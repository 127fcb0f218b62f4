package application

import (
	"context"
	"errors"
	"sync"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// --- Mock implementations shared by application tests ---

type mockLedger struct {
	mu sync.Mutex

	balance    model.PointsBalance
	balanceErr error
	balances   []model.PointsBalance // Served in order before balance, if set.

	created   model.ReviewRecord
	createErr error
	createFn  func(ctx context.Context, req driven.CreateReviewRequest) (model.ReviewRecord, error)

	reviews []model.ReviewRecord
	listErr error
	pingErr error

	balanceCalls int
	createCalls  []driven.CreateReviewRequest
}

func (m *mockLedger) GetBalance(_ context.Context, user string) (model.PointsBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceCalls++
	if m.balanceErr != nil {
		return model.PointsBalance{}, m.balanceErr
	}
	if len(m.balances) > 0 {
		b := m.balances[0]
		m.balances = m.balances[1:]
		b.User = user
		return b, nil
	}
	b := m.balance
	b.User = user
	return b, nil
}

func (m *mockLedger) CreateReview(ctx context.Context, req driven.CreateReviewRequest) (model.ReviewRecord, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, req)
	fn := m.createFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if m.createErr != nil {
		return model.ReviewRecord{}, m.createErr
	}
	return m.created, nil
}

func (m *mockLedger) ListReviews(_ context.Context, _ model.DocumentRef) ([]model.ReviewRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.ReviewRecord, len(m.reviews))
	copy(out, m.reviews)
	return out, nil
}

func (m *mockLedger) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockLedger) createCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.createCalls)
}

type mockDocumentSource struct {
	doc        *model.Document
	history    *model.DocumentHistory
	historyErr error
}

func (m *mockDocumentSource) GetDocument(_ context.Context, ref model.DocumentRef) (*model.Document, error) {
	if m.doc == nil {
		return nil, model.ErrDocumentNotFound
	}
	d := *m.doc
	d.Ref = ref
	return &d, nil
}

func (m *mockDocumentSource) GetHistory(_ context.Context, _ model.DocumentRef) (*model.DocumentHistory, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if m.history == nil {
		return &model.DocumentHistory{}, nil
	}
	h := *m.history
	return &h, nil
}

type mockSchemaStore struct {
	schemas map[string]model.Schema
}

func (m *mockSchemaStore) GetSchema(_ context.Context, documentType string) (*model.Schema, error) {
	s, ok := m.schemas[documentType]
	if !ok {
		return nil, model.ErrSchemaNotFound
	}
	return &s, nil
}

type mockDirectory struct {
	names map[string]string
	err   error
	calls int
}

func (m *mockDirectory) FullName(_ context.Context, user string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.names[user], nil
}

var errLedgerDown = errors.New("ledger unreachable")
