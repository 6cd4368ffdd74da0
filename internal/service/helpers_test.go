package service

import (
	"context"
	"errors"

	"xiaonuan/internal/models"

	"go.uber.org/zap"
)

type gatewayCall struct {
	system      string
	user        string
	image       string
	temperature float64
}

type gatewayResponse struct {
	content string
	err     error
}

// fakeGateway replays scripted responses in call order and records every
// call for assertions on prompts and temperatures.
type fakeGateway struct {
	responses []gatewayResponse
	calls     []gatewayCall
}

func (g *fakeGateway) next() (string, error) {
	if len(g.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r.content, r.err
}

func (g *fakeGateway) Complete(_ context.Context, system, user string, temperature float64) (string, error) {
	g.calls = append(g.calls, gatewayCall{system: system, user: user, temperature: temperature})
	return g.next()
}

func (g *fakeGateway) CompleteVision(_ context.Context, system, prompt, image string, temperature float64) (string, error) {
	g.calls = append(g.calls, gatewayCall{system: system, user: prompt, image: image, temperature: temperature})
	return g.next()
}

type fakeTxStore struct {
	nextID    int64
	created   []*models.Transaction
	batches   [][]*models.Transaction
	createErr error
	batchErr  error
}

func (s *fakeTxStore) Create(_ context.Context, tx *models.Transaction) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.nextID++
	s.created = append(s.created, tx)
	return s.nextID, nil
}

func (s *fakeTxStore) CreateBatch(_ context.Context, txs []*models.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	s.batches = append(s.batches, txs)
	ids := make([]int64, 0, len(txs))
	for range txs {
		s.nextID++
		ids = append(ids, s.nextID)
	}
	return ids, nil
}

type fakeMessages struct {
	byID map[int64]*models.ChatMessage
}

func (f *fakeMessages) GetByID(_ context.Context, id int64) (*models.ChatMessage, error) {
	msg, ok := f.byID[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return msg, nil
}

type fakeMessageStore struct {
	nextID   int64
	messages []*models.ChatMessage
	err      error
}

func (f *fakeMessageStore) Create(_ context.Context, msg *models.ChatMessage) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	stored := *msg
	stored.ID = f.nextID
	f.messages = append(f.messages, &stored)
	return f.nextID, nil
}

func (f *fakeMessageStore) ListByUser(_ context.Context, userID int64, limit, offset int) ([]*models.ChatMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ChatMessage
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
