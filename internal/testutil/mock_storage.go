//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
)

// MockJournal 历史记录 mock
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Create(ctx context.Context, meta engine.Meta) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockJournal) Append(ctx context.Context, sessionID string, rec game.ActionRecord) error {
	args := m.Called(ctx, sessionID, rec)
	return args.Error(0)
}

func (m *MockJournal) Finalize(ctx context.Context, sessionID string, summary engine.FinalSummary) error {
	args := m.Called(ctx, sessionID, summary)
	return args.Error(0)
}

// MockSnapshotStore 会话快照 mock
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) SaveSession(ctx context.Context, s game.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotStore) LoadSession(ctx context.Context, sessionID string) (game.Session, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(game.Session), args.Error(1)
}

func (m *MockSnapshotStore) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockResultRecorder 对局结果 mock
type MockResultRecorder struct {
	mock.Mock
}

func (m *MockResultRecorder) RecordResult(ctx context.Context, summary engine.FinalSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
