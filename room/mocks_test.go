package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- SessionStore ---

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionStore) GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error) {
	args := m.Called(ctx, id, key)
	entries, _ := args.Get(0).([]domain.StateEntry)
	return entries, args.Error(1)
}

func (m *MockSessionStore) SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error {
	args := m.Called(ctx, id, key, value)
	return args.Error(0)
}

func (m *MockSessionStore) UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error {
	args := m.Called(ctx, id, status, stage)
	return args.Error(0)
}

func (m *MockSessionStore) SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error {
	args := m.Called(ctx, id, sel)
	return args.Error(0)
}

func (m *MockSessionStore) SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error) {
	args := m.Called(ctx, id, userID, displayName, kind, content)
	return args.String(0), args.Error(1)
}

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(reason string) {
	m.Called(reason)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- dispatcher ---

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, from Conn, req any) error {
	args := m.Called(ctx, from, req)
	return args.Error(0)
}

func (m *MockDispatcher) Disconnect(from Conn) {
	m.Called(from)
}

// --- Conn ---

type fakeConn struct {
	id string

	mu      sync.Mutex
	sent    []Event
	sendErr error
	closed  bool
	reason  string
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeConn) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.reason = reason
}

func (f *fakeConn) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.sent...)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// --- DurableWriter ---

// recordingWriter keeps submitted writes so tests can inspect or run them.
type recordingWriter struct {
	ops  []string
	jobs []writeJob
}

func (w *recordingWriter) Submit(op, roomID string, fn func(ctx context.Context, store SessionStore) error) {
	w.ops = append(w.ops, op)
	w.jobs = append(w.jobs, writeJob{op: op, roomID: roomID, fn: fn})
}

// runAll applies every recorded write to store.
func (w *recordingWriter) runAll(t *testing.T, store SessionStore) {
	t.Helper()
	for _, job := range w.jobs {
		require.NoError(t, job.fn(context.Background(), store), job.op)
	}
	w.jobs = nil
}

// --- helpers ---

var testClock = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestCoordinator() (*coordinator, *recordingWriter) {
	w := &recordingWriter{}
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return newCoordinator(w, func() time.Time { return testClock }, newID), w
}

func participant(userID string, host bool) domain.Participant {
	return domain.Participant{UserID: userID, DisplayName: userID + "-name", IsHost: host, IsActive: true}
}

func testSession(roomID string, participants ...domain.Participant) domain.Session {
	return domain.Session{ID: roomID, Code: "ABC123", Participants: participants, Status: domain.SessionStatusActive}
}

// mustJoin registers conn as userID and discards the resulting events.
func mustJoin(t *testing.T, c *coordinator, conn Conn, session domain.Session, userID string) Member {
	t.Helper()
	m, err := c.join(conn, joinRequest{RoomID: session.ID, UserID: userID, session: session})
	require.NoError(t, err)
	c.flush()
	return m
}

// eventsTo returns the event types queued for conn, in order.
func eventsTo(tasks []sendTask, conn Conn) []string {
	var types []string
	for _, task := range tasks {
		if task.to == conn {
			types = append(types, task.ev.Type)
		}
	}
	return types
}

// lastPayload returns the payload of the last event named name queued for conn.
func lastPayload(tasks []sendTask, conn Conn, name string) any {
	var payload any
	for _, task := range tasks {
		if task.to == conn && task.ev.Type == name {
			payload = task.ev.Payload
		}
	}
	return payload
}

// memStore keeps session state in memory so persisted rounds can be read back.
type memStore struct {
	state map[string]json.RawMessage
	final []domain.FinalSelections
}

func newMemStore() *memStore {
	return &memStore{state: make(map[string]json.RawMessage)}
}

func (s *memStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return domain.Session{}, domain.ErrSessionNotFound
}

func (s *memStore) GetSessionState(ctx context.Context, id, key string) ([]domain.StateEntry, error) {
	value, ok := s.state[id+"/"+key]
	if !ok {
		return []domain.StateEntry{}, nil
	}
	return []domain.StateEntry{{Value: value, UpdatedAt: testClock}}, nil
}

func (s *memStore) SetSessionState(ctx context.Context, id, key string, value json.RawMessage) error {
	s.state[id+"/"+key] = value
	return nil
}

func (s *memStore) UpdateSessionStatus(ctx context.Context, id, status string, stage *string) error {
	return nil
}

func (s *memStore) SetFinalSelections(ctx context.Context, id string, sel domain.FinalSelections) error {
	s.final = append(s.final, sel)
	return nil
}

func (s *memStore) SubmitContribution(ctx context.Context, id, userID, displayName, kind, content string) (string, error) {
	return "row-" + userID, nil
}
