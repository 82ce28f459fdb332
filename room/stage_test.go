package room

import (
	"context"
	"testing"

	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChangeStage(t *testing.T) {
	session := testSession("room-1", participant("alice", true), participant("bob", false))

	tests := []struct {
		name    string
		asHost  bool
		req     stageRequest
		wantErr error
	}{
		{"host moves forward", true, stageRequest{RoomID: "room-1", NewStage: StageContributions}, nil},
		{"host moves backward", true, stageRequest{RoomID: "room-1", NewStage: StageSetup}, nil},
		{"non-host", false, stageRequest{RoomID: "room-1", NewStage: StageSelection}, ErrNotHost},
		{"unknown stage", true, stageRequest{RoomID: "room-1", NewStage: "lunch"}, ErrInvalidRequest},
		{"missing room id", true, stageRequest{NewStage: StageSelection}, ErrInvalidRequest},
		{"other room", true, stageRequest{RoomID: "room-2", NewStage: StageSelection}, ErrNotAMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestCoordinator()
			alice, bob := newFakeConn("c-alice"), newFakeConn("c-bob")
			mustJoin(t, c, alice, session, "alice")
			mustJoin(t, c, bob, session, "bob")

			conn := bob
			if tt.asHost {
				conn = alice
			}
			err := c.changeStage(conn, tt.req)
			tasks := c.flush()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, StageSetup, c.rooms["room-1"].stage)
				assert.Empty(t, tasks)
				assert.Empty(t, w.ops)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.NewStage, c.rooms["room-1"].stage)
			assert.Equal(t, []string{"update-session-status"}, w.ops)
			for _, conn := range []*fakeConn{alice, bob} {
				assert.Equal(t, []string{EventStage, "stage-changed"}, eventsTo(tasks, conn))
				p := lastPayload(tasks, conn, EventStage).(stagePayload)
				assert.Equal(t, tt.req.NewStage, p.Stage)
				assert.Equal(t, "alice", p.ChangedBy)
			}
		})
	}
}

func TestStagePersistsSessionStatus(t *testing.T) {
	c, w := newTestCoordinator()
	session := testSession("room-1", participant("alice", true))
	conn := newFakeConn("c1")
	mustJoin(t, c, conn, session, "alice")

	store := &MockSessionStore{}
	selection, completed := string(StageSelection), string(StageCompleted)
	store.On("UpdateSessionStatus", mock.Anything, "room-1", domain.SessionStatusActive, &selection).Return(nil).Once()
	store.On("UpdateSessionStatus", mock.Anything, "room-1", domain.SessionStatusCompleted, &completed).Return(nil).Once()

	require.NoError(t, c.changeStage(conn, stageRequest{RoomID: "room-1", NewStage: StageSelection}))
	require.NoError(t, c.changeStage(conn, stageRequest{RoomID: "room-1", NewStage: StageCompleted}))
	w.runAll(t, store)

	store.AssertExpectations(t)
}

func TestReset(t *testing.T) {
	session := testSession("room-1", participant("alice", true), participant("bob", false))

	for _, clear := range []bool{false, true} {
		c, w := newTestCoordinator()
		alice, bob := newFakeConn("c-alice"), newFakeConn("c-bob")
		mustJoin(t, c, alice, session, "alice")
		mustJoin(t, c, bob, session, "bob")

		require.NoError(t, c.changeStage(alice, stageRequest{RoomID: "room-1", NewStage: StageContributions}))
		_, err := c.submitContribution(bob, contributionRequest{RoomID: "room-1", Kind: KindPovStatement, Content: "idea"})
		require.NoError(t, err)
		_, err = c.startVoting(alice, startVotingRequest{RoomID: "room-1", Kind: KindPovStatement})
		require.NoError(t, err)
		c.flush()
		w.ops = nil

		assert.ErrorIs(t, c.reset(bob, resetRequest{RoomID: "room-1", ClearContributions: clear}), ErrNotHost)
		assert.Empty(t, c.flush())

		require.NoError(t, c.reset(alice, resetRequest{RoomID: "room-1", ClearContributions: clear}))
		tasks := c.flush()

		r := c.rooms["room-1"]
		assert.Equal(t, StageSetup, r.stage)
		assert.Empty(t, r.rounds)
		assert.Equal(t, []string{"save-voting-round", "update-session-status"}, w.ops)

		want := []string{EventReset, "session-reset", EventStage, "stage-changed"}
		if clear {
			want = append(want, EventContributions, "contributions-updated")
			assert.Empty(t, r.contributionList(""))
		} else {
			assert.Len(t, r.contributionList(""), 1)
		}
		assert.Equal(t, want, eventsTo(tasks, bob), "clear=%v", clear)
	}
}

func TestPersistStageUsesWriter(t *testing.T) {
	c, w := newTestCoordinator()
	c.persistStage("room-1", StageEvaluation)

	store := &MockSessionStore{}
	store.On("UpdateSessionStatus", mock.Anything, "room-1", domain.SessionStatusActive, mock.MatchedBy(func(s *string) bool {
		return s != nil && *s == "evaluation"
	})).Return(nil).Once()

	require.Len(t, w.jobs, 1)
	require.NoError(t, w.jobs[0].fn(context.Background(), store))
	store.AssertExpectations(t)
}
