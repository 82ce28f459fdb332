package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrHubStopped = errors.New("hub-stopped")

type envelope struct {
	from Conn
	req  any
}

// Hub is the single event loop that owns every live room. Durable reads a request
// depends on are done by the caller before the request is queued; the loop itself
// never waits on the store.
type Hub struct {
	store         SessionStore
	coord         *coordinator
	inbox         chan envelope
	done          chan struct{}
	lookupTimeout time.Duration
}

func NewHub(store SessionStore, writer DurableWriter, lookupTimeout time.Duration) *Hub {
	return &Hub{
		store:         store,
		coord:         newCoordinator(writer, time.Now, uuid.NewString),
		inbox:         make(chan envelope, 1024),
		done:          make(chan struct{}),
		lookupTimeout: lookupTimeout,
	}
}

func (h *Hub) Run(ctx context.Context, started chan struct{}) {
	close(started)
	defer close(h.done)

	for {
		select {
		case env := <-h.inbox:
			h.handle(env)
			h.deliver(h.coord.flush())
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch prepares req with the durable state it needs and queues it.
func (h *Hub) Dispatch(ctx context.Context, from Conn, req any) error {
	switch r := req.(type) {
	case *joinRequest:
		if r.RoomID != "" {
			lctx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
			r.session, r.lookupErr = h.store.GetSession(lctx, r.RoomID)
			cancel()
		}
	case *startVotingRequest:
		if r.RoomID != "" && r.MaxSelections <= 0 {
			lctx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
			r.policy = loadPolicy(lctx, h.store, r.RoomID)
			cancel()
		}
	case *voteRequest:
		if r.RoomID != "" && r.Kind.Votable() {
			lctx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
			r.stored = loadRound(lctx, h.store, r.RoomID, r.Kind)
			r.policy = loadPolicy(lctx, h.store, r.RoomID)
			cancel()
		}
	}
	return h.enqueue(ctx, envelope{from: from, req: req})
}

// Disconnect removes from from whatever room it is in.
func (h *Hub) Disconnect(from Conn) {
	if err := h.enqueue(context.Background(), envelope{from: from, req: disconnectRequest{}}); err != nil {
		log.Debug().Str("conn_id", from.ID()).Err(err).Msg("disconnect after hub stop")
	}
}

func (h *Hub) enqueue(ctx context.Context, env envelope) error {
	select {
	case h.inbox <- env:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) handle(env envelope) {
	var err error
	switch req := env.req.(type) {
	case *joinRequest:
		_, err = h.coord.join(env.from, *req)
	case *leaveRequest:
		if req.RoomID == "" {
			err = fmt.Errorf("%w: roomId is required", ErrInvalidRequest)
		} else {
			err = h.coord.leave(env.from, req.RoomID)
		}
	case disconnectRequest:
		_ = h.coord.leave(env.from, "")
	case *stageRequest:
		err = h.coord.changeStage(env.from, *req)
	case *contributionRequest:
		_, err = h.coord.submitContribution(env.from, *req)
	case *startVotingRequest:
		_, err = h.coord.startVoting(env.from, *req)
	case *voteRequest:
		err = h.coord.submitVote(env.from, *req)
	case *resetRequest:
		err = h.coord.reset(env.from, *req)
	default:
		err = fmt.Errorf("%w: unsupported request %T", ErrInvalidRequest, req)
	}
	if err != nil {
		h.coord.replyError(env.from, err)
	}
}

func (h *Hub) deliver(tasks []sendTask) {
	for _, t := range tasks {
		if err := t.to.Send(t.ev); err != nil {
			log.Warn().Str("conn_id", t.to.ID()).Err(err).Msg("dropping slow connection")
			t.to.Close(err.Error())
		}
	}
}
