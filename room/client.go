package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type dispatcher interface {
	Dispatch(ctx context.Context, from Conn, req any) error
	Disconnect(from Conn)
}

// Client is the server side of one websocket connection.
type Client struct {
	id        string
	outbox    chan []byte
	limiter   *rate.Limiter
	ctx       context.Context
	cancelCtx context.CancelFunc
	closeOnce sync.Once
	reason    string
}

func NewClient(id string, outboxSize int, limiter *rate.Limiter) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:        id,
		outbox:    make(chan []byte, outboxSize),
		limiter:   limiter,
		ctx:       ctx,
		cancelCtx: cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues ev without blocking. Events for a closed client are discarded.
func (c *Client) Send(ev Event) error {
	if c.ctx.Err() != nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		c.reason = reason
		c.cancelCtx()
	})
}

// ReadPump decodes client frames and hands them to d until the socket fails.
func (c *Client) ReadPump(socket WebsocketConnection, d dispatcher) {
	defer func() {
		d.Disconnect(c)
		c.Close("")
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			log.Debug().Str("conn_id", c.id).Err(err).Msg("read pump stopped")
			return
		}
		if !c.limiter.Allow() {
			c.reject(ErrRateLimited)
			continue
		}
		req, err := decodeMessage(data)
		if err != nil {
			c.reject(err)
			continue
		}
		if err := d.Dispatch(c.ctx, c, req); err != nil {
			return
		}
	}
}

func (c *Client) reject(err error) {
	for _, ev := range withLegacy(EventError, errorPayload{Code: errorCode(err), Message: err.Error()}) {
		if c.Send(ev) != nil {
			return
		}
	}
}

// WritePump owns every write to the socket, pings included.
func (c *Client) WritePump(socket WebsocketConnection, pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.outbox:
			if err := socket.Write(data); err != nil {
				c.Close("")
				socket.Close("")
				return
			}
		case <-ticker.C:
			if err := socket.Ping(); err != nil {
				c.Close("")
				socket.Close("")
				return
			}
		case <-c.ctx.Done():
			socket.Close(c.reason)
			return
		}
	}
}
