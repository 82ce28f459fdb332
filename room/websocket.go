package room

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type WebsocketConnection interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type gorillaConnection struct {
	socket *websocket.Conn
}

// NewGorillaConnection wraps conn. Every pong pushes the read deadline readTimeout further.
func NewGorillaConnection(conn *websocket.Conn, readTimeout time.Duration) *gorillaConnection {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	return &gorillaConnection{socket: conn}
}

func (gc *gorillaConnection) Write(data []byte) error {
	gc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return gc.socket.WriteMessage(websocket.TextMessage, data)
}

func (gc *gorillaConnection) Ping() error {
	return gc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (gc *gorillaConnection) Read() ([]byte, error) {
	_, p, err := gc.socket.ReadMessage()
	return p, err
}

func (gc *gorillaConnection) Close(reason string) {
	gc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	gc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	gc.socket.Close()
}
