package floor

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// Client is a display or operator console connected to a terminal via websockets
type Client struct {
	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// send is a channel for sending messages to the client
	send chan interface{}

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	operator string
	terminal *Terminal
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, operator string) *Client {
	return &Client{
		send:     make(chan interface{}, 256),
		Close:    make(chan string),
		Conn:     conn,
		operator: operator,
	}
}

// Send sends a message to the client without blocking
// False is returned if the client's buffer is full
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// String returns a traceable identifier for the operator and terminal
func (c *Client) String() string {
	if c.terminal == nil {
		return c.operator
	}

	return fmt.Sprintf("%s:%s", c.operator, c.terminal.ID())
}
