package realtime

import (
	"sync"
)

// Client is one websocket connection. The send buffer is never closed;
// done signals the writer to stop so late emitters cannot panic.
type Client struct {
	id       string
	userID   string
	username string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// rooms is guarded by Hub.mu.
	rooms map[string]struct{}
}

func newClient(id, userID, username string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		id:       id,
		userID:   userID,
		username: username,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		rooms:    make(map[string]struct{}),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
