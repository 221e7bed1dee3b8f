package teams

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gorilla/websocket"
)

// receiveLoop reads messages until the connection closes. Each message is
// reassembled from its frames before it is decoded.
func (c *Client) receiveLoop(conn *websocket.Conn, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)
	defer c.handleClosed(conn)

	var buf bytes.Buffer
	chunk := make([]byte, receiveChunkSize)

	for {
		msgType, r, err := conn.NextReader()
		if err != nil {
			c.logReadError(err)
			return
		}

		buf.Reset()
		if err := readMessage(r, &buf, chunk); err != nil {
			c.logReadError(err)
			return
		}

		if msgType != websocket.TextMessage {
			c.logDebug("ignoring non-text message", "type", msgType, "bytes", buf.Len())
			continue
		}

		c.framesReceived.Add(1)
		c.processMessage(buf.Bytes())
	}
}

// readMessage accumulates r into buf until the end of the message.
func readMessage(r io.Reader, buf *bytes.Buffer, chunk []byte) error {
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Client) logReadError(err error) {
	if c.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logInfo("conferencing API connection closed", "reason", err)
		return
	}
	c.logWarn("conferencing API connection lost", "error", err)
}

// handleClosed tears down a connection whose receive loop has ended.
func (c *Client) handleClosed(conn *websocket.Conn) {
	c.transition(StateOpen, StateClosing)
	conn.Close()

	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()

	c.setState(StateDisconnected)
	c.closed.Emit(struct{}{})
}

// processMessage decodes one message and raises the matching events.
// A bad message is logged and skipped; it never ends the receive loop.
func (c *Client) processMessage(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logError("panic while processing message", "panic", r)
		}
	}()

	var msg *MeetingUpdateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.decodeErrors.Add(1)
		c.logError("failed to decode message", "error", err, "bytes", len(data))
		return
	}
	if msg == nil {
		c.decodeErrors.Add(1)
		c.logError("received empty message")
		return
	}

	if msg.ErrorMessage != "" {
		c.logError("conferencing API reported an error", "error_message", msg.ErrorMessage)
		return
	}

	if msg.TokenRefresh != "" {
		c.logInfo("received refreshed API token")
		c.tokenRefresh.Emit(msg.TokenRefresh)
	}

	switch {
	case msg.isTokenRefreshOnly():
		return
	case msg.isAcknowledgement():
		c.logDebug("action acknowledged", "request_id", msg.RequestID, "response", msg.Response)
		return
	}

	c.current.Store(msg)

	c.updates.Emit(*msg)
}
