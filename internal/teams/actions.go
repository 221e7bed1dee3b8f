package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// action is one service/action pair understood by the API.
type action struct {
	service string
	action  string
}

// Actions understood by the API.
var (
	actionQueryMeetingState = action{"query-meeting-state", "query-meeting-state"}
	actionToggleMute        = action{"toggle-mute", "toggle-mute"}
	actionToggleVideo       = action{"toggle-video", "toggle-video"}
	actionToggleHand        = action{"raise-hand", "toggle-hand"}
	actionToggleBlur        = action{"background-blur", "toggle-background-blur"}
	actionLeaveCall         = action{"call", "leave-call"}
	actionReactApplause     = action{"call", "react-applause"}
	actionReactLaugh        = action{"call", "react-laugh"}
	actionReactLike         = action{"call", "react-like"}
	actionReactLove         = action{"call", "react-love"}
	actionReactWow          = action{"call", "react-wow"}
)

// Command is the envelope of every outbound frame.
type Command struct {
	Service      string `json:"service"`
	Action       string `json:"action"`
	Manufacturer string `json:"manufacturer"`
	Device       string `json:"device"`
	Timestamp    int64  `json:"timestamp"`
	RequestID    int64  `json:"requestId"`
}

// RequestSequence hands out strictly increasing request ids.
// The zero value starts at 1 and is safe for concurrent use.
type RequestSequence struct {
	last atomic.Int64
}

// Next returns the next request id.
func (s *RequestSequence) Next() int64 {
	return s.last.Add(1)
}

func (c *Client) newCommand(a action) Command {
	return Command{
		Service:      a.service,
		Action:       a.action,
		Manufacturer: c.opts.Manufacturer,
		Device:       c.opts.Device,
		Timestamp:    time.Now().UnixMilli(),
		RequestID:    c.requests.Next(),
	}
}

// RequestMeetingStatus asks the API for a full meeting state snapshot.
func (c *Client) RequestMeetingStatus(ctx context.Context) error {
	return c.send(ctx, actionQueryMeetingState)
}

// ToggleMute toggles the microphone if the API currently allows it.
func (c *Client) ToggleMute(ctx context.Context) error {
	return c.sendGated(ctx, actionToggleMute, func(p MeetingPermissions) bool { return p.CanToggleMute })
}

// ToggleVideo toggles the camera if the API currently allows it.
func (c *Client) ToggleVideo(ctx context.Context) error {
	return c.sendGated(ctx, actionToggleVideo, func(p MeetingPermissions) bool { return p.CanToggleVideo })
}

// ToggleRaisedHand raises or lowers the hand if the API currently allows it.
func (c *Client) ToggleRaisedHand(ctx context.Context) error {
	return c.sendGated(ctx, actionToggleHand, func(p MeetingPermissions) bool { return p.CanToggleHand })
}

// ToggleBackgroundBlur toggles background blur if the API currently allows it.
func (c *Client) ToggleBackgroundBlur(ctx context.Context) error {
	return c.sendGated(ctx, actionToggleBlur, func(p MeetingPermissions) bool { return p.CanToggleBlur })
}

// LeaveCall leaves the current call.
func (c *Client) LeaveCall(ctx context.Context) error {
	return c.send(ctx, actionLeaveCall)
}

// ReactApplause sends an applause reaction.
func (c *Client) ReactApplause(ctx context.Context) error {
	return c.send(ctx, actionReactApplause)
}

// ReactLaugh sends a laugh reaction.
func (c *Client) ReactLaugh(ctx context.Context) error {
	return c.send(ctx, actionReactLaugh)
}

// ReactLike sends a like reaction.
func (c *Client) ReactLike(ctx context.Context) error {
	return c.send(ctx, actionReactLike)
}

// ReactLove sends a love reaction.
func (c *Client) ReactLove(ctx context.Context) error {
	return c.send(ctx, actionReactLove)
}

// ReactWow sends a wow reaction.
func (c *Client) ReactWow(ctx context.Context) error {
	return c.send(ctx, actionReactWow)
}

// sendGated sends the action only when the cached permissions allow it. Otherwise
// the cached permissions are assumed stale and a status refresh is sent.
func (c *Client) sendGated(ctx context.Context, a action, allowed func(MeetingPermissions) bool) error {
	_, perms := c.Current()
	if perms == nil || !allowed(*perms) {
		c.logWarn("action not permitted, requesting meeting status",
			"service", a.service,
			"action", a.action,
			"permissions_known", perms != nil,
		)
		c.permissionDenials.Add(1)
		return c.RequestMeetingStatus(ctx)
	}
	return c.send(ctx, a)
}

// send writes one command frame. It is a logged no-op when the
// connection is not open.
func (c *Client) send(ctx context.Context, a action) error {
	if c.State() != StateOpen {
		c.logWarn("not connected, skipping action", "service", a.service, "action", a.action)
		return nil
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		c.logWarn("not connected, skipping action", "service", a.service, "action", a.action)
		return nil
	}

	cmd := c.newCommand(a)
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("%w: encoding command: %w", ErrSendFailed, err)
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logError("failed to send action", "action", a.action, "error", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	c.commandsSent.Add(1)
	c.logDebug("action sent", "service", a.service, "action", a.action, "request_id", cmd.RequestID)
	return nil
}
