package bridge

import (
	"context"
	"fmt"
	"sort"

	"github.com/lafe/teams2mqtt/internal/discovery"
)

// Commands without a discovery switch. They are reachable through the
// status API only.
const (
	CommandLeaveCall     = "leave_call"
	CommandReactApplause = "react_applause"
	CommandReactLaugh    = "react_laugh"
	CommandReactLike     = "react_like"
	CommandReactLove     = "react_love"
	CommandReactWow      = "react_wow"
	CommandRefresh       = "refresh"
)

// commands maps command ids to upstream actions.
var commands = map[string]func(Upstream, context.Context) error{
	discovery.CommandToggleMute:  Upstream.ToggleMute,
	discovery.CommandToggleVideo: Upstream.ToggleVideo,
	discovery.CommandToggleHand:  Upstream.ToggleRaisedHand,
	discovery.CommandToggleBlur:  Upstream.ToggleBackgroundBlur,
	CommandLeaveCall:             Upstream.LeaveCall,
	CommandReactApplause:         Upstream.ReactApplause,
	CommandReactLaugh:            Upstream.ReactLaugh,
	CommandReactLike:             Upstream.ReactLike,
	CommandReactLove:             Upstream.ReactLove,
	CommandReactWow:              Upstream.ReactWow,
	CommandRefresh:               Upstream.RequestMeetingStatus,
}

// Commands returns every command id Execute accepts, sorted.
func Commands() []string {
	ids := make([]string, 0, len(commands))
	for id := range commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute runs the upstream action registered for commandID.
func (b *Bridge) Execute(ctx context.Context, commandID string) error {
	action, ok := commands[commandID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, commandID)
	}
	return action(b.upstream, ctx)
}
