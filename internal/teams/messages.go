package teams

// MeetingState is a snapshot of the local user's meeting state.
// Each update replaces the previous snapshot wholesale.
type MeetingState struct {
	IsMuted             bool `json:"isMuted"`
	IsCameraOn          bool `json:"isCameraOn"`
	IsHandRaised        bool `json:"isHandRaised"`
	IsInMeeting         bool `json:"isInMeeting"`
	IsRecordingOn       bool `json:"isRecordingOn"`
	IsBackgroundBlurred bool `json:"isBackgroundBlurred"`
	IsSharing           bool `json:"isSharing"`
	HasUnreadMessages   bool `json:"hasUnreadMessages"`
}

// MeetingPermissions lists which actions the API currently accepts.
type MeetingPermissions struct {
	CanToggleMute      bool `json:"canToggleMute"`
	CanToggleVideo     bool `json:"canToggleVideo"`
	CanToggleHand      bool `json:"canToggleHand"`
	CanToggleBlur      bool `json:"canToggleBlur"`
	CanToggleRecord    bool `json:"canToggleRecord"`
	CanLeave           bool `json:"canLeave"`
	CanReact           bool `json:"canReact"`
	CanToggleShareTray bool `json:"canToggleShareTray"`
	CanToggleChat      bool `json:"canToggleChat"`
	CanStopSharing     bool `json:"canStopSharing"`
	CanPair            bool `json:"canPair"`
}

// MeetingUpdate carries the state and permission halves of an update.
// Either half may be absent.
type MeetingUpdate struct {
	MeetingState       *MeetingState       `json:"meetingState,omitempty"`
	MeetingPermissions *MeetingPermissions `json:"meetingPermissions,omitempty"`
}

// MeetingUpdateMessage is the envelope of every inbound frame.
type MeetingUpdateMessage struct {
	APIVersion    string         `json:"apiVersion,omitempty"`
	MeetingUpdate *MeetingUpdate `json:"meetingUpdate,omitempty"`
	ErrorMessage  string         `json:"errorMsg,omitempty"`
	TokenRefresh  string         `json:"tokenRefresh,omitempty"`

	// RequestID and Response are set when the API acknowledges a command.
	RequestID int64  `json:"requestId,omitempty"`
	Response  string `json:"response,omitempty"`
}

// State returns the meeting state half, if present.
func (m MeetingUpdateMessage) State() (MeetingState, bool) {
	if m.MeetingUpdate == nil || m.MeetingUpdate.MeetingState == nil {
		return MeetingState{}, false
	}
	return *m.MeetingUpdate.MeetingState, true
}

// Permissions returns the permissions half, if present.
func (m MeetingUpdateMessage) Permissions() (MeetingPermissions, bool) {
	if m.MeetingUpdate == nil || m.MeetingUpdate.MeetingPermissions == nil {
		return MeetingPermissions{}, false
	}
	return *m.MeetingUpdate.MeetingPermissions, true
}

// isAcknowledgement reports whether the message only echoes a command.
func (m MeetingUpdateMessage) isAcknowledgement() bool {
	return m.MeetingUpdate == nil && m.Response != ""
}

// isTokenRefreshOnly reports whether the message only carries a new token.
func (m MeetingUpdateMessage) isTokenRefreshOnly() bool {
	return m.MeetingUpdate == nil && m.TokenRefresh != ""
}
