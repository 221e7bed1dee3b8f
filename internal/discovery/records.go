package discovery

import (
	"github.com/lafe/teams2mqtt/internal/teams"
)

// Record type names used in topics.
const (
	MeetingStateType       = "MeetingState"
	MeetingPermissionsType = "MeetingPermissions"
)

// Command ids of the switch components.
const (
	CommandToggleMute  = "toggle_mute"
	CommandToggleVideo = "toggle_video"
	CommandToggleHand  = "toggle_hand"
	CommandToggleBlur  = "toggle_blur"
)

var meetingStateFields = []Field[teams.MeetingState]{
	{
		ID: "is_muted", Field: "isMuted", DefaultName: "Muted",
		LocalizationKey: "MeetingState.IsMuted", Icon: "mdi:microphone-off",
		EnabledByDefault: true, CommandID: CommandToggleMute,
		Value: func(s teams.MeetingState) bool { return s.IsMuted },
	},
	{
		ID: "is_camera_on", Field: "isCameraOn", DefaultName: "Camera on",
		LocalizationKey: "MeetingState.IsCameraOn", Icon: "mdi:webcam",
		EnabledByDefault: true, CommandID: CommandToggleVideo,
		Value: func(s teams.MeetingState) bool { return s.IsCameraOn },
	},
	{
		ID: "is_hand_raised", Field: "isHandRaised", DefaultName: "Hand raised",
		LocalizationKey: "MeetingState.IsHandRaised", Icon: "mdi:hand-back-right",
		EnabledByDefault: true, CommandID: CommandToggleHand,
		Value: func(s teams.MeetingState) bool { return s.IsHandRaised },
	},
	{
		ID: "is_in_meeting", Field: "isInMeeting", DefaultName: "In meeting",
		LocalizationKey: "MeetingState.IsInMeeting", Icon: "mdi:account-group",
		EnabledByDefault: true,
		Value:            func(s teams.MeetingState) bool { return s.IsInMeeting },
	},
	{
		ID: "is_recording_on", Field: "isRecordingOn", DefaultName: "Recording",
		LocalizationKey: "MeetingState.IsRecordingOn", Icon: "mdi:record-rec",
		EnabledByDefault: true,
		Value:            func(s teams.MeetingState) bool { return s.IsRecordingOn },
	},
	{
		ID: "is_background_blurred", Field: "isBackgroundBlurred", DefaultName: "Background blurred",
		LocalizationKey: "MeetingState.IsBackgroundBlurred", Icon: "mdi:blur",
		EnabledByDefault: true, CommandID: CommandToggleBlur,
		Value: func(s teams.MeetingState) bool { return s.IsBackgroundBlurred },
	},
	{
		ID: "is_sharing", Field: "isSharing", DefaultName: "Sharing",
		LocalizationKey: "MeetingState.IsSharing", Icon: "mdi:monitor-share",
		EnabledByDefault: true,
		Value:            func(s teams.MeetingState) bool { return s.IsSharing },
	},
	{
		ID: "has_unread_messages", Field: "hasUnreadMessages", DefaultName: "Unread messages",
		LocalizationKey: "MeetingState.HasUnreadMessages", Icon: "mdi:message-badge",
		EnabledByDefault: false,
		Value:            func(s teams.MeetingState) bool { return s.HasUnreadMessages },
	},
}

var meetingPermissionsFields = []Field[teams.MeetingPermissions]{
	{
		ID: "can_toggle_mute", Field: "canToggleMute", DefaultName: "Can toggle mute",
		LocalizationKey: "MeetingPermissions.CanToggleMute", Icon: "mdi:microphone-settings",
		EnabledByDefault: true,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleMute },
	},
	{
		ID: "can_toggle_video", Field: "canToggleVideo", DefaultName: "Can toggle video",
		LocalizationKey: "MeetingPermissions.CanToggleVideo", Icon: "mdi:webcam",
		EnabledByDefault: true,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleVideo },
	},
	{
		ID: "can_toggle_hand", Field: "canToggleHand", DefaultName: "Can raise hand",
		LocalizationKey: "MeetingPermissions.CanToggleHand", Icon: "mdi:hand-back-right",
		EnabledByDefault: true,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleHand },
	},
	{
		ID: "can_toggle_blur", Field: "canToggleBlur", DefaultName: "Can blur background",
		LocalizationKey: "MeetingPermissions.CanToggleBlur", Icon: "mdi:blur",
		EnabledByDefault: true,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleBlur },
	},
	{
		ID: "can_toggle_record", Field: "canToggleRecord", DefaultName: "Can record",
		LocalizationKey: "MeetingPermissions.CanToggleRecord", Icon: "mdi:record-rec",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleRecord },
	},
	{
		ID: "can_leave", Field: "canLeave", DefaultName: "Can leave",
		LocalizationKey: "MeetingPermissions.CanLeave", Icon: "mdi:phone-hangup",
		EnabledByDefault: true,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanLeave },
	},
	{
		ID: "can_react", Field: "canReact", DefaultName: "Can react",
		LocalizationKey: "MeetingPermissions.CanReact", Icon: "mdi:emoticon-happy",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanReact },
	},
	{
		ID: "can_toggle_share_tray", Field: "canToggleShareTray", DefaultName: "Can open share tray",
		LocalizationKey: "MeetingPermissions.CanToggleShareTray", Icon: "mdi:monitor-share",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleShareTray },
	},
	{
		ID: "can_toggle_chat", Field: "canToggleChat", DefaultName: "Can open chat",
		LocalizationKey: "MeetingPermissions.CanToggleChat", Icon: "mdi:chat",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanToggleChat },
	},
	{
		ID: "can_stop_sharing", Field: "canStopSharing", DefaultName: "Can stop sharing",
		LocalizationKey: "MeetingPermissions.CanStopSharing", Icon: "mdi:monitor-off",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanStopSharing },
	},
	{
		ID: "can_pair", Field: "canPair", DefaultName: "Can pair",
		LocalizationKey: "MeetingPermissions.CanPair", Icon: "mdi:link-variant",
		EnabledByDefault: false,
		Value:            func(p teams.MeetingPermissions) bool { return p.CanPair },
	},
}

// NewMeetingStateRecord returns the registry record for teams.MeetingState.
func NewMeetingStateRecord(localizations map[string]string) (*Record[teams.MeetingState], error) {
	return NewRecord(MeetingStateType, meetingStateFields, localizations)
}

// NewMeetingPermissionsRecord returns the registry record for teams.MeetingPermissions.
func NewMeetingPermissionsRecord(localizations map[string]string) (*Record[teams.MeetingPermissions], error) {
	return NewRecord(MeetingPermissionsType, meetingPermissionsFields, localizations)
}
