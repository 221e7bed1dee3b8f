// Package teams connects to the local websocket API of the Microsoft Teams
// desktop client.
//
// The Client owns one websocket connection, a reconnect timer and a
// receive loop. Inbound frames are decoded into MeetingUpdateMessage
// values and delivered to registered observers; outbound actions
// (toggle mute, camera, hand, blur, leave, reactions) are written as
// single JSON text frames.
//
// # Connection states
//
//	Disconnected -> Connecting -> Open -> Closing -> Disconnected
//	             \-> Disconnected (handshake failed)
//
// The reconnect timer only acts when the client is Disconnected and never
// starts a second attempt while one is in flight.
//
// # Permissions
//
// Toggle actions are gated on the last permissions received. When a
// permission is missing the action is skipped and a fresh meeting status
// is requested instead.
package teams
