// Package realtime streams a user's micropost events over WebSocket.
//
// The Hub fans micropost.created and micropost.deleted events out to every
// connection of the owning user. The FeedGateway authenticates the upgrade
// request with the remember_token cookie and runs one writer, one heartbeat
// and one read loop per connection.
package realtime
