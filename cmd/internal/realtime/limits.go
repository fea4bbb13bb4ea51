package realtime

import "time"

const (
	// Max bytes per websocket frame read (hard limit). Clients only send control traffic.
	maxFrameBytes = 4 << 10 // 4 KiB

	defaultSendQueueSize = 64
	minSendQueueSize     = 8

	defaultWriteTimeout = 5 * time.Second
	defaultReadIdle     = 2 * time.Minute
	closeGrace          = 1 * time.Second

	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second
	maxPingFailures   = 3

	// Per-connection inbound limits (frames per window).
	rateLimitEvents = 30
	rateLimitWindow = 10 * time.Second
)
