package websocket

import (
	"time"

	"schoolpulse/internal/config"
)

func configWith(pongWait, pingPeriod time.Duration) config.WebSocketConfig {
	return config.WebSocketConfig{PongWait: pongWait, PingPeriod: pingPeriod}
}
