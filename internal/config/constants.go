package config

import (
	"time"

	"schoolpulse/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "schoolpulse"
	AppVersion = contracts.Version
	EnvPrefix  = "SCHOOLPULSE"

	// Dataset defaults
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultExportsDir   = "exports"
	DefaultEncoding     = EncodingAuto
	DefaultDebounce     = 500 * time.Millisecond
	SourceFilePattern   = "%d_tokyo_high_school_Entrance_examination_application_status.csv"
	MaxRegionNameLength = 64

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
	WebSocketWriteWait  = 10 * time.Second
)

// Supported source encodings
const (
	EncodingAuto     = "auto"
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// DefaultYears are the admission years published by the Tokyo bureau of education
// that the dashboard ships with. Adding a year means adding a source here or in
// the dataset.sources config section.
var DefaultYears = []int{2022, 2023, 2024}
