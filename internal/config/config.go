package config

import "time"

const (
	// Refresh decision
	BlockMeters      = 250.0 // Large-refresh threshold per unit of block-size
	DefaultBlockSize = 1.0

	// Notifications
	DefaultNotificationDistance = 100.0 // Meters, 0 disables notifications
	NotificationBadge           = "./images/badge.png"
	NotificationIcon            = "./images/icons/icon-512-512.png"

	// Location sampling
	DefaultUpdateInterval = 0 // Seconds: 0=continuous, >0=poll, <0=replay
	DefaultBaudRate       = 9600
	MaxHighAccuracyHDOP   = 2.0 // Fixes with worse HDOP are dropped in high-accuracy mode
	SimStepInterval       = 2 * time.Second
	SimStepMeters         = 40.0

	// Replay coordinate (Utrecht), see location.ReplayCoordinate
	ReplayLatitude  = 52.0880131
	ReplayLongitude = 5.1273913
	ReplayHeading   = 314.0

	// Message log
	MessageBuffer = 50

	// Remote
	DefaultDataURL = "https://labs.example.org/data"

	// Display
	TargetFPS      = 4
	AspectRatio    = 0.5   // Terminal cell height/width ratio
	RingCount      = 4     // Range rings on the radar
	SweepSpeedRPM  = 20    // Sweep rotations per minute
	SweepTrailDeg  = 45.0  // Sweep glow trail length
	MinRadarRange  = 100.0 // Meters
	BannerCapacity = 5     // Recent notifications kept for the banner

	// App
	AppName    = "LAB-RADAR"
	AppVersion = "1.0"
)

// VibratePattern is attached to every proximity notification.
var VibratePattern = []int{100, 200, 100, 100, 200, 100, 100, 200, 100, 100, 200, 100}
