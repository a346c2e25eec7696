package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lab-radar.klederson.com/internal/config"
)

// Setting keys. Flags use the same names; environment variables use the
// LABRADAR_ prefix with dashes replaced by underscores.
const (
	KeyUpdateInterval       = "update-interval"
	KeyHighAccuracy         = "high-accuracy"
	KeyBlockSize            = "block-size"
	KeyNotificationDistance = "notification-distance"
	KeyDataURL              = "data-url"
	KeyHideAnswered         = "hide-answered"
	KeyStore                = "store"
	KeyLogLevel             = "log-level"
)

// Settings is the read-mostly settings store consumed by the engine.
type Settings struct {
	v *viper.Viper
}

// Load resolves settings from flags, environment (.env included), an optional
// config file and defaults, in that order of precedence.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LABRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	return &Settings{v: v}, nil
}

// Defaults returns settings holding only default values.
func Defaults() *Settings {
	v := viper.New()
	setDefaults(v)
	return &Settings{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyUpdateInterval, config.DefaultUpdateInterval)
	v.SetDefault(KeyHighAccuracy, false)
	v.SetDefault(KeyBlockSize, config.DefaultBlockSize)
	v.SetDefault(KeyNotificationDistance, config.DefaultNotificationDistance)
	v.SetDefault(KeyDataURL, config.DefaultDataURL)
	v.SetDefault(KeyHideAnswered, false)
	v.SetDefault(KeyStore, "sqlite://lab-radar.db")
	v.SetDefault(KeyLogLevel, "INFO")
}

// Get returns the raw value for key.
func (s *Settings) Get(key string) any { return s.v.Get(key) }

// Set overrides key for the rest of the process.
func (s *Settings) Set(key string, value any) { s.v.Set(key, value) }

// UpdateInterval is in seconds: 0 continuous, >0 poll, <0 replay.
func (s *Settings) UpdateInterval() int { return s.v.GetInt(KeyUpdateInterval) }

func (s *Settings) HighAccuracy() bool { return s.v.GetBool(KeyHighAccuracy) }

// BlockSize scales the large-refresh threshold; only its magnitude matters.
func (s *Settings) BlockSize() float64 { return s.v.GetFloat64(KeyBlockSize) }

// NotificationDistance is in meters; 0 disables notifications.
func (s *Settings) NotificationDistance() float64 { return s.v.GetFloat64(KeyNotificationDistance) }

func (s *Settings) DataURL() string { return s.v.GetString(KeyDataURL) }

func (s *Settings) HideAnswered() bool { return s.v.GetBool(KeyHideAnswered) }

func (s *Settings) StoreDSN() string { return s.v.GetString(KeyStore) }

func (s *Settings) LogLevel() string { return strings.ToUpper(s.v.GetString(KeyLogLevel)) }
