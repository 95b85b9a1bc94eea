package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SQLiteConfig struct {
	Path string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	Region       string
	PublicBase   string
	UploadURLTTL time.Duration
}

type FarcasterConfig struct {
	HubBaseURL  string
	VerifierURL string
	Domain      string
	HTTPTimeout time.Duration
}

type AuthConfig struct {
	SessionTTL   time.Duration
	NonceTTL     time.Duration
	CookieDomain string
}

type PreviewConfig struct {
	MapboxBaseURL string
	MapboxToken   string
	MapStyle      string
	MapSize       int
	MapZoom       int
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	SQLite           SQLiteConfig
	Storage          StorageConfig
	Farcaster        FarcasterConfig
	Auth             AuthConfig
	Preview          PreviewConfig
	FrameBaseURL     string
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("FARMAP")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3001)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("sqlite.path", "farmap.db")

	v.SetDefault("storage.bucket", "farmap-attachments")
	v.SetDefault("storage.usessl", true)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.uploadurlttl", "10m")

	v.SetDefault("farcaster.hubbaseurl", "https://hub.pinata.cloud")
	v.SetDefault("farcaster.httptimeout", "10s")

	v.SetDefault("auth.sessionttl", "24h")
	v.SetDefault("auth.noncettl", "5m")

	v.SetDefault("preview.mapboxbaseurl", "https://api.mapbox.com")
	v.SetDefault("preview.mapstyle", "mapbox/streets-v11")
	v.SetDefault("preview.mapsize", 280)
	v.SetDefault("preview.mapzoom", 14)

	v.SetDefault("framebaseurl", "https://farmap.vercel.app")
}
