package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Build            string
		Env              string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Cache    CacheConfig
		Payment  PaymentConfig
		Media    MediaConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine         string // mongodb | memory
		URI            string
		Name           string
		ConnectTimeout time.Duration
	}

	CacheConfig struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}

	PaymentConfig struct {
		BaseURL      string
		ClientID     string
		ClientSecret string
		Currency     string
		ReturnURL    string
		CancelURL    string
		Timeout      time.Duration
	}

	MediaConfig struct {
		Driver          string // gcs | local
		Bucket          string
		PublicBaseURL   string
		LocalDir        string
		CredentialsFile string
		MaxUploadSize   int64
	}
)

// Address returns the API server's listen address.
func (c ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Elimu")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k3#9vq-tnl@o1x$8w=up+67me2zd!j(4hc^5rbg0s)ya*f")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverReadTimeout", 5*time.Second)
	v.SetDefault("serverWriteTimeout", 30*time.Second)
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 120*time.Minute)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("dbEngine", "mongodb")
	v.SetDefault("dbURI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("dbName", "elimu")
	v.SetDefault("dbConnectTimeout", 10*time.Second)

	v.SetDefault("cacheEnabled", false)
	v.SetDefault("cacheAddr", "localhost:6379")
	v.SetDefault("cachePassword", "")
	v.SetDefault("cacheDB", 0)
	v.SetDefault("cacheTTL", 10*time.Minute)

	v.SetDefault("paypalBaseURL", "https://api-m.sandbox.paypal.com")
	v.SetDefault("paypalClientID", "")
	v.SetDefault("paypalClientSecret", "")
	v.SetDefault("paymentCurrency", "EUR")
	v.SetDefault("paymentReturnURL", "http://localhost:5173/payment-return")
	v.SetDefault("paymentCancelURL", "http://localhost:5173/payment-cancel")
	v.SetDefault("paymentTimeout", 15*time.Second)

	v.SetDefault("mediaDriver", "local")
	v.SetDefault("mediaBucket", "")
	v.SetDefault("mediaPublicBaseURL", "")
	v.SetDefault("mediaLocalDir", "media")
	v.SetDefault("mediaCredentialsFile", "")
	v.SetDefault("mediaMaxUploadSize", int64(512<<20))

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("dbEngine", "memory")
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()
	return v
}

// NewConfig reads the app configuration from defaults, the optional config/.env.<env> file and the environment.
// Environment variables are prefixed with the uppercased ENV value, e.g. PROD_DBURI.
func NewConfig() *Config {
	v := newViper()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		from = &mail.Address{Address: v.GetString("defaultFromEmail")}
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Env:              v.GetString("env"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: *from,
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		WorkDir:          Getwd(),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ReadTimeout:               v.GetDuration("serverReadTimeout"),
			WriteTimeout:              v.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:         v.GetString("dbEngine"),
			URI:            v.GetString("dbURI"),
			Name:           v.GetString("dbName"),
			ConnectTimeout: v.GetDuration("dbConnectTimeout"),
		},
		Cache: CacheConfig{
			Enabled:  v.GetBool("cacheEnabled"),
			Addr:     v.GetString("cacheAddr"),
			Password: v.GetString("cachePassword"),
			DB:       v.GetInt("cacheDB"),
			TTL:      v.GetDuration("cacheTTL"),
		},
		Payment: PaymentConfig{
			BaseURL:      v.GetString("paypalBaseURL"),
			ClientID:     v.GetString("paypalClientID"),
			ClientSecret: v.GetString("paypalClientSecret"),
			Currency:     v.GetString("paymentCurrency"),
			ReturnURL:    v.GetString("paymentReturnURL"),
			CancelURL:    v.GetString("paymentCancelURL"),
			Timeout:      v.GetDuration("paymentTimeout"),
		},
		Media: MediaConfig{
			Driver:          v.GetString("mediaDriver"),
			Bucket:          v.GetString("mediaBucket"),
			PublicBaseURL:   v.GetString("mediaPublicBaseURL"),
			LocalDir:        v.GetString("mediaLocalDir"),
			CredentialsFile: v.GetString("mediaCredentialsFile"),
			MaxUploadSize:   v.GetInt64("mediaMaxUploadSize"),
		},
	}
}
