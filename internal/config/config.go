package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env          string
		Timezone     string
		Currency     string
		PublicURL    string `mapstructure:"public_url"`
		BusinessName string `mapstructure:"business_name"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr        string
		CORSOrigins []string `mapstructure:"cors_origins"`
		RateLimit   float64  `mapstructure:"rate_limit"`
		RateBurst   int      `mapstructure:"rate_burst"`
	} `mapstructure:"http"`

	Wizard struct {
		SessionTTL    time.Duration `mapstructure:"session_ttl"`
		PurgeInterval time.Duration `mapstructure:"purge_interval"`
	} `mapstructure:"wizard"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	} `mapstructure:"redis"`

	AMQP struct {
		URL      string
		Exchange string
	} `mapstructure:"amqp"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Auth struct {
		JWTSecret         string        `mapstructure:"jwt_secret"`
		TokenTTL          time.Duration `mapstructure:"token_ttl"`
		AdminEmail        string        `mapstructure:"admin_email"`
		AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	} `mapstructure:"auth"`

	Pricing struct {
		MeetingRoomHourRate   int64 `mapstructure:"meeting_room_hour_rate"`
		GuestPassRate         int64 `mapstructure:"guest_pass_rate"`
		OnlineDiscountPercent int64 `mapstructure:"online_discount_percent"`
	} `mapstructure:"pricing"`

	Payments struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"payments"`

	Email struct {
		Endpoint string
		APIKey   string `mapstructure:"api_key"`
		From     string
	} `mapstructure:"email"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Chat struct {
		Endpoint     string
		APIKey       string `mapstructure:"api_key"`
		Model        string
		SystemPrompt string        `mapstructure:"system_prompt"`
		Timeout      time.Duration `mapstructure:"timeout"`
	} `mapstructure:"chat"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Kolkata")
	v.SetDefault("app.currency", "INR")
	v.SetDefault("app.public_url", "http://localhost:8080")
	v.SetDefault("app.business_name", "Cowork")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("http.rate_limit", 1.0)
	v.SetDefault("http.rate_burst", 5)

	v.SetDefault("wizard.session_ttl", 72*time.Hour)
	v.SetDefault("wizard.purge_interval", time.Hour)

	// Keys without a default must still be registered so APP_* variables
	// reach Unmarshal.
	for _, k := range []string{
		"postgres.dsn", "redis.addr", "redis.password", "amqp.url",
		"auth.jwt_secret", "auth.admin_email", "auth.admin_password_hash",
		"payments.base_url", "email.endpoint", "email.api_key", "email.from",
		"telegram.token", "chat.endpoint", "chat.api_key", "chat.system_prompt",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("telegram.admin_chat_id", 0)

	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("amqp.exchange", "cowork.events")
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("pricing.meeting_room_hour_rate", 50000)
	v.SetDefault("pricing.guest_pass_rate", 30000)
	v.SetDefault("pricing.online_discount_percent", 5)

	v.SetDefault("chat.model", "gpt-4o-mini")
	v.SetDefault("chat.timeout", 30*time.Second)
}

// Load reads the YAML file at path (missing file is fine) and overlays APP_*
// environment variables, e.g. APP_POSTGRES_DSN. A .env in the working
// directory is loaded first and never overrides the real environment.
func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Auth.JWTSecret == "" {
		return c, errors.New("config: auth.jwt_secret is required")
	}
	return c, nil
}
