package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		Host            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		Store              string // cookie (default), postgres, redis
		CookieName         string
		MaxAge             time.Duration
		ProfileTTL         time.Duration
		InstallSuppression time.Duration
		Secure             bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		RollbarToken     string
		SendgridApiKey   string
		LogLevel         string
		WorkDir          string

		Server   ServerConfig
		API      APIConfig
		Session  SessionConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) DefaultFrom() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

func setDefaults(conf *viper.Viper) {
	conf.SetTypeByDefaultValue(true)

	conf.SetDefault("appName", "Fellowship Kids")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:8000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("logLevel", "info")

	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 10*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("api.baseURL", "http://localhost:5000/api")
	conf.SetDefault("api.timeout", 15*time.Second)

	conf.SetDefault("session.store", "cookie")
	conf.SetDefault("session.cookieName", "fellowship_session")
	conf.SetDefault("session.maxAge", 7*24*time.Hour)
	conf.SetDefault("session.profileTTL", 5*time.Minute)
	conf.SetDefault("session.installSuppression", 24*time.Hour)
	conf.SetDefault("session.secure", false)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "fellowship")
	conf.SetDefault("database.user", "fellowship")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("redis.address", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
// Values come from, by increasing priority: defaults, config/.env.<env>, <ENV>_* environment variables.
func NewConfig() *Config {
	conf := viper.New()
	setDefaults(conf)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	case "QA", "PROD":
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	cfg := new(Config)
	if err := conf.Unmarshal(cfg); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "config.Unmarshal"))
	}
	cfg.Env = env
	cfg.WorkDir = wd
	return cfg
}
