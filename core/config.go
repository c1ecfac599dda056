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

var Conf *Config

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string
	Build    string

	Server struct {
		Host string
		Addr string
	}

	Database DatabaseConfig

	FrontendBaseURL  string
	DefaultFromEmail mail.Address
	SendgridApiKey   string
	RollbarToken     string

	// how long a signing link stays valid after creation
	SigningExpirationDelta time.Duration

	// public signing endpoints rate limit (requests per window, per client IP)
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type DatabaseConfig struct {
	Engine        string
	Host          string
	Port          string
	Name          string
	User          string
	Password      string
	AdminUser     string
	AdminPassword string
	DisableTLS    bool
}

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Sahihi")
	v.SetDefault("build", "dev")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("signingExpirationDelta", 14*24*time.Hour)
	v.SetDefault("rateLimitRequests", 30)
	v.SetDefault("rateLimitWindow", time.Minute)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "sahihi")
	v.SetDefault("dbUser", "postgres")
	v.SetDefault("dbDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
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

	Conf = &Config{
		Env:                    env,
		Debug:                  v.GetBool("debug"),
		TestMode:               v.GetBool("testMode"),
		AppName:                v.GetString("appName"),
		Build:                  v.GetString("build"),
		FrontendBaseURL:        v.GetString("frontendBaseURL"),
		DefaultFromEmail:       mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:         v.GetString("sendgridApiKey"),
		RollbarToken:           v.GetString("rollbarToken"),
		SigningExpirationDelta: v.GetDuration("signingExpirationDelta"),
		RateLimitRequests:      v.GetInt("rateLimitRequests"),
		RateLimitWindow:        v.GetDuration("rateLimitWindow"),
	}
	Conf.Server.Host = v.GetString("serverHost")
	Conf.Server.Addr = v.GetString("serverAddr")
	Conf.Database.Engine = v.GetString("dbEngine")
	Conf.Database.Host = v.GetString("dbHost")
	Conf.Database.Port = v.GetString("dbPort")
	Conf.Database.Name = v.GetString("dbName")
	Conf.Database.User = v.GetString("dbUser")
	Conf.Database.Password = v.GetString("dbPassword")
	Conf.Database.AdminUser = v.GetString("dbAdminUser")
	Conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	Conf.Database.DisableTLS = v.GetBool("dbDisableTLS")
}
