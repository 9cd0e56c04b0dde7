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
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Store    StoreConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Blob     BlobConfig
		Reminder ReminderConfig
		Portal   PortalConfig
		Client   ClientConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRatePerSecond        float64
		LoginBurst                int
	}

	StoreConfig struct {
		Driver         string // memory | file | postgres | redis
		Dir            string
		PersistTimeout time.Duration
	}

	DatabaseConfig struct {
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

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	BlobConfig struct {
		Driver      string // inline | memory | s3
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3PathStyle bool
	}

	ReminderConfig struct {
		Schedule string
	}

	// PortalConfig holds the bootstrap office account.
	PortalConfig struct {
		AdminEmail    string
		AdminPassword string
		AdminName     string
	}

	ClientConfig struct {
		BaseURL string
		Timeout time.Duration
	}
)

func (dbConf DatabaseConfig) Address() string {
	if dbConf.Port == "" {
		return dbConf.Host
	}
	return dbConf.Host + ":" + dbConf.Port
}

// NewConfig reads the configuration of the current ENV from defaults, config/.env.<env> and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Internship Portal")
	v.SetDefault("secretKey", "r8x!2m-tq$9lk=vb&u0h)e7#wn4(c_za5pf^y1gsd@3oj6")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("defaultFromEmail", "Internship Office <noreply@cuisahiwal.edu.pk>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.loginRatePerSecond", 1.0)
	v.SetDefault("server.loginBurst", 5)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.persistTimeout", 3*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "internship")
	v.SetDefault("database.user", "internship")
	v.SetDefault("database.password", "internship")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "internship:")

	v.SetDefault("blob.driver", "inline")
	v.SetDefault("blob.s3Bucket", "")
	v.SetDefault("blob.s3Region", "us-east-1")
	v.SetDefault("blob.s3Endpoint", "")
	v.SetDefault("blob.s3PathStyle", false)

	v.SetDefault("reminder.schedule", "0 8 * * MON")

	v.SetDefault("portal.adminEmail", "office@cuisahiwal.edu.pk")
	v.SetDefault("portal.adminPassword", "admin123")
	v.SetDefault("portal.adminName", "Internship Office")

	v.SetDefault("client.baseURL", "http://localhost:8000")
	v.SetDefault("client.timeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		WorkDir:                   workDir,
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail:          *from,
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			LoginRatePerSecond:        v.GetFloat64("server.loginRatePerSecond"),
			LoginBurst:                v.GetInt("server.loginBurst"),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(v.GetString("store.driver")),
			Dir:            v.GetString("store.dir"),
			PersistTimeout: v.GetDuration("store.persistTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Blob: BlobConfig{
			Driver:      strings.ToLower(v.GetString("blob.driver")),
			S3Bucket:    v.GetString("blob.s3Bucket"),
			S3Region:    v.GetString("blob.s3Region"),
			S3Endpoint:  v.GetString("blob.s3Endpoint"),
			S3PathStyle: v.GetBool("blob.s3PathStyle"),
		},
		Reminder: ReminderConfig{
			Schedule: v.GetString("reminder.schedule"),
		},
		Portal: PortalConfig{
			AdminEmail:    v.GetString("portal.adminEmail"),
			AdminPassword: v.GetString("portal.adminPassword"),
			AdminName:     v.GetString("portal.adminName"),
		},
		Client: ClientConfig{
			BaseURL: v.GetString("client.baseURL"),
			Timeout: v.GetDuration("client.timeout"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests; it never touches the environment.
func NewTestConfig() *Config {
	from := mail.Address{Name: "Internship Office", Address: "noreply@test.local"}
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Internship Portal",
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://localhost:4200",
		DefaultFromEmail:          from,
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: ServerConfig{
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			LoginRatePerSecond:        100,
			LoginBurst:                100,
		},
		Store:  StoreConfig{Driver: "memory", PersistTimeout: time.Second},
		Blob:   BlobConfig{Driver: "inline"},
		Portal: PortalConfig{AdminEmail: "office@cuisahiwal.edu.pk", AdminPassword: "admin123", AdminName: "Internship Office"},
		Client: ClientConfig{Timeout: 5 * time.Second},
	}
}
