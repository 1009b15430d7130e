package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	App
	PostgreSQL
	Redis
	Workers
	Lookup
	HTTP
}

type App struct {
	MinDNILength     int
	PurgeGracePeriod time.Duration
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// Redis selects the queue backend: an empty Addr runs the in-process queue,
// anything else connects to Redis.
type Redis struct {
	Addr     string
	Password string
}

type Workers struct {
	DequeueTimeout   time.Duration
	IdleWait         time.Duration
	ReconnectBackoff time.Duration
}

type Lookup struct {
	UniversityURL string
	InstituteURL  string
	RetryAttempts int
	RetryDelay    time.Duration
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		App: App{
			MinDNILength:     int(cmd.Int("min-dni-length")),
			PurgeGracePeriod: cmd.Duration("purge-grace-period"),
		},
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		Redis: Redis{
			Addr:     cmd.String("redis-addr"),
			Password: cmd.String("redis-password"),
		},
		Workers: Workers{
			DequeueTimeout:   cmd.Duration("dequeue-timeout"),
			IdleWait:         cmd.Duration("idle-wait"),
			ReconnectBackoff: cmd.Duration("reconnect-backoff"),
		},
		Lookup: Lookup{
			UniversityURL: cmd.String("university-url"),
			InstituteURL:  cmd.String("institute-url"),
			RetryAttempts: int(cmd.Int("lookup-retry-attempts")),
			RetryDelay:    cmd.Duration("lookup-retry-delay"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}
