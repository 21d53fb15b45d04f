package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const version = "1.0.0"

type config struct {
	port int
	env  string
	db   struct {
		dsn                string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	jwt struct {
		secret     string
		accessTTL  time.Duration
		refreshTTL time.Duration
	}
	pageSize int
	throttle struct {
		userRate int
		anonRate int
		window   time.Duration
	}
	limiter struct {
		maxRequestPerSecond float64
		burst               int
		enabled             bool
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	cors struct {
		trustedOrigins []string
	}
}

type application struct {
	config   config
	store    store
	throttle *throttler
	mailer   *mailer
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var cfg config
	flag.IntVar(&cfg.port, "port", 3000, "Server Port")
	flag.StringVar(&cfg.env, "env", "development", "Environment [development|production]")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	flag.StringVar(&cfg.jwt.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "JWT secret")
	flag.DurationVar(&cfg.jwt.accessTTL, "jwt-access-ttl", 15*time.Minute, "Access token lifetime")
	flag.DurationVar(&cfg.jwt.refreshTTL, "jwt-refresh-ttl", 24*time.Hour, "Refresh token lifetime")

	flag.IntVar(&cfg.pageSize, "page-size", 5, "Task list page size")

	flag.IntVar(&cfg.throttle.userRate, "throttle-user-rate", 20, "Requests per window for an authenticated user")
	flag.IntVar(&cfg.throttle.anonRate, "throttle-anon-rate", 20, "Requests per window for an anonymous origin")
	flag.DurationVar(&cfg.throttle.window, "throttle-window", time.Minute, "Throttle window length")

	flag.Float64Var(&cfg.limiter.maxRequestPerSecond, "limiter-rps", 10, "Global limiter max requests per second per IP")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 20, "Global limiter burst size per IP")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable the global per-IP limiter")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	smtpPort := 25
	if p := os.Getenv("SMTP_PORT"); p != "" {
		var err error
		smtpPort, err = strconv.Atoi(p)
		if err != nil {
			log.Fatal(err)
		}
	}
	flag.IntVar(&cfg.smtp.port, "smtp-port", smtpPort, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", os.Getenv("SMTP_SENDER"), "SMTP sender")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(s string) error {
		cfg.cors.trustedOrigins = strings.Fields(s)
		return nil
	})
	flag.Parse()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("established a connection with database")

	if cfg.jwt.secret == "" {
		secret := make([]byte, 32)
		_, err = rand.Read(secret[:])
		if err != nil {
			log.Fatal(err)
		}
		cfg.jwt.secret = string(secret)
	}

	app := &application{
		config: cfg,
		store:  newStorage(db),
		throttle: newThrottler(cfg.throttle.window, map[string]int{
			throttleBucketUser: cfg.throttle.userRate,
			throttleBucketAnon: cfg.throttle.anonRate,
		}),
	}
	if cfg.smtp.host != "" {
		app.mailer = newMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("Starting %s server on port %d\n", cfg.env, cfg.port)
	err = srv.ListenAndServe()
	log.Fatal(err)
}
