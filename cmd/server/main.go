package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"dreamacademy/labtrack/internal/config"
	"dreamacademy/labtrack/internal/db"
	internalhttp "dreamacademy/labtrack/internal/http"
	"dreamacademy/labtrack/internal/jobs"
	"dreamacademy/labtrack/internal/mail"
	"dreamacademy/labtrack/internal/otp"
	"dreamacademy/labtrack/internal/repository"
	"dreamacademy/labtrack/internal/session"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	sessions := session.NewService(store, cfg.Location())

	var otpStore otp.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		otpStore = otp.NewRedisStore(redisClient, cfg.OTPTTL)
	} else {
		log.Printf("redis not configured, using in-process otp store")
		otpStore = otp.NewMemoryStore(cfg.OTPTTL)
	}

	var mailer internalhttp.OTPMailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName)
	} else {
		log.Printf("smtp not configured, otp codes will be logged")
	}

	server := internalhttp.NewServer(cfg, store, sessions, otpStore, mailer)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartMidnightSweep(ctx, cfg.SweepInterval, cfg.Location(), sessions)

	go func() {
		log.Printf("labtrack http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
