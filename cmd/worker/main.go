package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"guestlist/internal/attendance"
	"guestlist/internal/config"
	"guestlist/internal/metrics"
	"guestlist/internal/queue"
	"guestlist/internal/store"
)

// Worker consumes check-in messages and refreshes the cached per-event
// summary so summaryOnly reads are served hot.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "guestlist:checkins")
	}

	repo := attendance.NewRepository(db.Client)
	cache := attendance.NewSummaryCache(redisClient.Client, cfg.SummaryCacheTTL)
	svc := attendance.NewService(repo, cache, metrics.New())

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		eventID := string(msg.Body)
		summary, err := svc.RefreshSummary(ctx, eventID)
		if err != nil {
			log.Printf("summary refresh for event %s failed: %v", eventID, err)
			continue
		}
		log.Printf("event %s: %d present (%d people), %d absent",
			eventID, summary.UniquePresent, summary.TotalPresentPeople, summary.TotalAbsent)
	}

	log.Println("worker stopped")
}
