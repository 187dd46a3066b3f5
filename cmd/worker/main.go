package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes mark events and keeps the redis subject index current, so
// the admin filter dropdown never needs a full ledger scan on the hot path.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	subjects := store.NewSubjectIndex(redisClient.Client, "")

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:marks")
	}

	// Seed the index from the ledger so a fresh redis starts complete.
	repo := attendance.NewRepository(db.Client)
	if known, err := repo.DistinctSubjects(ctx); err != nil {
		log.Printf("WARNING: subject index seed failed: %v", err)
	} else if err := subjects.Rebuild(ctx, known); err != nil {
		log.Printf("WARNING: subject index rebuild failed: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "mark" {
			continue
		}

		subject := string(msg.Body)
		if err := subjects.Add(ctx, subject); err != nil {
			log.Printf("subject index add %q failed: %v", subject, err)
			continue
		}
		log.Printf("subject %q indexed", subject)
	}

	log.Println("worker stopped")
}
