package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bodima/config"
	"bodima/models"
	"bodima/services/reservation"
	"bodima/services/support"
	"bodima/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitFlowWorker runs the async worker in background. It sweeps abandoned
// drafts and routes confirmation incidents to the support log.
func InitFlowWorker(flowSvc reservation.FlowService, incidents *support.IncidentLog) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDraftExpire, handleDraftExpireTask(flowSvc))
	mux.HandleFunc(tasks.TypeConfirmAlert, handleConfirmAlertTask(incidents))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[FlowWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[FlowWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[FlowWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleDraftExpireTask(flowSvc reservation.FlowService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.DraftExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[DraftExpire] invalid payload: %v", err)
			return err
		}

		if flowSvc.Expire(ctx, p.SessionID, p.StartedAt) {
			log.Printf("[DraftExpire] cleared abandoned draft for session %s", p.SessionID)
		}
		return nil
	}
}

func handleConfirmAlertTask(incidents *support.IncidentLog) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var inc models.ConfirmIncident
		if err := json.Unmarshal(task.Payload(), &inc); err != nil {
			log.Printf("[ConfirmAlert] invalid payload: %v", err)
			return err
		}

		log.Printf("[ConfirmAlert] payment %s completed but reservation %s unconfirmed: %s",
			inc.PaymentID, inc.ReservationID, inc.Reason)
		return incidents.Record(ctx, inc)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[FlowWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
