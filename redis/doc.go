// Package redis wraps go-redis for the service: a pooled client, a
// lifecycle component with health checks, and an update log that records
// handled Telegram update IDs with SET NX so redelivered webhooks are
// processed once across instances.
//
//	client, err := redis.New(cfg, log)
//	updates := redis.NewUpdateLog(client, 24*time.Hour)
//	first, err := updates.MarkSeen(ctx, update.UpdateID)
package redis
