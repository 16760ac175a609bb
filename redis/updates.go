package redis

import (
	"context"
	"strconv"
	"time"

	apperrors "github.com/kbukum/voicebrief/errors"
)

// UpdateLog records handled Telegram update IDs in Redis.
// It satisfies voicebot.UpdateLog.
type UpdateLog struct {
	client *Client
	ttl    time.Duration
}

// NewUpdateLog keeps each update ID for ttl.
func NewUpdateLog(client *Client, ttl time.Duration) *UpdateLog {
	return &UpdateLog{client: client, ttl: ttl}
}

// MarkSeen records updateID and reports whether this call recorded it first.
func (u *UpdateLog) MarkSeen(ctx context.Context, updateID int64) (bool, error) {
	key := u.client.Key("update:" + strconv.FormatInt(updateID, 10))
	first, err := u.client.SetNX(ctx, key, time.Now().Unix(), u.ttl)
	if err != nil {
		return false, apperrors.ExternalServiceError("redis", err)
	}
	return first, nil
}
