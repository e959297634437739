package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// TextCache keeps extracted document text in Redis so the orchestrator does
// not pull full texts from MySQL on every generation of the same tender.
type TextCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTextCache(client *redisv9.Client, ttl time.Duration) *TextCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TextCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *TextCache) GetText(ctx context.Context, documentID uint) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.textKey(documentID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get text failed: %w", err)
	}
	return raw, true, nil
}

func (c *TextCache) SetText(ctx context.Context, documentID uint, text string) error {
	if err := c.client.Set(ctx, c.textKey(documentID), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set text failed: %w", err)
	}
	return nil
}

func (c *TextCache) DeleteText(ctx context.Context, documentID uint) error {
	if err := c.client.Del(ctx, c.textKey(documentID)).Err(); err != nil {
		return fmt.Errorf("redis delete text failed: %w", err)
	}
	return nil
}

func (c *TextCache) textKey(documentID uint) string {
	return fmt.Sprintf("document:text:%d", documentID)
}
