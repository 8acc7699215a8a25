package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SubmissionGuard remembers recent suggestion submissions per source so the
// same text from the same IP is accepted once per window.
type SubmissionGuard struct {
	redis  *RedisClient
	window time.Duration
}

// NewSubmissionGuard creates a SubmissionGuard.
func NewSubmissionGuard(redis *RedisClient, window time.Duration) *SubmissionGuard {
	return &SubmissionGuard{redis: redis, window: window}
}

func (g *SubmissionGuard) key(ip, text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return fmt.Sprintf("suggestion:recent:%s:%s", ip, hex.EncodeToString(sum[:8]))
}

// Claim marks the (ip, text) pair as submitted. It returns false when the pair
// was already claimed inside the window.
func (g *SubmissionGuard) Claim(ctx context.Context, ip, text string) (bool, error) {
	return g.redis.SetNX(ctx, g.key(ip, text), "1", g.window)
}

// Release forgets a claim, used when the insert that followed it failed.
func (g *SubmissionGuard) Release(ctx context.Context, ip, text string) error {
	return g.redis.Delete(ctx, g.key(ip, text))
}
