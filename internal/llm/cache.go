package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingCompleter memoizes completions of identical requests in a bounded LRU.
type CachingCompleter struct {
	next   Completer
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

func NewCachingCompleter(next Completer, size int, logger *slog.Logger) (*CachingCompleter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("completion cache: %w", err)
	}
	return &CachingCompleter{next: next, cache: c, logger: logger}, nil
}

func (c *CachingCompleter) Name() string { return c.next.Name() }

func (c *CachingCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	key := requestKey(req)
	if out, ok := c.cache.Get(key); ok {
		c.logger.Debug("llm.cache.hit", "provider", c.next.Name(), "key", key[:12])
		return out, nil
	}
	out, err := c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

// Len reports the number of cached completions.
func (c *CachingCompleter) Len() int { return c.cache.Len() }

func requestKey(req CompletionRequest) string {
	h := sha256.New()
	var n [8]byte
	for _, s := range []string{req.System, req.User} {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	binary.BigEndian.PutUint64(n[:], uint64(req.MaxTokens))
	h.Write(n[:])
	binary.BigEndian.PutUint32(n[:4], math.Float32bits(req.Temperature))
	h.Write(n[:4])
	return hex.EncodeToString(h.Sum(nil))
}
