package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS contents (
	key        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// Cache 用 sqlite 缓存上游 Provider 的内容，键为 "<来源>|<路径>"
type Cache struct {
	db    *sql.DB
	inner Provider
	scope string
	ttl   time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCache 打开（或创建）path 处的缓存库；path 为 ":memory:" 时仅驻留内存
func NewCache(path string, inner Provider) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// sqlite 单写者
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	scope := ""
	if k, ok := inner.(Keyed); ok {
		scope = k.Key()
	}
	return &Cache{db: db, inner: inner, scope: scope, log: zap.NewNop()}, nil
}

// WithTTL 设置缓存有效期，0 表示永不过期
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	c.ttl = ttl
	return c
}

func (c *Cache) WithLogger(logger *zap.Logger) *Cache {
	if logger != nil {
		c.log = logger
	}
	return c
}

// Fetch 先查缓存，未命中或过期时读取上游并写回；写回失败只记录日志，不影响返回的内容
func (c *Cache) Fetch(ctx context.Context, ref FileRef) ([]byte, error) {
	key := c.scope + "|" + ref.Path

	var body []byte
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx, `SELECT body, fetched_at FROM contents WHERE key = ?`, key).Scan(&body, &fetchedAt)
	switch {
	case err == nil && !c.expired(fetchedAt):
		c.count(true)
		return body, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("query cache: %w", err)
	}

	c.count(false)
	body, err = c.inner.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO contents (key, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, time.Now().Unix()); err != nil {
		c.log.Warn("store cache failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}

func (c *Cache) Key() string {
	return c.scope
}

// Stats 返回命中与未命中次数
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Purge 清空缓存
func (c *Cache) Purge(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM contents`)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) expired(fetchedAt int64) bool {
	if c.ttl <= 0 {
		return false
	}
	return time.Since(time.Unix(fetchedAt, 0)) > c.ttl
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
