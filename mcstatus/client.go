// cobblemon-league/mcstatus/client.go
package mcstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	statusEndpoint = "https://api.mcsrvstat.us/2/"
	cacheKeyPrefix = "mcstatus:"

	// Виджеты статуса опрашивают сервер раз в минуту; кэш с тем же TTL
	// сводит внешние запросы к одному в минуту независимо от числа
	// клиентов.
	CacheTTL = 60 * time.Second
)

// Status — декоративный счётчик игроков с витрины; не часть состояния
// лиги.
type Status struct {
	Online  bool   `json:"online"`
	Version string `json:"version,omitempty"`
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
}

// Client проксирует api.mcsrvstat.us c минутным кэшем в Redis.
type Client struct {
	address string
	http    *http.Client
	redis   *redis.Client
}

func NewClient(address string, redisClient *redis.Client) *Client {
	return &Client{
		address: address,
		http:    &http.Client{Timeout: 10 * time.Second},
		redis:   redisClient,
	}
}

// Get возвращает статус из кэша либо запрашивает свежий.
func (c *Client) Get(ctx context.Context) (*Status, error) {
	key := cacheKeyPrefix + c.address

	if cached, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var status Status
		if json.Unmarshal(cached, &status) == nil {
			return &status, nil
		}
	}
	return c.Refresh(ctx)
}

// Refresh безусловно опрашивает внешний сервис и обновляет кэш.
func (c *Client) Refresh(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusEndpoint+c.address, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcsrvstat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mcsrvstat returned status %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode mcsrvstat response: %w", err)
	}

	if raw, err := json.Marshal(&status); err == nil {
		c.redis.Set(ctx, cacheKeyPrefix+c.address, raw, CacheTTL)
	}
	return &status, nil
}
