// cobblemon-league/pokedex/client.go
package pokedex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/time/rate"

	"github.com/corazonmc/cobblemon-league/models"
)

const (
	defaultBaseURL  = "https://pokeapi.co/api/v2"
	speciesCacheKey = "pokedex:species"
	speciesCacheTTL = 24 * time.Hour
	maxSearchHits   = 20
)

// SpeciesRef — элемент результата поиска: имя вида и opaque-ссылка,
// по которой запрашиваются детали.
type SpeciesRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client — read-only обёртка над PokeAPI. Полный список видов дорогой
// (один запрос на ~1300 записей), поэтому кэшируется в Redis; сами
// исходящие запросы ограничены rate-лимитером, чтобы не злоупотреблять
// чужим публичным API.
type Client struct {
	baseURL string
	http    *http.Client
	redis   *redis.Client
	limiter *rate.Limiter
}

func NewClient(redisClient *redis.Client) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		redis:   redisClient,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Search возвращает до 20 видов, отранжированных по близости к запросу.
// Запросы короче двух символов не ищутся.
func (c *Client) Search(ctx context.Context, query string) ([]SpeciesRef, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < 2 {
		return []SpeciesRef{}, nil
	}

	species, err := c.speciesIndex(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(species))
	byName := make(map[string]SpeciesRef, len(species))
	for i, sp := range species {
		names[i] = sp.Name
		byName[sp.Name] = sp
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	results := make([]SpeciesRef, 0, maxSearchHits)
	for _, r := range ranks {
		results = append(results, byName[r.Target])
		if len(results) == maxSearchHits {
			break
		}
	}
	return results, nil
}

// Details загружает имя и спрайт по ссылке из результата поиска.
// Предпочитается анимированный спрайт пятого поколения, как в клиенте
// исходной системы; если его нет — обычный front_default.
func (c *Client) Details(ctx context.Context, ref string) (*models.Pokemon, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}

	var payload struct {
		Name    string `json:"name"`
		Sprites struct {
			FrontDefault string `json:"front_default"`
			Versions     struct {
				GenerationV struct {
					BlackWhite struct {
						Animated struct {
							FrontDefault string `json:"front_default"`
						} `json:"animated"`
					} `json:"black-white"`
				} `json:"generation-v"`
			} `json:"versions"`
		} `json:"sprites"`
	}

	if err := c.getJSON(ctx, ref, &payload); err != nil {
		return nil, err
	}

	sprite := payload.Sprites.FrontDefault
	if animated := payload.Sprites.Versions.GenerationV.BlackWhite.Animated.FrontDefault; animated != "" {
		sprite = animated
	}

	return &models.Pokemon{
		Name:   payload.Name,
		Sprite: sprite,
	}, nil
}

// speciesIndex отдаёт полный список видов, по возможности из кэша.
func (c *Client) speciesIndex(ctx context.Context) ([]SpeciesRef, error) {
	if cached, err := c.redis.Get(ctx, speciesCacheKey).Bytes(); err == nil {
		var species []SpeciesRef
		if json.Unmarshal(cached, &species) == nil {
			return species, nil
		}
		// Битый кэш перезапишем свежим ответом.
	}

	var payload struct {
		Results []SpeciesRef `json:"results"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/pokemon?limit=10000", &payload); err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(payload.Results); err == nil {
		// Кэш — оптимизация; его отказ не должен ронять поиск.
		c.redis.Set(ctx, speciesCacheKey, raw, speciesCacheTTL)
	}
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pokeapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pokeapi returned status %d for %s", resp.StatusCode, rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode pokeapi response: %w", err)
	}
	return nil
}

// validateRef не даёт проксировать произвольные URL: принимаются только
// ссылки внутри самого PokeAPI.
func (c *Client) validateRef(ref string) error {
	parsed, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("invalid pokemon ref: %w", err)
	}
	base, _ := url.Parse(c.baseURL)
	if parsed.Scheme != base.Scheme || parsed.Host != base.Host {
		return fmt.Errorf("pokemon ref must point to %s", base.Host)
	}
	return nil
}
