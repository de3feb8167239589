package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adisatrio/offersession/internal/models"
)

// ClientStore persists per-client state that outlives a results session: the
// selected display currency, the encoded last search, the best-value booking
// record and the final booking payload handed to the booking page.
type ClientStore interface {
	SaveCurrency(ctx context.Context, clientID, currency string) error
	Currency(ctx context.Context, clientID string) (string, bool)
	SaveLastSearch(ctx context.Context, clientID, token string) error
	LastSearch(ctx context.Context, clientID string) (string, bool)
	SaveBestValueBooking(ctx context.Context, clientID string, fare models.PromotionalFare) error
	SaveBookingPayload(ctx context.Context, clientID string, payload models.BookingPayload) error
	BookingPayload(ctx context.Context, clientID string) (models.BookingPayload, bool)
	Close() error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host: "localhost",
		Port: "6379",
		TTL:  24 * time.Hour,
	}
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func (s *RedisStore) SaveCurrency(ctx context.Context, clientID, currency string) error {
	return s.client.Set(ctx, storeKey(clientID, "currency"), currency, s.ttl).Err()
}

func (s *RedisStore) Currency(ctx context.Context, clientID string) (string, bool) {
	val, err := s.client.Get(ctx, storeKey(clientID, "currency")).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *RedisStore) SaveLastSearch(ctx context.Context, clientID, token string) error {
	return s.client.Set(ctx, storeKey(clientID, "last-search"), token, s.ttl).Err()
}

func (s *RedisStore) LastSearch(ctx context.Context, clientID string) (string, bool) {
	val, err := s.client.Get(ctx, storeKey(clientID, "last-search")).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *RedisStore) SaveBestValueBooking(ctx context.Context, clientID string, fare models.PromotionalFare) error {
	return s.setJSON(ctx, storeKey(clientID, "best-value-booking"), fare)
}

func (s *RedisStore) SaveBookingPayload(ctx context.Context, clientID string, payload models.BookingPayload) error {
	return s.setJSON(ctx, storeKey(clientID, "booking-payload"), payload)
}

func (s *RedisStore) BookingPayload(ctx context.Context, clientID string) (models.BookingPayload, bool) {
	var payload models.BookingPayload
	data, err := s.client.Get(ctx, storeKey(clientID, "booking-payload")).Bytes()
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, false
	}
	return payload, true
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func storeKey(clientID, field string) string {
	return "offersession:" + clientID + ":" + field
}

// MemoryStore keeps client state in process memory. Used when Redis is
// disabled and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	currencies map[string]string
	searches   map[string]string
	fares      map[string]models.PromotionalFare
	payloads   map[string]models.BookingPayload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		currencies: make(map[string]string),
		searches:   make(map[string]string),
		fares:      make(map[string]models.PromotionalFare),
		payloads:   make(map[string]models.BookingPayload),
	}
}

func (s *MemoryStore) SaveCurrency(ctx context.Context, clientID, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies[clientID] = currency
	return nil
}

func (s *MemoryStore) Currency(ctx context.Context, clientID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.currencies[clientID]
	return val, ok
}

func (s *MemoryStore) SaveLastSearch(ctx context.Context, clientID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[clientID] = token
	return nil
}

func (s *MemoryStore) LastSearch(ctx context.Context, clientID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.searches[clientID]
	return val, ok
}

func (s *MemoryStore) SaveBestValueBooking(ctx context.Context, clientID string, fare models.PromotionalFare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fares[clientID] = fare
	return nil
}

func (s *MemoryStore) SaveBookingPayload(ctx context.Context, clientID string, payload models.BookingPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[clientID] = payload
	return nil
}

func (s *MemoryStore) BookingPayload(ctx context.Context, clientID string) (models.BookingPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.payloads[clientID]
	return payload, ok
}

func (s *MemoryStore) Close() error {
	return nil
}
