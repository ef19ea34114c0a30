// Package cache serves banking standards from Redis.
//
// Each business path is one hash, standards:{path}, with fields
// "category:name". Bank overrides live in standards:{path}:bank:{bank_id}.
// Every stored hash carries a marker field, so a bank without overrides is
// cached as a hash holding only the marker.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

const keyPrefix = "standards"

// storedMarker is written into every hash Store creates. It is not a
// standard and ParseHash skips it.
const storedMarker = "_stored"

// RedisSource reads standards hashes. With a next Source it becomes a
// read-through cache: a miss is fetched from next and written back with ttl.
type RedisSource struct {
	client redis.UniversalClient
	next   standards.Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a RedisSource.
type Option func(*RedisSource)

// WithFallthrough makes the source a read-through cache in front of next.
func WithFallthrough(next standards.Source, ttl time.Duration) Option {
	return func(s *RedisSource) {
		s.next = next
		s.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *RedisSource) { s.logger = logger }
}

// NewClient creates a Redis client for addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisSource creates a standards source over client.
func NewRedisSource(client redis.UniversalClient, opts ...Option) *RedisSource {
	s := &RedisSource{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = utils.GetLogger()
	}
	return s
}

// HashKey returns the hash holding path standards, or a bank's overrides.
func HashKey(path models.ProductLine, bankID string) string {
	if bankID == "" {
		return keyPrefix + ":" + string(path)
	}
	return keyPrefix + ":" + string(path) + ":bank:" + bankID
}

// Fetch implements standards.Source.
func (s *RedisSource) Fetch(ctx context.Context, q standards.Query) ([]models.BankingStandard, error) {
	rows, found, err := s.read(ctx, q.BusinessPath, q.BankID)
	if err != nil && s.next == nil {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("Redis standards read failed, reading through",
			zap.String("business_path", string(q.BusinessPath)),
			zap.Error(err),
		)
	}

	if !found && s.next != nil {
		rows, err = s.readThrough(ctx, q.BusinessPath, q.BankID)
		if err != nil {
			return nil, err
		}
	}

	return filter(rows, q), nil
}

func (s *RedisSource) read(ctx context.Context, path models.ProductLine, bankID string) ([]models.BankingStandard, bool, error) {
	pathHash, err := s.client.HGetAll(ctx, HashKey(path, "")).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", HashKey(path, ""), err)
	}
	rows, err := ParseHash(path, "", pathHash)
	if err != nil {
		return nil, false, err
	}
	found := len(pathHash) > 0

	if bankID != "" {
		bankHash, err := s.client.HGetAll(ctx, HashKey(path, bankID)).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to read %s: %w", HashKey(path, bankID), err)
		}
		bankRows, err := ParseHash(path, bankID, bankHash)
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, bankRows...)
		found = found && len(bankHash) > 0
	}

	return rows, found, nil
}

// readThrough resolves the full set from next and caches it. The cached
// copy holds effective values only, so ttl bounds how long a scheduled
// change can lag.
func (s *RedisSource) readThrough(ctx context.Context, path models.ProductLine, bankID string) ([]models.BankingStandard, error) {
	rows, err := s.next.Fetch(ctx, standards.Query{BusinessPath: path, BankID: bankID})
	if err != nil {
		return nil, err
	}

	// The path level is normalized without the bank, otherwise keys the bank
	// overrides would be missing from the shared path hash.
	at := s.now()
	pathValues, _ := SplitResolved(standards.Normalize(rows, path, "", at))
	_, bankValues := SplitResolved(standards.Normalize(rows, path, bankID, at))
	if len(pathValues) > 0 {
		if err := s.Store(ctx, path, "", pathValues); err != nil {
			s.logger.Warn("Failed to cache standards", zap.String("business_path", string(path)), zap.Error(err))
		}
	}
	// An empty bank level is still stored so the next read knows the bank
	// has no overrides.
	if bankID != "" {
		if err := s.Store(ctx, path, bankID, bankValues); err != nil {
			s.logger.Warn("Failed to cache bank standards",
				zap.String("business_path", string(path)),
				zap.String("bank_id", bankID),
				zap.Error(err),
			)
		}
	}

	return rows, nil
}

// Store replaces the hash for path (and bank) with values. An empty values
// map records that the level has no standards.
func (s *RedisSource) Store(ctx context.Context, path models.ProductLine, bankID string, values map[standards.Key]float64) error {
	key := HashKey(path, bankID)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields := EncodeHash(values)
		fields[storedMarker] = "1"
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// ParseHash converts a standards hash into rows.
func ParseHash(path models.ProductLine, bankID string, hash map[string]string) ([]models.BankingStandard, error) {
	rows := make([]models.BankingStandard, 0, len(hash))
	for field, raw := range hash {
		if field == storedMarker {
			continue
		}
		category, name, ok := strings.Cut(field, ":")
		if !ok || category == "" || name == "" {
			return nil, fmt.Errorf("malformed standards field %q in %s", field, HashKey(path, bankID))
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s in %s: %w", field, HashKey(path, bankID), err)
		}

		row := models.BankingStandard{
			BusinessPath: path,
			Category:     category,
			Name:         name,
			Value:        value,
			IsActive:     true,
		}
		if bankID != "" {
			id := bankID
			row.BankID = &id
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EncodeHash is the inverse of ParseHash.
func EncodeHash(values map[standards.Key]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k.Category+":"+k.Name] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

// SplitResolved separates path level values from bank overrides.
func SplitResolved(resolved map[standards.Key]standards.Resolved) (path, bank map[standards.Key]float64) {
	path = make(map[standards.Key]float64)
	bank = make(map[standards.Key]float64)
	for k, r := range resolved {
		if r.Origin == standards.OriginBank {
			bank[k] = r.Value
		} else {
			path[k] = r.Value
		}
	}
	return path, bank
}

func filter(rows []models.BankingStandard, q standards.Query) []models.BankingStandard {
	if q.Category == "" && q.Name == "" {
		return rows
	}
	var out []models.BankingStandard
	for _, r := range rows {
		if (q.Category == "" || r.Category == q.Category) && (q.Name == "" || r.Name == q.Name) {
			out = append(out, r)
		}
	}
	return out
}
