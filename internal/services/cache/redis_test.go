package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
)

func TestHashKey(t *testing.T) {
	assert.Equal(t, "standards:mortgage", HashKey(models.ProductLineMortgage, ""))
	assert.Equal(t, "standards:credit-refinance:bank:acme", HashKey(models.ProductLineCreditRefinance, "acme"))
}

func TestParseHash(t *testing.T) {
	rows, err := ParseHash(models.ProductLineMortgage, "acme", map[string]string{
		"ltv:max":             "85",
		"age:max_at_maturity": "72.5",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	resolved := standards.Normalize(rows, models.ProductLineMortgage, "acme", time.Now())
	assert.Equal(t, 85.0, resolved[standards.KeyLTVMax].Value)
	assert.Equal(t, 72.5, resolved[standards.KeyAgeMax].Value)
	assert.Equal(t, standards.OriginBank, resolved[standards.KeyLTVMax].Origin)
}

func TestParseHash_Malformed(t *testing.T) {
	tests := map[string]map[string]string{
		"no separator":   {"ltvmax": "80"},
		"empty name":     {"ltv:": "80"},
		"not a number":   {"ltv:max": "eighty"},
		"empty category": {":max": "80"},
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHash(models.ProductLineMortgage, "", hash)
			assert.Error(t, err)
		})
	}
}

func TestEncodeHash_RoundTrips(t *testing.T) {
	values := map[standards.Key]float64{standards.KeyDTIMax: 42, standards.KeyLTVPremium: 67.5}

	encoded := EncodeHash(values)
	assert.Equal(t, "42", encoded["dti:max"])

	hash := make(map[string]string, len(encoded))
	for k, v := range encoded {
		hash[k] = v.(string)
	}
	rows, err := ParseHash(models.ProductLineMortgage, "", hash)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSplitResolved(t *testing.T) {
	path, bank := SplitResolved(map[standards.Key]standards.Resolved{
		standards.KeyDTIMax: {Value: 40, Origin: standards.OriginPath},
		standards.KeyLTVMax: {Value: 90, Origin: standards.OriginBank},
	})
	assert.Equal(t, map[standards.Key]float64{standards.KeyDTIMax: 40}, path)
	assert.Equal(t, map[standards.Key]float64{standards.KeyLTVMax: 90}, bank)
}

func TestFetch_UnreachableWithoutFallthrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	source := NewRedisSource(client, WithLogger(zap.NewNop()))
	_, err := source.Fetch(context.Background(), standards.Query{BusinessPath: models.ProductLineMortgage})
	assert.Error(t, err)
}

func TestFetch_UnreachableReadsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	next := &standards.StaticSource{Rows: []models.BankingStandard{
		{ID: 1, BusinessPath: models.ProductLineCredit, Category: "dti", Name: "max", Value: 70, IsActive: true},
		{ID: 2, BusinessPath: models.ProductLineCredit, Category: "dti", Name: "premium", Value: 30, IsActive: true},
	}}
	source := NewRedisSource(client, WithFallthrough(next, time.Minute), WithLogger(zap.NewNop()))

	rows, err := source.Fetch(context.Background(), standards.Query{BusinessPath: models.ProductLineCredit, Name: "max"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 70.0, rows[0].Value)

	failing := NewRedisSource(client,
		WithFallthrough(standards.SourceFunc(func(context.Context, standards.Query) ([]models.BankingStandard, error) {
			return nil, errors.New("db down")
		}), time.Minute),
		WithLogger(zap.NewNop()),
	)
	_, err = failing.Fetch(context.Background(), standards.Query{BusinessPath: models.ProductLineCredit})
	assert.Error(t, err)
}

// memoryRedis keeps hashes in memory. Only the commands RedisSource issues
// are implemented; anything else panics through the nil embedded client.
type memoryRedis struct {
	redis.UniversalClient
	hashes map[string]map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{hashes: make(map[string]map[string]string)}
}

func (m *memoryRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx, "hgetall", key)
	val := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		val[k] = v
	}
	cmd.SetVal(val)
	return cmd
}

func (m *memoryRedis) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return nil, fn(&memoryPipe{db: m})
}

type memoryPipe struct {
	redis.Pipeliner
	db *memoryRedis
}

func (p *memoryPipe) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(p.db.hashes, k)
	}
	return redis.NewIntCmd(ctx)
}

func (p *memoryPipe) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	hash := p.db.hashes[key]
	if hash == nil {
		hash = make(map[string]string)
		p.db.hashes[key] = hash
	}
	for k, v := range values[0].(map[string]interface{}) {
		hash[k] = v.(string)
	}
	return redis.NewIntCmd(ctx)
}

func (p *memoryPipe) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolCmd(ctx)
}

func TestFetch_BankOverrideBehindCachedPath(t *testing.T) {
	ctx := context.Background()
	acme := "acme"

	db := newMemoryRedis()
	db.hashes[HashKey(models.ProductLineMortgage, "")] = map[string]string{"ltv:max": "80"}

	postgres := &standards.StaticSource{Rows: []models.BankingStandard{
		{ID: 1, BusinessPath: models.ProductLineMortgage, Category: "ltv", Name: "max", Value: 80, IsActive: true},
		{ID: 2, BusinessPath: models.ProductLineMortgage, Category: "ltv", Name: "max", Value: 95, BankID: &acme, IsActive: true},
	}}
	calls := 0
	next := standards.SourceFunc(func(ctx context.Context, q standards.Query) ([]models.BankingStandard, error) {
		calls++
		return postgres.Fetch(ctx, q)
	})
	source := NewRedisSource(db, WithFallthrough(next, time.Minute), WithLogger(zap.NewNop()))

	resolve := func(bankID string) standards.Resolved {
		t.Helper()
		rows, err := source.Fetch(ctx, standards.Query{BusinessPath: models.ProductLineMortgage, BankID: bankID})
		require.NoError(t, err)
		return standards.Normalize(rows, models.ProductLineMortgage, bankID, time.Now())[standards.KeyLTVMax]
	}

	t.Run("path only is served from the cache", func(t *testing.T) {
		assert.Equal(t, 80.0, resolve("").Value)
		assert.Equal(t, 0, calls)
	})

	t.Run("uncached bank reads through", func(t *testing.T) {
		got := resolve(acme)
		assert.Equal(t, 95.0, got.Value)
		assert.Equal(t, standards.OriginBank, got.Origin)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "95", db.hashes[HashKey(models.ProductLineMortgage, acme)]["ltv:max"])
		assert.Equal(t, "80", db.hashes[HashKey(models.ProductLineMortgage, "")]["ltv:max"])
	})

	t.Run("cached bank is served from the cache", func(t *testing.T) {
		assert.Equal(t, 95.0, resolve(acme).Value)
		assert.Equal(t, 1, calls)
	})

	t.Run("bank without overrides is cached as empty", func(t *testing.T) {
		got := resolve("other")
		assert.Equal(t, 80.0, got.Value)
		assert.Equal(t, standards.OriginPath, got.Origin)
		assert.Equal(t, 2, calls)
		assert.Equal(t, map[string]string{storedMarker: "1"}, db.hashes[HashKey(models.ProductLineMortgage, "other")])

		assert.Equal(t, 80.0, resolve("other").Value)
		assert.Equal(t, 2, calls)
	})
}

func TestParseHash_SkipsStoredMarker(t *testing.T) {
	rows, err := ParseHash(models.ProductLineCredit, "", map[string]string{storedMarker: "1", "dti:max": "70"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "dti", rows[0].Category)
}
