package isbn

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	backend "github.com/redis/go-redis/v9"
)

// insertScript claims the ISBN and writes the record in one step so that
// concurrent assignments of the same edition agree on a single record.
//
// KEYS: record, isbn claim, book index. ARGV: record JSON, claim owner, format.
var insertScript = backend.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
	return {0, existing}
end
local owner = redis.call('GET', KEYS[2])
if owner and owner ~= ARGV[2] then
	return {-1, owner}
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[3])
return {1, ARGV[1]}
`)

// RedisRepo stores records as JSON strings with a per-book format index.
type RedisRepo struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisRepo)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRepo) {
		r.prefix = prefix
	}
}

// NewRedisRepo connects to the Redis server at address.
func NewRedisRepo(address, password string, db int, opts ...RedisOption) *RedisRepo {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisRepoFromClient(rdb, opts...)
}

// NewRedisRepoFromClient wraps an existing client.
func NewRedisRepoFromClient(client *backend.Client, opts ...RedisOption) *RedisRepo {
	r := &RedisRepo{client: client, prefix: "bookpublish:isbn:"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func (r *RedisRepo) recordKey(bookID string, format Format) string {
	return r.prefix + "record:" + bookID + ":" + string(format)
}

func (r *RedisRepo) claimKey(isbn13 string) string {
	return r.prefix + "claim:" + isbn13
}

func (r *RedisRepo) indexKey(bookID string) string {
	return r.prefix + "book:" + bookID
}

func (r *RedisRepo) seqKey() string {
	return r.prefix + "seq"
}

func decodeRecord(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("decode isbn record: %w", err)
	}
	return rec, nil
}

func (r *RedisRepo) Get(ctx context.Context, bookID string, format Format) (Record, error) {
	raw, err := r.client.Get(ctx, r.recordKey(bookID, format)).Result()
	if err != nil {
		if err == backend.Nil {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return decodeRecord(raw)
}

func (r *RedisRepo) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, false, fmt.Errorf("encode isbn record: %w", err)
	}
	owner := rec.BookID + ":" + string(rec.Format)
	res, err := insertScript.Run(ctx, r.client,
		[]string{r.recordKey(rec.BookID, rec.Format), r.claimKey(rec.ISBN13), r.indexKey(rec.BookID)},
		string(data), owner, string(rec.Format),
	).Slice()
	if err != nil {
		return Record{}, false, fmt.Errorf("insert isbn record: %w", err)
	}
	if len(res) != 2 {
		return Record{}, false, fmt.Errorf("insert isbn record: unexpected reply %v", res)
	}
	status, _ := res[0].(int64)
	payload, _ := res[1].(string)
	switch status {
	case -1:
		return Record{}, false, ErrISBNInUse
	case 0:
		stored, err := decodeRecord(payload)
		return stored, false, err
	default:
		return rec, true, nil
	}
}

func (r *RedisRepo) List(ctx context.Context, bookID string) ([]Record, error) {
	formats, err := r.client.SMembers(ctx, r.indexKey(bookID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(formats)

	var out []Record
	for _, f := range formats {
		rec, err := r.Get(ctx, bookID, Format(f))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepo) NextSequence(ctx context.Context) (int64, error) {
	return r.client.Incr(ctx, r.seqKey()).Result()
}
