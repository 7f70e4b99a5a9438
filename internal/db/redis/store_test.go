package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docsync/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(rueidis.ErrClosing)),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)

	if err := NewStoreForTest(c).WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(rueidis.ErrClosing)).AnyTimes()

	if err := NewStoreForTest(c).WaitForReady(context.Background(), 250*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestIsUnavailable(t *testing.T) {
	redisErr := mock.Result(mock.RedisError("ERR syntax error")).Error()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"closing", rueidis.ErrClosing, true},
		{"net op", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"server reply", redisErr, false},
		{"wrapped server reply", fmt.Errorf("key k: %w", redisErr), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnavailable(tc.err); got != tc.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsRedisErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		sub  string
		want bool
	}{
		{"case folded", mock.Result(mock.RedisError("Index Already Exists")).Error(), "index already exists", true},
		{"upper reply", mock.Result(mock.RedisError("UNKNOWN INDEX NAME")).Error(), "unknown index name", true},
		{"other reply", mock.Result(mock.RedisError("ERR syntax error")).Error(), "no such index", false},
		{"transport error", context.DeadlineExceeded, "deadline", false},
		{"nil", nil, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRedisErr(tc.err, tc.sub); got != tc.want {
				t.Errorf("isRedisErr(%v, %q) = %v, want %v", tc.err, tc.sub, got, tc.want)
			}
		})
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", "documents:1", "id", "1", "text", "hello")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "documents:1", map[string]string{"id": "1", "text": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHSetMulti_PerItemErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisError("OOM command not allowed")),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c)
	errs := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"text": "a"}},
		{Key: "k2", Fields: map[string]string{"text": "b"}},
		{Key: "k3", Fields: map[string]string{"text": "c"}},
	})
	if len(errs) != 3 {
		t.Fatalf("expected 3 error slots, got %d", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs[1] == nil || !isDBError(errs[1]) {
		t.Errorf("expected db.Error for item 1, got %v", errs[1])
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if errs := s.HSetMulti(context.Background(), nil); errs != nil {
		t.Fatalf("expected nil, got %v", errs)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "documents:1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"id":   mock.RedisString("1"),
			"text": mock.RedisString("hello"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "documents:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["text"] != "hello" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAll_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "documents:9")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "documents:9")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	if err := s.Del(context.Background(), "mykey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("documents:1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("documents:1"), mock.RedisString("documents:2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "documents:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(keys, []string{"documents:1", "documents:2"}) {
		t.Fatalf("keys = %v, want each key once", keys)
	}
}

// --- index.go tests ---

func textIndex(t *testing.T, b *db.IndexBuilder) *db.IndexDefinition {
	t.Helper()
	def, err := b.Build()
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return def
}

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "documents", "ON", "HASH", "PREFIX", "1", "documents:",
			"SCHEMA", "text", "TEXT",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := textIndex(t, db.NewIndex("documents").Prefix("documents:").Text("text"))
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "documents"})
	if err == nil {
		t.Fatal("expected validation error without any Redis call")
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{Name: "documents", Fields: []db.TextField{{Name: "text"}}}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{Name: "documents", Fields: []db.TextField{{Name: "text"}}}
	if err := s.CreateIndex(context.Background(), idx); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name  string
		reply rueidis.RedisResult
		want  bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("documents"))), true},
		{"unknown index", mock.Result(mock.RedisError("Unknown Index name")), false},
		{"no such index", mock.Result(mock.RedisError("documents: no such index")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "documents")).Return(tc.reply)

			exists, err := NewStoreForTest(c).IndexExists(context.Background(), "documents")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exists != tc.want {
				t.Errorf("exists = %v, want %v", exists, tc.want)
			}
		})
	}
}

func TestBuildCreateArgs(t *testing.T) {
	tests := []struct {
		name string
		def  db.IndexDefinition
		want []string
	}{
		{
			name: "bare",
			def:  db.IndexDefinition{Name: "documents", Fields: []db.TextField{{Name: "text"}}},
			want: []string{"documents", "ON", "HASH", "SCHEMA", "text", "TEXT"},
		},
		{
			name: "language",
			def:  db.IndexDefinition{Name: "documents", Language: "russian", Fields: []db.TextField{{Name: "text"}}},
			want: []string{"documents", "ON", "HASH", "LANGUAGE", "russian", "SCHEMA", "text", "TEXT"},
		},
		{
			name: "two prefixes",
			def:  db.IndexDefinition{Name: "documents", Prefixes: []string{"a:", "b:"}, Fields: []db.TextField{{Name: "text"}}},
			want: []string{"documents", "ON", "HASH", "PREFIX", "2", "a:", "b:", "SCHEMA", "text", "TEXT"},
		},
		{
			name: "field options",
			def: db.IndexDefinition{Name: "documents", Fields: []db.TextField{
				{Name: "title", Weight: 2.5},
				{Name: "text", NoStem: true},
			}},
			want: []string{"documents", "ON", "HASH", "SCHEMA",
				"title", "TEXT", "WEIGHT", "2.5", "text", "TEXT", "NOSTEM"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildCreateArgs(&tc.def); !slices.Equal(got, tc.want) {
				t.Errorf("args = %v, want %v", got, tc.want)
			}
		})
	}
}

// --- search.go tests ---

func TestSearchText_NoContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "documents", "@text:(hello|world)", "NOCONTENT",
			"LIMIT", "0", "20", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("documents:7"),
			mock.RedisString("documents:3"),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "documents",
		Field:     "text",
		Query:     "hello world",
		Limit:     20,
		NoContent: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Entries[0].Key != "documents:7" {
		t.Errorf("first key = %q, want documents:7", result.Entries[0].Key)
	}
}

func TestSearchText_WithFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && slices.Contains(cmd, "RETURN")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("documents:1"),
			mock.RedisArray(mock.RedisString("text"), mock.RedisString("hello")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "documents",
		Query:        "hello",
		Limit:        10,
		ReturnFields: []string{"text"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].Fields["text"] != "hello" {
		t.Errorf("unexpected fields: %v", result.Entries[0].Fields)
	}
}

func TestSearchText_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisError("documents: no such index")))

	s := NewStoreForTest(c)
	_, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "documents", Query: "x", Limit: 5})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchText_ConnectionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "documents", Query: "x", Limit: 5})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if !errors.Is(err, db.ErrUnavailable) {
		t.Error("expected db.ErrUnavailable for deadline")
	}
}

func TestSearchText_BlankQuery(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	result, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "documents", Query: "   ", Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.SearchText(ctx, &db.TextQuery{Query: "test", Limit: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Query: "test", Limit: -1}); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestBuildTextQuery(t *testing.T) {
	tests := []struct {
		field, text, want string
	}{
		{"text", "hello", "@text:(hello)"},
		{"text", "hello  world", "@text:(hello|world)"},
		{"", "a-b", `(a|b)`},
		{"text", "covid-19", "@text:(covid|19)"},
		{"text", "hello,", "@text:(hello)"},
		{"text", "U.S.A", "@text:(U|S|A)"},
		{"text", "*", "*"},
		{"text", "", ""},
		{"text", "--- ...", ""},
		{"text", `say "hi"`, "@text:(say|hi)"},
		{"text", "a/b|c?", `@text:(a\/b\|c\?)`},
	}
	for _, tc := range tests {
		if got := buildTextQuery(tc.field, tc.text); got != tc.want {
			t.Errorf("buildTextQuery(%q, %q) = %q, want %q", tc.field, tc.text, got, tc.want)
		}
	}
}

func TestEscapeQuery(t *testing.T) {
	input := `"world"@user{tag}`
	escaped := escapeQuery(input)
	expected := `\"world\"\@user\{tag\}`
	if escaped != expected {
		t.Errorf("expected %q, got %q", expected, escaped)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
