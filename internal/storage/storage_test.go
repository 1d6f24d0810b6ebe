package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// backends opens every backend that runs without external services.
func backends(t *testing.T) map[string]func(t *testing.T) types.Storage {
	return map[string]func(t *testing.T) types.Storage{
		"memory": func(t *testing.T) types.Storage { return NewMemory() },
		"file": func(t *testing.T) types.Storage {
			s, err := NewFile(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) types.Storage {
			s, err := OpenSQLite(context.Background(), t.TempDir())
			require.NoError(t, err)
			return s
		},
		"s3": func(t *testing.T) types.Storage {
			return newS3(newFakeS3(2), "bucket", "kennel")
		},
	}
}

func TestStorage_Contract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key is not an error", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				v, ok, err := s.GetItem(ctx, "mock_users")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Nil(t, v)
			})

			t.Run("set then get", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				require.NoError(t, s.SetItem(ctx, "mock_users", []byte(`[{"id":1}]`)))
				v, ok, err := s.GetItem(ctx, "mock_users")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.JSONEq(t, `[{"id":1}]`, string(v))
			})

			t.Run("set replaces", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				require.NoError(t, s.SetItem(ctx, "k", []byte(`1`)))
				require.NoError(t, s.SetItem(ctx, "k", []byte(`2`)))
				v, _, err := s.GetItem(ctx, "k")
				require.NoError(t, err)
				assert.Equal(t, "2", string(v))
			})

			t.Run("remove and remove missing", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				require.NoError(t, s.SetItem(ctx, "k", []byte(`1`)))
				require.NoError(t, s.RemoveItem(ctx, "k"))
				require.NoError(t, s.RemoveItem(ctx, "k"))
				_, ok, err := s.GetItem(ctx, "k")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("keys are sorted", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				for _, k := range []string{"mock_posts", "currentUser", "mock_Product"} {
					require.NoError(t, s.SetItem(ctx, k, []byte(`[]`)))
				}
				keys, err := s.Keys(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"currentUser", "mock_Product", "mock_posts"}, keys)
			})

			t.Run("empty key rejected", func(t *testing.T) {
				s := open(t)
				defer s.Close()
				assert.ErrorIs(t, s.SetItem(ctx, "", []byte(`1`)), types.ErrInvalidKey)
			})

			t.Run("closed storage", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.Close())
				require.NoError(t, s.Close())
				_, _, err := s.GetItem(ctx, "k")
				assert.ErrorIs(t, err, types.ErrStorageClosed)
				assert.ErrorIs(t, s.SetItem(ctx, "k", nil), types.ErrStorageClosed)
				_, err = s.Keys(ctx)
				assert.ErrorIs(t, err, types.ErrStorageClosed)
			})
		})
	}
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []byte(`[1]`)
	require.NoError(t, m.SetItem(ctx, "k", in))
	in[1] = '9'

	out, _, err := m.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(out))
	out[1] = '7'

	again, _, _ := m.GetItem(ctx, "k")
	assert.Equal(t, "[1]", string(again))
}

func TestFile_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.SetItem(ctx, "mock_users", []byte(`[]`)))
	require.NoError(t, f.SetItem(ctx, "a/b c", []byte(`{}`)))
	assert.FileExists(t, filepath.Join(dir, "mock_users.json"))

	// Stray files are not keys.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".kennel-1.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	keys, err := f.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b c", "mock_users"}, keys)

	v, ok, err := f.GetItem(ctx, "a/b c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", string(v))
}

func TestFile_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.SetItem(ctx, "currentUser", []byte(`{"id":"7"}`)))
	require.NoError(t, f.Close())

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	v, ok, err := reopened.GetItem(ctx, "currentUser")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"7"}`, string(v))
}

func TestSQLite_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenSQLite(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "mock_posts", []byte(`[{"id":1}]`)))
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, SQLiteFileName))

	s, err = OpenSQLite(ctx, dir)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.GetItem(ctx, "mock_posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":1}]`, string(v))
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrDSNEmpty)
}

func TestS3_PrefixAndPaging(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3(1)
	s := newS3(fake, "bucket", "app")
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.SetItem(ctx, k, []byte(k)))
	}
	fake.put("elsewhere/x", []byte("x"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Contains(t, fake.keys(), "app/a")
	assert.Greater(t, fake.listCalls, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, types.Config{Backend: types.BackendMemory})
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, s)
	})

	t.Run("file", func(t *testing.T) {
		s, err := Open(ctx, types.Config{Backend: types.BackendFile, DataDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &File{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQL{}, s)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(ctx, types.Config{Backend: "redis"})
		assert.ErrorIs(t, err, types.ErrBackendUnknown)
		_, err = Open(ctx, types.Config{Backend: types.BackendS3})
		assert.ErrorIs(t, err, types.ErrBucketEmpty)
	})
}

// fakeS3 is an in-memory object store returning pageSize keys per list call.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	pageSize  int
	listCalls int
}

func newFakeS3(pageSize int) *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, pageSize: pageSize}
}

func (f *fakeS3) put(key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = body
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.put(aws.ToString(in.Key), body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	var matched []string
	for _, k := range f.keys() {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range matched {
			if k == aws.ToString(in.ContinuationToken) {
				start = i
				break
			}
		}
	}
	end := start + f.pageSize
	if end > len(matched) {
		end = len(matched)
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range matched[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if end < len(matched) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(matched[end])
	}
	return out, nil
}
