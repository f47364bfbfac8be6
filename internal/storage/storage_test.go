package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

const body = "Referral to: Dr. Adams. Reason for referral: chest pain."

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestLocalStoreSaveAndRelease(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	f, err := s.Save(context.Background(), "job-1", "../../etc/Letter.TXT", strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "Letter.TXT", f.Filename)
	assert.Equal(t, "txt", f.Ext)
	assert.Equal(t, int64(len(body)), f.Size)
	assert.Equal(t, sum(body), f.SHA256)
	assert.True(t, strings.HasSuffix(f.LocalPath, "job-1.txt"))

	got, err := os.ReadFile(f.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	require.NoError(t, s.Release(context.Background(), f))
	_, err = os.Stat(f.LocalPath)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Release(context.Background(), f), "second release is a no-op")
}

func TestLocalStoreRejectsDuplicateJob(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "job-1", "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "job-1", "b.pdf", strings.NewReader("y"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorage))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalStoreRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "job-2", "a.png", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "fax.pdf", cleanName(`C:\scans\fax.pdf`))
	assert.Equal(t, "unknown", cleanName(""))
	assert.Equal(t, "unknown", cleanName("/"))
}

// fakeS3 answers just enough of the S3 API for bucket checks and single-part puts.
type fakeS3 struct {
	mu      sync.Mutex
	puts    []string
	headers []http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method == http.MethodPut && strings.Count(strings.Trim(r.URL.Path, "/"), "/") > 0 {
		f.puts = append(f.puts, r.URL.Path)
		f.headers = append(f.headers, r.Header.Clone())
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	}
	w.WriteHeader(http.StatusOK)
}

func TestS3StoreUploadsObjectAndKeepsWorkingCopy(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s, err := NewS3Store(S3Config{
		Endpoint:  u.Host,
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "referrals",
		TempDir:   t.TempDir(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3", s.Name())

	f, err := s.Save(context.Background(), "job-9", "letter.txt", strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "uploads/job-9/letter.txt", f.ObjectKey)
	assert.Equal(t, sum(body), f.SHA256)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "/referrals/uploads/job-9/letter.txt", fake.puts[0])
	assert.Equal(t, sum(body), fake.headers[0].Get("X-Amz-Meta-Sha256"))

	got, err := os.ReadFile(f.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	require.NoError(t, s.Release(context.Background(), f))
	_, err = os.Stat(f.LocalPath)
	assert.True(t, os.IsNotExist(err))
}

func TestNewS3StoreRequiresSettings(t *testing.T) {
	_, err := NewS3Store(S3Config{}, nil)
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"}, nil)
	assert.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, nil)
	assert.ErrorContains(t, err, "bucket")
}
