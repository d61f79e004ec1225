package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/storage/minio"
	"github.com/turtacn/molview/pkg/errors"
)

func atomRec(serial int, name string, x, y, z float64) string {
	return fmt.Sprintf("ATOM  %5d %-4s ALA A   1    %8.3f%8.3f%8.3f  1.00  0.00", serial, name, x, y, z)
}

// triad is N-C-O with N-C = 5 and a right angle at C.
var triad = strings.Join([]string{
	"HEADER    TEST STRUCTURE                          15-OCT-26   9XYZ",
	"TITLE     TRIAD",
	atomRec(1, " N", 0, 0, 0),
	atomRec(2, " C", 3, 4, 0),
	atomRec(3, " O", 3, 4, 1),
	"CONECT    1    2",
	"CONECT    2    3",
	"END",
}, "\n")

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// baseConfig is the YAML every command test runs with.
const baseConfig = `
log:
  level: error
render:
  width: 64
  height: 64
`

const storeConfig = baseConfig + `
storage:
  minio:
    endpoint: "minio.test:9000"
    access_key: "key"
    secret_key: "secret"
    bucket: "structures"
`

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with args against a config file holding
// cfgYAML.
func run(t *testing.T, cfgYAML, stdin string, args ...string) result {
	t.Helper()
	cfgPath := writeFile(t, t.TempDir(), "molview.yaml", cfgYAML)

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// withStore swaps newObjectStore for the duration of the test.
func withStore(t *testing.T, s *fakeStore) {
	t.Helper()
	prev := newObjectStore
	newObjectStore = func(cfg minio.Config, _ logging.Logger) (objectStore, error) {
		s.cfg = cfg
		return s, nil
	}
	t.Cleanup(func() { newObjectStore = prev })
}

// testCommand returns a command carrying a CLIContext for cfg.
func testCommand(t *testing.T, cfg *config.Config) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, &CLIContext{
		Config:       cfg,
		Logger:       logging.NewNopLogger(),
		OutputFormat: "text",
		Timeout:      5 * time.Second,
	}))
	return cmd
}

// fakeStore is an in-memory object store.
type fakeStore struct {
	mu       sync.Mutex
	cfg      minio.Config
	objects  map[string][]byte
	types    map[string]string
	checkErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Open(_ context.Context, bucket, key string, _ int64) (io.ReadCloser, minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, minio.ObjectInfo{}, errors.NotFound("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), minio.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (s *fakeStore) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) (minio.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = data
	s.types[bucket+"/"+key] = contentType
	return minio.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *fakeStore) List(_ context.Context, bucket, prefix string) ([]minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []minio.ObjectInfo
	for k, v := range s.objects {
		b, key, _ := strings.Cut(k, "/")
		if b == bucket && strings.HasPrefix(key, prefix) {
			out = append(out, minio.ObjectInfo{Bucket: b, Key: key, Size: int64(len(v)), LastModified: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)})
		}
	}
	return out, nil
}

func (s *fakeStore) Name() string { return "minio" }

func (s *fakeStore) Check(context.Context) error { return s.checkErr }

//Personal.AI order the ending
