package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/storage"
	"github.com/mesh-intelligence/kennel/pkg/kennel"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// env is one isolated config and data directory pair.
type env struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(envPrefix+"_"+envName(k), "")
	}
	return &env{t: t, configDir: t.TempDir(), dataDir: t.TempDir()}
}

// run executes kennel against the file backend with no latency.
func (e *env) run(args ...string) (int, string, string) {
	e.t.Helper()
	full := append([]string{
		"--config-dir", e.configDir,
		"--data-dir", e.dataDir,
		"--backend", types.BackendFile,
		"--latency", "0s",
	}, args...)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	code, out, errOut := e.run(args...)
	require.Equal(e.t, exitSuccess, code, "kennel %v: %s", args, errOut)
	return out
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

type product struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Stock int      `json:"stock"`
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "kennel v"+kennel.Version)

	got := decode[map[string]string](t, e.mustRun("--json", "version"))
	assert.Equal(t, kennel.ModulePath, got["module"])
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun("init")
	assert.Contains(t, out, "Kennel initialized")

	path := filepath.Join(e.configDir, configFileExt)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: file")
	assert.Contains(t, string(data), "data_dir: "+e.dataDir)
	assert.Contains(t, string(data), "id_strategy: timestamp")

	require.NoError(t, os.WriteFile(path, []byte("backend: memory\n"), 0o644))
	e.mustRun("init")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "backend: memory\n", string(data), "init must not overwrite config.yaml")
}

func TestRecordLifecycle(t *testing.T) {
	e := newEnv(t)

	created := decode[product](t, e.mustRun("--json", "create", "Product", `{"id":"ignored","name":"Chew toy","price":9900,"stock":3}`))
	require.True(t, created.ID.IsNumeric())
	assert.Equal(t, "Chew toy", created.Name)

	got := decode[product](t, e.mustRun("get", "Product", created.ID.String()))
	assert.Equal(t, created, got)

	updated := decode[product](t, e.mustRun("--json", "update", "Product", created.ID.String(), `{"stock":0,"id":99}`))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Chew toy", updated.Name)

	out := e.mustRun("delete", "Product", created.ID.String())
	assert.Equal(t, fmt.Sprintf("Product with id %s deleted.\n", created.ID), out)

	code, _, errOut := e.run("get", "Product", created.ID.String())
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, fmt.Sprintf("Product with id %s not found.", created.ID))

	code, _, _ = e.run("delete", "Product", created.ID.String())
	assert.Equal(t, exitUserError, code)
}

func TestStringIDsNeedQuotes(t *testing.T) {
	e := newEnv(t)
	seed := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[{"id":"1717000000000","username":"dana"}]`), 0o644))
	e.mustRun("seed", "users", seed)

	code, _, _ := e.run("get", "users", "1717000000000")
	assert.Equal(t, exitUserError, code)

	out := e.mustRun("get", "users", `"1717000000000"`)
	assert.Contains(t, out, `"username": "dana"`)
}

func TestBadInput(t *testing.T) {
	e := newEnv(t)
	for _, tt := range []struct {
		name string
		args []string
	}{
		{name: "create bad json", args: []string{"create", "Product", "{not json"}},
		{name: "create array", args: []string{"create", "Product", "[1,2]"}},
		{name: "update bad json", args: []string{"update", "Product", "1", "nope"}},
		{name: "missing args", args: []string{"get", "Product"}},
		{name: "odd seed args", args: []string{"seed", "Product"}},
		{name: "missing seed file", args: []string{"seed", "Product", filepath.Join(t.TempDir(), "none.json")}},
		{name: "empty entity", args: []string{"create", "", "{}"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := e.run(tt.args...)
			assert.Equal(t, exitUserError, code)
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	e := newEnv(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config-dir", e.configDir, "--backend", "floppy", "entities",
	}, &stdout, &stderr)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr.String(), types.ErrBackendUnknown.Error())
}

func TestSeed(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	products := filepath.Join(dir, "products.json")
	faqs := filepath.Join(dir, "faqs.json")
	require.NoError(t, os.WriteFile(products, []byte(`[{"id":1,"name":"Kibble"},{"id":2,"name":"Leash"}]`), 0o644))
	require.NoError(t, os.WriteFile(faqs, []byte(`[{"id":1,"question":"Hours?"}]`), 0o644))

	out := e.mustRun("seed", "Product", products, "faqs", faqs)
	assert.Equal(t, "Initialized Product from "+products+"\nInitialized faqs from "+faqs+"\n", out)

	names := decode[[]string](t, e.mustRun("--json", "entities"))
	assert.ElementsMatch(t, []string{"Product", "faqs"}, names)

	require.NoError(t, os.WriteFile(products, []byte(`[]`), 0o644))
	out = e.mustRun("seed", "Product", products)
	assert.Equal(t, "Skipped Product: data already stored\n", out)
	page := decode[listPage](t, e.mustRun("--json", "list", "Product"))
	assert.Equal(t, 2, page.TotalItems, "seeding never replaces stored data")

	seeded := decode[map[string]bool](t, e.mustRun("--json", "seed", "Product", products, "notices", products))
	assert.Equal(t, map[string]bool{"Product": false, "notices": true}, seeded)
}

func TestSeedRejectsRepeatedEntity(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(t.TempDir(), "cafes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"A"}]`), 0o644))

	code, _, stderr := e.run("seed", "cafes", path, "cafes", path)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, `entity "cafes" named twice`)

	names := decode[[]string](t, e.mustRun("--json", "entities"))
	assert.Empty(t, names)
}

func TestIDStrategy(t *testing.T) {
	e := newEnv(t)

	rec := decode[types.Record](t, e.mustRun("--json", "--id-strategy", "uuid", "create", "cafes", `{"name":"A"}`))
	id, ok := rec.ID()
	require.True(t, ok)
	assert.False(t, id.IsNumeric())
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)

	got := decode[types.Record](t, e.mustRun("get", "cafes", `"`+id.String()+`"`))
	assert.Equal(t, "A", got["name"])

	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("id_strategy: uuid\n"), 0o644))
	rec = decode[types.Record](t, e.mustRun("--json", "create", "cafes", `{"name":"B"}`))
	id, _ = rec.ID()
	assert.False(t, id.IsNumeric(), "id_strategy from config.yaml")

	t.Setenv("KENNEL_ID_STRATEGY", mockdata.IDStrategyTimestamp)
	rec = decode[types.Record](t, e.mustRun("--json", "create", "cafes", `{"name":"C"}`))
	id, _ = rec.ID()
	assert.True(t, id.IsNumeric(), "environment overrides config.yaml")

	code, _, stderr := e.run("--id-strategy", "serial", "entities")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, mockdata.ErrUnknownIDStrategy.Error())
}

func TestList(t *testing.T) {
	e := newEnv(t)
	var items []string
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("Toy %d", i)
		if i%3 == 0 {
			name = fmt.Sprintf("Bowl %d", i)
		}
		items = append(items, fmt.Sprintf(`{"id":%d,"name":%q}`, i, name))
	}
	seed := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(seed, []byte("["+strings.Join(items, ",")+"]"), 0o644))
	e.mustRun("seed", "Product", seed)

	page := decode[listPage](t, e.mustRun("--json", "list", "Product"))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 5)

	page = decode[listPage](t, e.mustRun("--json", "list", "Product", "--page", "9"))
	assert.Equal(t, 3, page.Page, "pages are clamped")
	assert.Len(t, page.Items, 2)

	page = decode[listPage](t, e.mustRun("--json", "list", "Product", "--search", "bowl", "--per-page", "2", "--page", "2"))
	assert.Equal(t, 4, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bowl 9", page.Items[0]["name"])

	page = decode[listPage](t, e.mustRun("--json", "list", "Product", "--all"))
	assert.Len(t, page.Items, 12)

	out := e.mustRun("list", "missing")
	assert.Equal(t, "page 1/0 (0 items)\n", out)
}

func TestMaintenance(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "maintenance: off\n", e.mustRun("maintenance", "status"))

	out := e.mustRun("maintenance", "on")
	assert.Contains(t, out, "maintenance: on")

	st := decode[maintenanceStatus](t, e.mustRun("--json", "maintenance", "off"))
	assert.False(t, st.Active)
	assert.False(t, st.Settings.IsActive)

	st = decode[maintenanceStatus](t, e.mustRun("--json", "maintenance", "schedule",
		"--start-date", "2000-01-01", "--start-time", "00:00",
		"--end-date", "2099-12-31", "--end-time", "23:59",
		"--reason", "DB upgrade", "--active"))
	assert.True(t, st.Active)
	assert.Equal(t, "DB upgrade", st.Settings.Reason)
	assert.NotEmpty(t, st.Settings.Message)
	assert.NotEmpty(t, st.Remaining)

	st = decode[maintenanceStatus](t, e.mustRun("--json", "maintenance", "status"))
	assert.True(t, st.Active)
}

func TestConfigFile(t *testing.T) {
	e := newEnv(t)
	cfg := "backend: file\nlatency: 0s\ndata_dir: store\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(cfg), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config-dir", e.configDir, "create", "faqs", `{"question":"Q"}`,
	}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	st, err := storage.NewFile(filepath.Join(e.configDir, "store"))
	require.NoError(t, err)
	_, ok, err := st.GetItem(context.Background(), "mock_faqs")
	require.NoError(t, err)
	assert.True(t, ok, "relative data_dir resolves against the config dir")
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("backend: postgres\nlatency: 0s\n"), 0o644))
	t.Setenv("KENNEL_BACKEND", types.BackendMemory)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config-dir", e.configDir, "entities"}, &stdout, &stderr)
	assert.Equal(t, exitSuccess, code, stderr.String())
}

func TestBadLatencyInConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("latency: soon\n"), 0o644))
	code, _, _ := e.run("entities")
	assert.Equal(t, exitUserError, code)
}

func TestMetricsFile(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(t.TempDir(), "kennel.prom")
	e.mustRun("--metrics-file", path, "create", "Product", `{"name":"Ball"}`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kennel_mockdata_operations_total{entity="Product",operation="create",outcome="success"} 1`)
}

func TestExitCode(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want int
	}{
		{err: nil, want: exitSuccess},
		{err: fmt.Errorf("x: %w", types.ErrNotFound), want: exitUserError},
		{err: fmt.Errorf("x: %w", types.ErrInvalidData), want: exitUserError},
		{err: usage(errors.New("accepts 2 arg(s)")), want: exitUserError},
		{err: errors.New("disk on fire"), want: exitSysError},
	} {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestAdmin(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	files := map[string]string{
		"Product":   `[{"id":1,"name":"Kibble","price":12000,"stock":2,"isBest":false}]`,
		"users":     `[{"id":1,"username":"dana","password":"secret"}]`,
		"inquiries": `[{"id":7,"title":"Late order","content":"Where is it?","status":"pending"}]`,
	}
	args := []string{"seed"}
	for entity, body := range files {
		path := filepath.Join(dir, entity+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		args = append(args, entity, path)
	}
	e.mustRun(args...)

	p := decode[types.Product](t, e.mustRun("--json", "admin", "best", "1"))
	assert.True(t, p.IsBest)
	p = decode[types.Product](t, e.mustRun("--json", "admin", "stock", "--", "1", "-5"))
	assert.Equal(t, 0, p.Stock)

	out := e.mustRun("admin", "reset-passwords", "1", "404")
	assert.Equal(t, "Reset 1 of 2 passwords\n", out)

	inq := decode[types.Inquiry](t, e.mustRun("--json", "admin", "answer", "7", "Shipped today"))
	assert.Equal(t, types.InquiryAnswered, inq.Status)
	out = e.mustRun("admin", "answer", "7", "Refunded", "--status", types.InquiryClosed)
	assert.Equal(t, "Inquiry 7 is closed\n", out)
	code, _, _ := e.run("admin", "answer", "7", "x", "--status", "archived")
	assert.Equal(t, exitUserError, code)

	faq := decode[types.FAQ](t, e.mustRun("--json", "admin", "faq", "--question", "Hours?", "--answer", "9-6"))
	assert.False(t, faq.ID.IsZero())
	assert.NotEmpty(t, faq.CreatedAt)

	post := decode[types.Post](t, e.mustRun("--json", "admin", "post", "--title", "Walk", "--content", "Park", "--author-id", "4"))
	assert.Equal(t, "사용자4", post.AuthorName)
	out = e.mustRun("admin", "comment", "--post-id", post.ID.String(), "--content", "Nice", "--author-id", "2")
	assert.Contains(t, out, "on post "+post.ID.String())
	code, _, _ = e.run("admin", "post", "--title", "No body")
	assert.Equal(t, exitUserError, code)

	counts := decode[[]struct {
		Entity  string `json:"entity"`
		Records int    `json:"records"`
	}](t, e.mustRun("--json", "admin", "overview"))
	require.Len(t, counts, len(types.StandardEntityNames))
	byEntity := map[string]int{}
	for _, c := range counts {
		byEntity[c.Entity] = c.Records
	}
	assert.Equal(t, 1, byEntity[types.EntityPosts])
	assert.Equal(t, 1, byEntity[types.EntityComments])
	assert.Equal(t, 1, byEntity[types.EntityFAQs])

	code, _, _ = e.run("admin", "best", "404")
	assert.Equal(t, exitUserError, code)
	code, _, _ = e.run("admin", "stock", "1", "lots")
	assert.Equal(t, exitUserError, code)
	code, _, _ = e.run("admin", "notice")
	assert.Equal(t, exitUserError, code)
	code, _, _ = e.run("list", "Product", "--page", "first")
	assert.Equal(t, exitUserError, code)
}
