package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"golink-redirect/internal/geo"
	"golink-redirect/internal/i18n"
	"golink-redirect/internal/model"
	"golink-redirect/internal/repository"
	"golink-redirect/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDNS struct{}

func (fakeDNS) LookupAddr(context.Context, string) ([]string, error) {
	return []string{"visitor.example.net."}, nil
}

// gatedGeolocator 在 release 关闭前阻塞
type gatedGeolocator struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (g *gatedGeolocator) Locate(ctx context.Context, _ string) (geo.Geolocation, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return geo.Geolocation{}, ctx.Err()
		}
	}
	country := "Netherlands"
	return geo.Geolocation{Country: &country}, nil
}

func (g *gatedGeolocator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type slowLinkStore struct {
	repository.LinkStore
	delay time.Duration
}

func (s slowLinkStore) GetLink(ctx context.Context, slug string) (*model.Link, error) {
	select {
	case <-time.After(s.delay):
		return s.LinkStore.GetLink(ctx, slug)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type testEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *service.Dispatcher
	geo        *gatedGeolocator
}

type envOptions struct {
	lookupDelay   time.Duration
	lookupTimeout time.Duration
	geoRelease    chan struct{}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "golink.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func newTestEnv(t *testing.T, opts envOptions, links ...model.Link) *testEnv {
	t.Helper()

	db := newTestDB(t)
	if len(links) > 0 {
		require.NoError(t, db.Create(&links).Error)
	}

	store := repository.NewGormLinkStore(db)
	var lookupStore repository.LinkStore = store
	if opts.lookupDelay > 0 {
		lookupStore = slowLinkStore{LinkStore: store, delay: opts.lookupDelay}
	}

	geolocator := &gatedGeolocator{release: opts.geoRelease}
	resolver := geo.NewResolver(fakeDNS{}, geolocator, 5*time.Second, 5*time.Second)
	dispatcher := service.NewDispatcher(context.Background(), zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = dispatcher.Wait(ctx)
	})

	catalog, err := i18n.InitI18n([]string{"../../i18n/en.toml", "../../i18n/zh.toml"}, "en")
	require.NoError(t, err)

	redirect := NewRedirectHandler(
		service.NewRedirectService(lookupStore, opts.lookupTimeout),
		store,
		service.NewClickRecorder(store, resolver, nil),
		nil,
		dispatcher,
	)
	router := NewRouter(redirect, NewHealthHandler(db, nil), RouterOptions{Catalog: catalog})

	return &testEnv{router: router, db: db, dispatcher: dispatcher, geo: geolocator}
}

func (e *testEnv) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.dispatcher.Wait(ctx))
}

func (e *testEnv) link(t *testing.T, slug string) model.Link {
	t.Helper()
	var link model.Link
	require.NoError(t, e.db.Take(&link, "slug = ?", slug).Error)
	return link
}

func (e *testEnv) clicks(t *testing.T, slug string) []model.Click {
	t.Helper()
	var clicks []model.Click
	require.NoError(t, e.db.Where("slug = ?", slug).Find(&clicks).Error)
	return clicks
}

func TestRedirectPromo(t *testing.T) {
	target := "https://example.com/landing?utm_source=mail&q=a%20b"
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: target})

	w := env.do(http.MethodGet, "/promo", map[string]string{
		"X-Forwarded-For": "203.0.113.9, 10.0.0.1",
		"User-Agent":      "Mozilla/5.0",
		"Referer":         "https://news.example.org/",
	})

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, target, w.Header().Get("Location"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

	env.wait(t)

	link := env.link(t, "promo")
	assert.EqualValues(t, 1, link.ClickCount)
	require.NotNil(t, link.LastClickedAt)

	clicks := env.clicks(t, "promo")
	require.Len(t, clicks, 1)
	click := clicks[0]
	assert.NotEmpty(t, click.ID)
	assert.Equal(t, "203.0.113.9", click.IP)
	assert.Equal(t, "Mozilla/5.0", click.UserAgent)
	require.NotNil(t, click.Referer)
	assert.Equal(t, "https://news.example.org/", *click.Referer)
	require.NotNil(t, click.Hostname)
	assert.Equal(t, "visitor.example.net", *click.Hostname)
	require.NotNil(t, click.Country)
	assert.Equal(t, "Netherlands", *click.Country)
}

func TestRedirectPrivateIPSkipsGeolocation(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: "https://example.com"})

	w := env.do(http.MethodGet, "/promo", map[string]string{"X-Forwarded-For": "192.168.1.20"})
	require.Equal(t, http.StatusFound, w.Code)
	env.wait(t)

	assert.Zero(t, env.geo.callCount())
	clicks := env.clicks(t, "promo")
	require.Len(t, clicks, 1)
	assert.Nil(t, clicks[0].Country)
	assert.Nil(t, clicks[0].Referer)
}

func TestRedirectDisabledLooksMissing(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: "https://example.com", Disabled: true})

	disabled := env.do(http.MethodGet, "/promo", nil)
	missing := env.do(http.MethodGet, "/nothing-here", nil)
	env.wait(t)

	assert.Equal(t, http.StatusNotFound, disabled.Code)
	assert.Equal(t, missing.Code, disabled.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, disabled.Body.String())
	assert.Equal(t, missing.Body.String(), disabled.Body.String())
	assert.Empty(t, disabled.Header().Get("Location"))

	assert.Zero(t, env.link(t, "promo").ClickCount)
	assert.Empty(t, env.clicks(t, "promo"))
}

func TestRedirectNotFoundPaths(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: "https://example.com"})

	for _, path := range []string{"/", "/api", "/api/v2/links", "/admin", "/static/app", "/favicon.ico", "/Promo", "/promo/extra"} {
		w := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String(), path)
	}
	env.wait(t)
	assert.Empty(t, env.clicks(t, "promo"))
}

func TestRedirectRejectsOtherMethods(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: "https://example.com"})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := env.do(method, "/promo", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
	env.wait(t)
	assert.Zero(t, env.link(t, "promo").ClickCount)
}

func TestRedirectInvalidDestination(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "broken", LongURL: "mailto:someone@example.com"})

	w := env.do(http.MethodGet, "/broken", nil)
	env.wait(t)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Invalid link configuration"}`, w.Body.String())
	assert.Empty(t, env.clicks(t, "broken"))
}

func TestRedirectLookupTimeout(t *testing.T) {
	env := newTestEnv(t, envOptions{lookupDelay: time.Second, lookupTimeout: 20 * time.Millisecond},
		model.Link{Slug: "promo", LongURL: "https://example.com"})

	w := env.do(http.MethodGet, "/promo", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t,
		`{"error":"Service temporarily unavailable","message":"Please try again in a moment"}`,
		w.Body.String())
}

func TestRedirectLocalizedError(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.do(http.MethodGet, "/missing", map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"短链不存在"}`, w.Body.String())
}

func TestRedirectServerErrorsKeepExactText(t *testing.T) {
	slow := newTestEnv(t, envOptions{lookupDelay: time.Second, lookupTimeout: 20 * time.Millisecond},
		model.Link{Slug: "promo", LongURL: "https://example.com"})
	broken := newTestEnv(t, envOptions{}, model.Link{Slug: "broken", LongURL: "not-a-url"})
	zh := map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"}

	w := slow.do(http.MethodGet, "/promo", zh)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t,
		`{"error":"Service temporarily unavailable","message":"Please try again in a moment"}`,
		w.Body.String())

	w = broken.do(http.MethodGet, "/broken", zh)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Invalid link configuration"}`, w.Body.String())
}

func TestRedirectConcurrentClicks(t *testing.T) {
	env := newTestEnv(t, envOptions{}, model.Link{Slug: "promo", LongURL: "https://example.com"})
	const n = 25

	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(http.MethodGet, "/promo", nil).Code
		}(i)
	}
	wg.Wait()
	env.wait(t)

	for _, code := range codes {
		assert.Equal(t, http.StatusFound, code)
	}
	assert.EqualValues(t, n, env.link(t, "promo").ClickCount)
	assert.LessOrEqual(t, len(env.clicks(t, "promo")), n)
}

func TestRedirectDoesNotWaitForEnrichment(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, envOptions{geoRelease: release}, model.Link{Slug: "promo", LongURL: "https://example.com"})

	start := time.Now()
	w := env.do(http.MethodGet, "/promo", map[string]string{"X-Forwarded-For": "198.51.100.4"})
	elapsed := time.Since(start)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Less(t, elapsed, time.Second)
	assert.Empty(t, env.clicks(t, "promo"))

	close(release)
	env.wait(t)

	clicks := env.clicks(t, "promo")
	require.Len(t, clicks, 1)
	require.NotNil(t, clicks[0].Country)
	assert.Equal(t, "Netherlands", *clicks[0].Country)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.do(http.MethodGet, "/api/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "golink_detached_tasks_in_flight")
}
