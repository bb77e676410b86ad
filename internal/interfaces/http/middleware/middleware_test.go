package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/interfaces/http/middleware"
	"story-loop-api/pkg/utils"
)

type fakeLimiter struct {
	mu    sync.Mutex
	allow bool
	err   error
	keys  []string
	limit int
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.limit = limit
	return f.allow, f.err
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func echoUser(c *gin.Context) {
	c.String(http.StatusOK, c.GetString("user_id"))
}

var _ = Describe("RequestID", func() {
	It("should generate an id when none is sent", func() {
		r := gin.New()
		r.Use(middleware.RequestID())
		r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))

		Expect(w.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
		Expect(w.Body.String()).To(Equal(w.Header().Get(middleware.RequestIDHeader)))
	})

	It("should keep the caller's id", func() {
		r := gin.New()
		r.Use(middleware.RequestID())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		w := serve(r, req)

		Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal("req-42"))
	})
})

var _ = Describe("Auth", func() {
	const secret = "test-secret"

	newRouter := func(enabled bool) *gin.Engine {
		r := gin.New()
		r.Use(middleware.Auth(middleware.AuthConfig{
			Secret:    secret,
			Issuer:    "story-loop",
			SkipPaths: middleware.DefaultSkipPaths,
			Enabled:   enabled,
		}))
		r.GET("/v1/me", echoUser)
		r.GET("/health", echoUser)
		return r
	}

	It("should take the owner from the header when disabled", func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set(middleware.UserIDHeader, "alice")

		w := serve(newRouter(false), req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("alice"))
	})

	It("should reject missing tokens when enabled", func() {
		w := serve(newRouter(true), httptest.NewRequest(http.MethodGet, "/v1/me", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should skip health paths", func() {
		w := serve(newRouter(true), httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should accept a valid access token", func() {
		token, err := utils.NewJWTManager(secret, "story-loop").GenerateToken("bob", utils.TokenTypeAccess, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(newRouter(true), req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("bob"))
	})

	It("should reject refresh tokens", func() {
		token, err := utils.NewJWTManager(secret, "story-loop").GenerateToken("bob", utils.TokenTypeRefresh, time.Minute)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		Expect(serve(newRouter(true), req).Code).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("RateLimit", func() {
	newRouter := func(limiter middleware.RateLimiter) *gin.Engine {
		r := gin.New()
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{Enabled: true, RequestsPerSecond: 5, Burst: 2}, limiter))
		r.GET("/v1/jobs/:jid", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	It("should key by route template and add the burst", func() {
		limiter := &fakeLimiter{allow: true}

		w := serve(newRouter(limiter), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(limiter.limit).To(Equal(7))
		Expect(limiter.keys).To(HaveLen(1))
		Expect(limiter.keys[0]).To(HaveSuffix(":/v1/jobs/:jid"))
	})

	It("should reject when the limiter denies", func() {
		w := serve(newRouter(&fakeLimiter{allow: false}), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))
		Expect(w.Code).To(Equal(http.StatusTooManyRequests))
	})

	It("should fail open on limiter errors", func() {
		w := serve(newRouter(&fakeLimiter{err: errors.New("redis down")}), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Recovery", func() {
	It("should turn panics into 500 responses", func() {
		r := gin.New()
		r.Use(middleware.Recovery())
		r.GET("/boom", func(*gin.Context) { panic("boom") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
