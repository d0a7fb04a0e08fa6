package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimitMiddlewarePassthroughWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/login", RateLimitMiddleware(nil, RateLimitRule{
		WindowSeconds: 60,
		MaxRequests:   5,
	}, KeyByIP), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Redis 未配置时限流直接放行
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d want 200 got %d", i, w.Code)
		}
	}
}

func TestRateLimitMiddlewarePassthroughWithoutRule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/login", RateLimitMiddleware(nil, RateLimitRule{}, nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", w.Code)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", value: int64(42), want: 42, ok: true},
		{name: "int", value: 7, want: 7, ok: true},
		{name: "int32", value: int32(-3), want: -3, ok: true},
		{name: "uint32", value: uint32(9), want: 9, ok: true},
		{name: "float64", value: float64(5.9), want: 5, ok: true},
		{name: "string", value: "42", want: 0, ok: false},
		{name: "nil", value: nil, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.value)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("toInt64(%v) want (%d, %v) got (%d, %v)", tc.value, tc.want, tc.ok, got, ok)
			}
		})
	}
}
