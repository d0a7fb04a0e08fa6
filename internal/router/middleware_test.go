package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int    `json:"status_code"`
	Msg        string `json:"msg"`
}

type fakeAdminRepo struct {
	admin *models.Admin
}

func (r *fakeAdminRepo) GetByID(id uint) (*models.Admin, error) {
	if r.admin != nil && r.admin.ID == id {
		return r.admin, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAdminRepo) GetByUsername(username string) (*models.Admin, error) {
	if r.admin != nil && r.admin.Username == username {
		return r.admin, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAdminRepo) Create(admin *models.Admin) error              { return nil }
func (r *fakeAdminRepo) Update(admin *models.Admin) error              { return nil }
func (r *fakeAdminRepo) Delete(id uint) error                          { return nil }
func (r *fakeAdminRepo) ListAll() ([]models.Admin, error)              { return nil, nil }
func (r *fakeAdminRepo) UpdateLastLogin(id uint, at time.Time) error   { return nil }
func (r *fakeAdminRepo) BumpTokenVersion(id uint) error                { return nil }
func (r *fakeAdminRepo) WithTx(tx *gorm.DB) *repository.GormAdminRepository {
	return nil
}

func newAuthEngine(secretKey, adminAPIKey string, repo repository.AdminRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/admin/ping", AdminAuthMiddleware(secretKey, adminAPIKey, repo), func(c *gin.Context) {
		isSuper, _ := c.Get(adminIsSuperContextKey)
		c.JSON(http.StatusOK, gin.H{
			"status_code": 0,
			"admin_id":    c.GetUint("admin_id"),
			"is_super":    isSuper,
		})
	})
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	engine.ServeHTTP(w, req)
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v body=%s", err, w.Body.String())
	}
	return w, body
}

func signTestToken(t *testing.T, secret string, claims service.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return signed
}

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		name        string
		origin      string
		allowed     []string
		credentials bool
		want        string
	}{
		{name: "wildcard", origin: "https://a.example.com", allowed: []string{"*"}, want: "*"},
		{name: "wildcard with credentials echoes origin", origin: "https://a.example.com", allowed: []string{"*"}, credentials: true, want: "https://a.example.com"},
		{name: "exact match", origin: "https://admin.example.com", allowed: []string{"https://admin.example.com"}, want: "https://admin.example.com"},
		{name: "case insensitive match", origin: "https://Admin.Example.com", allowed: []string{"https://admin.example.com"}, want: "https://Admin.Example.com"},
		{name: "no match", origin: "https://evil.example.com", allowed: []string{"https://admin.example.com"}, want: ""},
		{name: "empty origin", origin: "", allowed: []string{"https://admin.example.com"}, want: ""},
		{name: "empty allowlist", origin: "https://a.example.com", allowed: nil, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.credentials); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ping", RequestIDMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, getRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	engine.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id header want req-123 got %q", w.Header().Get(requestIDHeader))
	}
	if w.Body.String() != "req-123" {
		t.Fatalf("context request id want req-123 got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id should be generated when header missing")
	}
}

func TestAdminAuthAPIKey(t *testing.T) {
	engine := newAuthEngine("secret", "service-key", &fakeAdminRepo{})

	w, body := doRequest(t, engine, map[string]string{adminAPIKeyHeader: "service-key"})
	if w.Code != http.StatusOK || body.StatusCode != 0 {
		t.Fatalf("valid api key want status_code 0 got %d (%s)", body.StatusCode, body.Msg)
	}

	_, body = doRequest(t, engine, map[string]string{adminAPIKeyHeader: "wrong-key"})
	if body.StatusCode != 401 {
		t.Fatalf("wrong api key want status_code 401 got %d", body.StatusCode)
	}

	// 未配置服务凭证时拒绝所有 X-Admin-Key 请求
	unconfigured := newAuthEngine("secret", "", &fakeAdminRepo{})
	_, body = doRequest(t, unconfigured, map[string]string{adminAPIKeyHeader: "service-key"})
	if body.StatusCode != 401 {
		t.Fatalf("unconfigured api key want status_code 401 got %d", body.StatusCode)
	}
}

func TestAdminAuthMissingConfig(t *testing.T) {
	engine := newAuthEngine("", "", nil)
	w, body := doRequest(t, engine, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("envelope always rides on 200 got %d", w.Code)
	}
	if body.StatusCode != 401 {
		t.Fatalf("missing config want status_code 401 got %d", body.StatusCode)
	}
}

func TestAdminAuthHeaderErrors(t *testing.T) {
	engine := newAuthEngine("secret", "", &fakeAdminRepo{})

	_, body := doRequest(t, engine, nil)
	if body.StatusCode != 401 {
		t.Fatalf("missing header want status_code 401 got %d", body.StatusCode)
	}

	_, body = doRequest(t, engine, map[string]string{"Authorization": "Token abc"})
	if body.StatusCode != 401 {
		t.Fatalf("malformed header want status_code 401 got %d", body.StatusCode)
	}

	_, body = doRequest(t, engine, map[string]string{"Authorization": "Bearer not-a-token"})
	if body.StatusCode != 401 {
		t.Fatalf("garbage token want status_code 401 got %d", body.StatusCode)
	}
}

func TestAdminAuthJWT(t *testing.T) {
	admin := &models.Admin{ID: 7, Username: "ops", TokenVersion: 2}
	repo := &fakeAdminRepo{admin: admin}
	engine := newAuthEngine("secret", "", repo)

	claims := service.JWTClaims{
		AdminID:      7,
		Username:     "ops",
		TokenVersion: 2,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	w, body := doRequest(t, engine, map[string]string{
		"Authorization": "Bearer " + signTestToken(t, "secret", claims),
	})
	if w.Code != http.StatusOK || body.StatusCode != 0 {
		t.Fatalf("valid token want status_code 0 got %d (%s)", body.StatusCode, body.Msg)
	}

	// 密钥不一致
	_, body = doRequest(t, engine, map[string]string{
		"Authorization": "Bearer " + signTestToken(t, "other-secret", claims),
	})
	if body.StatusCode != 401 {
		t.Fatalf("wrong secret want status_code 401 got %d", body.StatusCode)
	}

	// Token 版本落后
	stale := claims
	stale.TokenVersion = 1
	_, body = doRequest(t, engine, map[string]string{
		"Authorization": "Bearer " + signTestToken(t, "secret", stale),
	})
	if body.StatusCode != 401 {
		t.Fatalf("stale token version want status_code 401 got %d", body.StatusCode)
	}

	// 早于 TokenInvalidBefore 签发的 Token 失效
	cutoff := time.Now().Add(time.Minute)
	admin.TokenInvalidBefore = &cutoff
	_, body = doRequest(t, engine, map[string]string{
		"Authorization": "Bearer " + signTestToken(t, "secret", claims),
	})
	if body.StatusCode != 401 {
		t.Fatalf("token issued before cutoff want status_code 401 got %d", body.StatusCode)
	}

	// 未知管理员
	admin.TokenInvalidBefore = nil
	unknown := claims
	unknown.AdminID = 9999
	_, body = doRequest(t, engine, map[string]string{
		"Authorization": "Bearer " + signTestToken(t, "secret", unknown),
	})
	if body.StatusCode != 401 {
		t.Fatalf("unknown admin want status_code 401 got %d", body.StatusCode)
	}
}

func TestIsIssuedAfterInvalidBefore(t *testing.T) {
	now := time.Now()
	if !isIssuedAfterInvalidBefore(jwt.NewNumericDate(now), nil) {
		t.Fatalf("nil cutoff should accept any token")
	}
	if isIssuedAfterInvalidBefore(nil, &now) {
		t.Fatalf("missing issued-at with cutoff should be rejected")
	}
	before := now.Add(-time.Minute)
	if isIssuedAfterInvalidBefore(jwt.NewNumericDate(before), &now) {
		t.Fatalf("token issued before cutoff should be rejected")
	}
	after := now.Add(time.Minute)
	if !isIssuedAfterInvalidBefore(jwt.NewNumericDate(after), &now) {
		t.Fatalf("token issued after cutoff should be accepted")
	}
	if !isIssuedAfterInvalidBeforeUnix(jwt.NewNumericDate(after), now.Unix()) {
		t.Fatalf("unix variant should accept token issued after cutoff")
	}
	if isIssuedAfterInvalidBeforeUnix(jwt.NewNumericDate(before), now.Unix()) {
		t.Fatalf("unix variant should reject token issued before cutoff")
	}
}
