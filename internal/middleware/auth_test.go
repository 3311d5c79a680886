package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/models"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
}

func protectedRouter(cfg config.AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{Auth(cfg)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.Hex()})
	})
	router.GET("/protected", chain...)
	return router
}

func TestAuth_ValidToken(t *testing.T) {
	cfg := testAuthConfig()
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice", Roles: []string{"USER"}}

	token, err := GenerateToken(user, cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(cfg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAuth_Rejections(t *testing.T) {
	cfg := testAuthConfig()
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice", Roles: []string{"USER"}}

	otherSecret := config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour}
	forged, _ := GenerateToken(user, otherSecret)

	expired, _ := GenerateToken(user, config.AuthConfig{JWTSecret: cfg.JWTSecret, TokenTTL: -time.Hour})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + forged},
		{"expired", "Bearer " + expired},
	}

	router := protectedRouter(cfg)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	cfg := testAuthConfig()
	router := protectedRouter(cfg, RequireRole("ADMIN"))

	admin := &models.User{ID: primitive.NewObjectID(), Username: "root", Roles: []string{"USER", "ADMIN"}}
	adminToken, _ := GenerateToken(admin, cfg)

	regular := &models.User{ID: primitive.NewObjectID(), Username: "alice", Roles: []string{"USER"}}
	regularToken, _ := GenerateToken(regular, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+regularToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("regular user: status = %d, want 403", w.Code)
	}
}
