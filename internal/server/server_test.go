package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"healthbot/internal/ai"
	"healthbot/internal/config"
	"healthbot/internal/pkg/jwt"
	"healthbot/internal/repository/memstore"
)

type cannedChatModel struct{}

func (cannedChatModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(`{"content":"hello","mood_dimensions":{"mood":0,"stress":5,"anxiety":5,"energy":5,"motivation":5,"loneliness":5,"confidence":5,"hope":5}}`, nil), nil
}

func (cannedChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func newTestServer(cfg *config.Config) *Server {
	infra := &Infra{
		Store: memstore.New().Repositories(),
		AI:    ai.NewClientWithModels(cannedChatModel{}, nil, time.Second),
	}
	return NewWithInfra(cfg, infra)
}

func request(s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestServer(t *testing.T) {
	Convey("Server 路由", t, func() {
		cfg := &config.Config{
			Server:   config.ServerConfig{Port: 8080, Mode: "test"},
			Dialogue: config.DefaultDialogueConfig(),
		}

		Convey("健康检查", func() {
			s := newTestServer(cfg)
			So(request(s, http.MethodGet, "/health", "", "").Code, ShouldEqual, http.StatusOK)

			w := request(s, http.MethodGet, "/ready", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ready"`)
		})

		Convey("未配置 JWT 时使用查询参数", func() {
			s := newTestServer(cfg)
			w := request(s, http.MethodPost, "/api/v1/conversations?user_id=u1", `{"first_message":"hi"}`, "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
		})

		Convey("配置 JWT 后需要 Token", func() {
			cfg.Auth = config.AuthConfig{JWTSecret: "s3cret", AccessTokenExpiry: time.Hour}
			s := newTestServer(cfg)

			w := request(s, http.MethodGet, "/api/v1/conversations?user_id=u1", "", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)

			token, err := jwt.NewJWT("s3cret", time.Hour).GenerateToken("u1", false)
			So(err, ShouldBeNil)
			w = request(s, http.MethodPost, "/api/v1/conversations", `{"first_message":"hi"}`, token)
			So(w.Code, ShouldEqual, http.StatusCreated)

			w = request(s, http.MethodGet, "/api/v1/conversations", "", token)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total":1`)
		})

		Convey("刷新目录", func() {
			s := newTestServer(cfg)
			w := request(s, http.MethodPost, "/api/v1/admin/mood-catalog/invalidate?user_id=admin", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"dimensions":8`)
		})
	})
}
