package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/concordapp/concord-backend/internal/config"
	"github.com/concordapp/concord-backend/internal/handler"
	"github.com/concordapp/concord-backend/internal/hub"
	appmw "github.com/concordapp/concord-backend/internal/middleware"
	"github.com/concordapp/concord-backend/internal/repository"
	"github.com/concordapp/concord-backend/internal/service"
	"github.com/concordapp/concord-backend/internal/uploader"
	"github.com/concordapp/concord-backend/internal/ws"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e          *echo.Echo
	memberRepo repository.MemberRepository
	msgRepo    repository.MessageRepository
	dmRepo     repository.DirectMessageRepository
	convRepo   repository.ConversationRepository
	sha        string
	build      string
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			host := u.Hostname()
			if strings.HasSuffix(host, "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	memberRepo := repository.NewMemberRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	dmRepo := repository.NewDirectMessageRepository(db)
	convRepo := repository.NewConversationRepository(db)

	var up service.Uploader
	if cfg.StorageBucket != "" {
		gcs, err := uploader.NewGCS(context.Background(), cfg.StorageBucket)
		if err != nil {
			e.Logger.Warnf("attachment uploader disabled: %v", err)
		} else {
			up = gcs
		}
	}

	broadcaster := hub.New()

	channelChat := service.NewChannelChat(memberRepo, msgRepo, broadcaster, up)
	directChat := service.NewDirectChat(convRepo, dmRepo, broadcaster, up)
	convSvc := service.NewConversationService(convRepo, memberRepo)

	msgHandler := handler.NewMessageHandler(channelChat)
	dmHandler := handler.NewDirectMessageHandler(directChat)
	convHandler := handler.NewConversationHandler(convSvc)
	gateway := ws.NewGateway(broadcaster, channelChat, directChat)

	var authMw *appmw.AuthMiddleware
	if cfg.FirebaseProjectID != "" {
		mw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
		if err != nil {
			e.Logger.Fatalf("failed to init firebase auth: %v", err)
		}
		authMw = mw
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	guard := []echo.MiddlewareFunc{}
	if authMw != nil {
		guard = append(guard, authMw.RequireAuth)
	}

	api.GET("/servers/:serverId/channels/:channelId/messages", msgHandler.List, guard...)
	api.POST("/servers/:serverId/channels/:channelId/messages", msgHandler.Create, guard...)
	api.PATCH("/servers/:serverId/channels/:channelId/messages/:messageId", msgHandler.Edit, guard...)
	api.DELETE("/servers/:serverId/channels/:channelId/messages/:messageId", msgHandler.Delete, guard...)

	api.POST("/conversations", convHandler.GetOrCreate, guard...)
	api.GET("/conversations/:conversationId/messages", dmHandler.List, guard...)
	api.POST("/conversations/:conversationId/messages", dmHandler.Create, guard...)
	api.PATCH("/conversations/:conversationId/messages/:messageId", dmHandler.Edit, guard...)
	api.DELETE("/conversations/:conversationId/messages/:messageId", dmHandler.Delete, guard...)

	e.GET("/ws", gateway.Handle, guard...)

	return &Server{
		e:          e,
		memberRepo: memberRepo,
		msgRepo:    msgRepo,
		dmRepo:     dmRepo,
		convRepo:   convRepo,
		sha:        sha,
		build:      buildTime,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB attaches a late-arriving database connection to every repository.
// The server accepts traffic before the DB is up; repositories answer
// ErrDBNotReady until then.
func (s *Server) SetDB(db *gorm.DB) {
	s.memberRepo.SetDB(db)
	s.msgRepo.SetDB(db)
	s.dmRepo.SetDB(db)
	s.convRepo.SetDB(db)
}
