// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"verigate/auth-api/config"
	"verigate/auth-api/db"
	"verigate/auth-api/middleware"
	"verigate/auth-api/pkg/security"
	"verigate/auth-api/service"
	"verigate/auth-api/store"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

type API struct {
	Router *gin.Engine
	Store  store.UserStore
	Auth   *service.Auth
}

// NewRouter wires the production stack: gorm store, SMTP mailer, auth
// service and all routes.
func NewRouter() (*API, error) {
	makeLogger()

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	userStore := store.NewGormStore(conn)

	auth := service.NewAuth(
		userStore,
		service.NewMailer(config.MailConfig()),
		security.NewArgonHash(),
		service.UTCClock{},
		config.AuthConfig(),
	)

	if key := viper.GetString("signup.abstract_api_key"); key != "" {
		auth = auth.WithEmailChecker(service.NewAbstractEmailChecker(key))
	}

	a := &API{
		Store: userStore,
		Auth:  auth,
	}
	a.setupRoutes()

	service.SessionCleanup(
		time.Duration(viper.GetInt("cleanup.interval_minutes"))*time.Minute,
		auth,
	)

	return a, nil
}

// setupRoutes builds the gin engine and registers every route. Split out
// of NewRouter so tests can stand up an API around fakes.
func (a *API) setupRoutes() {
	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	tokenAuth := middleware.NewTokenAuthMiddleware(a.Auth)
	limitAuth := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	})

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", a.Heartbeat)

	auth := router.Group("/auth", limitAuth)
	{
		// POST /auth/signup			-> Registers a new user and emails a PIN
		auth.POST("/signup", a.AuthSignup)

		// POST /auth/verify-email		-> Redeems the emailed PIN
		auth.POST("/verify-email", a.AuthVerifyEmail)

		// GET /auth/verify-email-existence/:email -> Deliverability probe
		auth.GET("/verify-email-existence/:email", cacheFor(60), a.AuthEmailExistence)

		// POST /auth/login			-> Issues an opaque bearer token
		auth.POST("/login", a.AuthLogin)

		// GET /auth/reset-login-attempts	-> Redeems an emailed reset link
		auth.GET("/reset-login-attempts", a.AuthResetLoginAttempts)

		// GET /auth/reset-verification-attempts -> Same, verification family
		auth.GET("/reset-verification-attempts", a.AuthResetVerificationAttempts)

		// POST /auth/logout			-> Revokes the bearer token
		auth.POST("/logout", a.AuthLogout)

		// GET /auth/token/validate		-> Validates the bearer token
		auth.GET("/token/validate", a.AuthTokenValidate)

		// Social login is not implemented; routes exist as stubs only
		auth.GET("/google", a.AuthGoogleStub)
		auth.GET("/google/callback", a.AuthGoogleStub)
	}

	users := router.Group("/users", tokenAuth)
	{
		// PUT /users/:id			-> Updates the authenticated user
		users.PUT("/:id", a.UserUpdate)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
