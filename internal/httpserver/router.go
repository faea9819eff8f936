package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/authservice/internal/middleware/csrf"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *AuthHTTP
	AccountHandler *AccountHTTP
	Gate           *AuthGate
	// CSRF is nil when JWT_CSRF_PROTECTION is off.
	CSRF *csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	var mw []echo.MiddlewareFunc
	if d.CSRF != nil {
		mw = append(mw, csrf.Middleware(*d.CSRF))
	}
	api := e.Group("", mw...)

	auth := api.Group("/auth")
	auth.GET("/csrf", d.AuthHandler.CSRFToken)
	auth.POST("/register", d.AccountHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)

	api.POST("/reset-password/request", d.AccountHandler.RequestPasswordReset)
	api.POST("/reset-password/:token", d.AccountHandler.ResetPassword)
	api.POST("/verify-email/:token", d.AccountHandler.VerifyEmail)

	user := api.Group("/user", d.Gate.RequireAuth)
	user.GET("/me", d.AccountHandler.Me)
	user.GET("/:id", d.AccountHandler.GetUser)
	user.DELETE("/:id", d.AccountHandler.DeleteUser)
	user.PATCH("/:id/active", d.AccountHandler.SetActive, d.Gate.AdminOrReadOnly)
}
