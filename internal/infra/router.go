package infra

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/amalieborg/bridal-crm/internal/auth"
	"github.com/amalieborg/bridal-crm/internal/cache"
	"github.com/amalieborg/bridal-crm/internal/handlers"
	"github.com/amalieborg/bridal-crm/internal/middleware"
	"github.com/amalieborg/bridal-crm/internal/ratelimit"
	"github.com/amalieborg/bridal-crm/internal/session"
	"github.com/amalieborg/bridal-crm/internal/storage"
	"github.com/amalieborg/bridal-crm/internal/validation"
)

// Deps are the explicitly constructed collaborators the router wires
// together. Nothing here is ambient state.
type Deps struct {
	Cache          *cache.CustomerCache
	Debouncer      *cache.SearchDebouncer
	AuthClient     *auth.Client
	Throttle       *ratelimit.Throttle
	Storage        *storage.Client
	TokenValidator *auth.TokenValidator
	Guard          *session.Guard
}

// Router assembles the echo application.
func Router(deps Deps) (*echo.Echo, error) {
	e := echo.New()

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		c.Logger().Error(err.Error())
		e.DefaultHTTPErrorHandler(err, c)
	}

	enLocale := en.New()
	unvTranslator := ut.New(enLocale, enLocale)
	trans, ok := unvTranslator.GetTranslator("en")
	if !ok {
		return nil, errors.New("failed to build echo validator because of missing en translations")
	}
	e.Validator = validation.Echo(validator.New(), trans)

	// Middleware
	authorizeMw := middleware.Authorize(deps.TokenValidator, deps.Guard)

	// Handlers
	authHandler := handlers.NewAuthHandler(deps.AuthClient, deps.Throttle)
	custHandler := handlers.NewCustomerHandler(deps.Cache, deps.Debouncer)
	docHandler := handlers.NewDocumentHandler(deps.Storage, deps.Cache)

	// API routes
	api := e.Group("/api")

	// auth
	authAPI := api.Group("/auth")
	authAPI.POST("/login", authHandler.Login)
	authAPI.POST("/logout", authHandler.Logout, authorizeMw)
	authAPI.GET("/session", authHandler.Session, authorizeMw)

	// customers
	customersAPI := api.Group("/customers", authorizeMw)
	customersAPI.GET("", custHandler.GetAll)
	customersAPI.GET("/:id", custHandler.Get)
	customersAPI.POST("", custHandler.Post)
	customersAPI.PUT("/:id", custHandler.Put)
	customersAPI.DELETE("/:id", custHandler.DeleteByID)
	customersAPI.POST("/refresh", custHandler.Refresh)
	customersAPI.POST("/:id/invoice", docHandler.UploadInvoice)
	customersAPI.POST("/:id/supplier", docHandler.UploadSupplierDocument)

	return e, nil
}
