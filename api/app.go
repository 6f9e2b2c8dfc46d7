package api

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-campus/middleware/jwtware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	userContextKey   = "user"
	claimsContextKey = "claims"
)

// Options controls the HTTP surface.
type Options struct {
	Prefix          string
	ProjectName     string
	Version         string
	AllowedOrigins  string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	// AccessLog enables the fiber request logger.
	AccessLog bool
	// Registerer and Gatherer back /metrics. Both default to a fresh
	// registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     campus.Logger
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "/api"
	}
	o.Prefix = "/" + strings.Trim(o.Prefix, "/")
	if o.ProjectName == "" {
		o.ProjectName = "Event Manager API"
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.AllowedOrigins == "" {
		o.AllowedOrigins = "*"
	}
	if o.LoginRateLimit <= 0 {
		o.LoginRateLimit = 20
	}
	if o.LoginRateWindow <= 0 {
		o.LoginRateWindow = time.Minute
	}
	if o.Registerer == nil || o.Gatherer == nil {
		reg := prometheus.NewRegistry()
		o.Registerer, o.Gatherer = reg, reg
	}
	if o.Logger == nil {
		o.Logger = campus.DefaultLogger()
	}
	return o
}

// NewApp builds the fiber application with every route mounted under
// opts.Prefix.
func NewApp(svc *Services, opts Options) *fiber.App {
	opts = opts.withDefaults()

	app := fiber.New(fiber.Config{
		AppName:      opts.ProjectName,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: NewErrorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(newHTTPMetrics(opts.Registerer).middleware)

	h := &handlers{svc: svc, opts: opts}

	app.Get("/", h.info)
	app.Get("/health", h.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	registerRoutes(app.Group(opts.Prefix), h, opts)

	return app
}

func registerRoutes(api fiber.Router, h *handlers, opts Options) {
	exempt := map[string]bool{
		opts.Prefix + "/auth/me":              true,
		opts.Prefix + "/auth/change-password": true,
	}

	protected := jwtware.New(jwtware.Config{
		Authenticator:    h.svc.Guard,
		ContextKey:       userContextKey,
		ClaimsContextKey: claimsContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return err
		},
		ValidationListeners: []jwtware.ValidationListener{
			func(c *fiber.Ctx, user *campus.User, _ *campus.Claims) error {
				if exempt[strings.TrimRight(c.Path(), "/")] {
					return h.svc.Guard.RequireActive(user)
				}
				return h.svc.Guard.Authorize(user)
			},
		},
	})

	admin := func(c *fiber.Ctx) error {
		if err := campus.RequireAdmin(currentUser(c)); err != nil {
			return err
		}
		return c.Next()
	}

	throttle := limiter.New(limiter.Config{
		Max:        opts.LoginRateLimit,
		Expiration: opts.LoginRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, slow down")
		},
	})

	auth := api.Group("/auth")
	auth.Post("/signup", throttle, h.signup)
	auth.Post("/login", throttle, h.login)
	auth.Get("/me", protected, h.me)
	auth.Post("/change-password", protected, h.changePassword)

	colleges := api.Group("/colleges")
	colleges.Get("/", h.listColleges)
	colleges.Post("/", protected, admin, h.createCollege)
	colleges.Get("/:id", protected, h.getCollege)
	colleges.Delete("/:id", protected, admin, h.deleteCollege)

	events := api.Group("/events", protected)
	events.Get("/", h.listEvents)
	events.Post("/", admin, h.createEvent)
	events.Get("/:id", h.getEvent)
	events.Put("/:id", admin, h.updateEvent)
	events.Delete("/:id", admin, h.deleteEvent)

	regs := api.Group("/registrations", protected)
	regs.Get("/my-registrations", h.myRegistrations)
	regs.Post("/events/:id/register", h.register)
	regs.Delete("/events/:id/register", h.unregister)
	regs.Get("/events/:id/registrations", h.eventRegistrations)

	users := api.Group("/users", protected)
	users.Patch("/me", h.updateMe)
	users.Post("/", admin, h.createUser)
	users.Get("/", admin, h.listUsers)
	users.Get("/:id", admin, h.getUser)
	users.Patch("/:id/activate", admin, h.activateUser)
	users.Patch("/:id/deactivate", admin, h.deactivateUser)
	users.Patch("/:id/verify-student", admin, h.verifyStudent)
	users.Delete("/:id", admin, h.deleteUser)
}

func currentUser(c *fiber.Ctx) *campus.User {
	user, _ := jwtware.UserFromLocals(c, userContextKey)
	return user
}
