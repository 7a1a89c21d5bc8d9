package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/api/middleware"
	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filemanager/internal/providers/auth"
	"github.com/GriffinCanCode/filemanager/internal/providers/filesystem"
	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// DefaultCookieName is used when no cookie configuration is supplied.
const DefaultCookieName = "fm_session"

// actionKey is the gin context key the access log reads.
const actionKey = "action"

// HandlerFunc runs one action. sess is nil for public actions.
type HandlerFunc func(c *gin.Context, sess *session.Session) error

type action struct {
	public bool
	handle HandlerFunc
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Dispatcher maps action names to file, archive and auth operations.
type Dispatcher struct {
	guard    *auth.Guard
	files    *filesystem.Ops
	archives *filesystem.ArchiveEngine
	metrics  *monitoring.Metrics
	log      *zap.Logger
	cookie   CookieConfig
	actions  map[string]action
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records per-action metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithCookie sets the session cookie parameters.
func WithCookie(cfg CookieConfig) Option {
	return func(d *Dispatcher) {
		if cfg.Name != "" {
			d.cookie = cfg
		}
	}
}

// NewDispatcher builds the action table.
func NewDispatcher(guard *auth.Guard, files *filesystem.Ops, archives *filesystem.ArchiveEngine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		guard:    guard,
		files:    files,
		archives: archives,
		log:      zap.NewNop(),
		cookie:   CookieConfig{Name: DefaultCookieName},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.actions = map[string]action{
		"login":           {public: true, handle: d.login},
		"logout":          {public: true, handle: d.logout},
		"list":            {handle: d.list},
		"create":          {handle: d.create},
		"rename":          {handle: d.rename},
		"delete":          {handle: d.delete},
		"read":            {handle: d.read},
		"write":           {handle: d.write},
		"upload":          {handle: d.upload},
		"download":        {handle: d.download},
		"compress":        {handle: d.compress},
		"extract":         {handle: d.extract},
		"move":            {handle: d.move},
		"change_password": {handle: d.changePassword},
	}
	return d
}

// Register mounts both action routes on r.
func (d *Dispatcher) Register(r gin.IRoutes) {
	r.Any("/api", d.Serve)
	r.Any("/api/:action", d.Serve)
}

// Actions returns the registered action names.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.actions))
	for name := range d.actions {
		names = append(names, name)
	}
	return names
}

// Serve dispatches one request.
func (d *Dispatcher) Serve(c *gin.Context) {
	name := c.Param("action")
	if name == "" {
		name = c.Query("action")
	}
	c.Set(actionKey, name)

	act, known := d.actions[name]
	label := name
	if !known {
		label = "unknown"
	}
	var timer *monitoring.Timer
	if d.metrics != nil {
		timer = monitoring.NewTimer(d.metrics, label)
	}

	err := d.run(c, name, act, known)
	if timer != nil {
		timer.Stop(outcome(err))
	}
	if err != nil {
		d.fail(c, name, err)
	}
}

func (d *Dispatcher) run(c *gin.Context, name string, act action, known bool) error {
	// The gate runs before the lookup, so unknown actions answer
	// unauthenticated callers with "Not authenticated".
	var sess *session.Session
	if !known || !act.public {
		var ok bool
		sess, ok = d.guard.Authenticated(c.Request.Context(), d.token(c))
		if !ok {
			return errs.New(errs.AuthenticationRequired, "Not authenticated")
		}
	}
	if !known {
		return errs.New(errs.ValidationFailure, "Invalid action")
	}
	return act.handle(c, sess)
}

func (d *Dispatcher) fail(c *gin.Context, name string, err error) {
	kind := errs.KindOf(err)
	fields := []zap.Field{
		zap.String("action", name),
		zap.String("kind", kind.String()),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	}
	if kind == errs.Unknown || kind == errs.IOFailure {
		d.log.Error("Action failed", fields...)
	} else {
		d.log.Debug("Action refused", fields...)
	}

	if c.Writer.Written() {
		// A stream already started; nothing sensible can follow it.
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), failure(errs.Message(err)))
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return errs.KindOf(err).String()
}

func (d *Dispatcher) token(c *gin.Context) string {
	token, err := c.Cookie(d.cookie.Name)
	if err != nil {
		return ""
	}
	return token
}

func (d *Dispatcher) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(d.cookie.Name, token, int(d.cookie.MaxAge/time.Second), "/", "", d.cookie.Secure, true)
}

func (d *Dispatcher) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(d.cookie.Name, "", -1, "/", "", d.cookie.Secure, true)
}

// input returns the first named field present in the form or the query.
func input(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v, ok := c.GetPostForm(name); ok {
			return v
		}
		if v, ok := c.GetQuery(name); ok {
			return v
		}
	}
	return ""
}

// inputs returns every value of the first repeated field present.
func inputs(c *gin.Context, names ...string) []string {
	for _, name := range names {
		if v, ok := c.GetPostFormArray(name); ok && len(v) > 0 {
			return v
		}
		if v, ok := c.GetQueryArray(name); ok && len(v) > 0 {
			return v
		}
	}
	return nil
}

// bodyTooLarge reports whether err came from a MaxBytesReader limit.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
