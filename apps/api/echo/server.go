package echoapi

import (
	"context"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/billing"
	"github.com/darasa/darasa/core/chat"
	"github.com/darasa/darasa/core/gatekeeper"
	"github.com/darasa/darasa/core/report"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
	"github.com/darasa/darasa/core/user"
	uploadsvc "github.com/darasa/darasa/services/upload"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc       *user.Service
		SchoolSvc     *school.Service
		StudentSvc    *student.Service
		BatchSvc      *batch.Service
		GatekeeperSvc *gatekeeper.Service
		AttendanceSvc *attendance.Service
		ChatSvc       *chat.Service
		BillingSvc    *billing.Service
		ReportSvc     *report.Service
		UploadSvc     *uploadsvc.Service

		Hub        *Hub
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, shutdown chan os.Signal) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) signalShutdown() {
	s.shutdown <- os.Interrupt
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)
	s.app.Static(core.Conf.Upload.BaseURL, core.Conf.Upload.Dir)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	sub := subscriptionMiddleware(s.opts.SchoolSvc)

	registerUserAPI(v1, jwt, s.opts)
	registerSchoolAPI(v1, jwt, s.opts)
	registerStudentAPI(v1, jwt, sub, s.opts)
	registerBatchAPI(v1, jwt, sub, s.opts)
	registerGatekeeperAPI(v1, jwt, sub, s.opts)
	registerAttendanceAPI(v1, jwt, sub, s.opts)
	registerChatAPI(v1, jwt, sub, s.opts)
	registerBillingAPI(v1, jwt, s.opts)
	registerUploadAPI(v1, jwt, sub, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
