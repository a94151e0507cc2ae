package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/darasa/darasa/apps/api/echo"
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
	emailsvc "github.com/darasa/darasa/services/email"
	logsvc "github.com/darasa/darasa/services/logger"
	notifysvc "github.com/darasa/darasa/services/notify"
	paymentsvc "github.com/darasa/darasa/services/payment"
	uploadsvc "github.com/darasa/darasa/services/upload"
	"github.com/darasa/darasa/storage/database"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := setUpDB(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(database.NewUserRepo(db), mailSvc, logger)
	schSvc := school.NewService(database.NewSchoolRepo(db), mailSvc, logger)
	stdSvc := student.NewService(database.NewStudentRepo(db))
	batSvc := batch.NewService(database.NewBatchRepo(db))
	gkSvc := gatekeeper.NewService(database.NewGatekeeperRepo(db))

	hub := echoapi.NewHub(logger)
	chatSvc := chat.NewService(database.NewChatRepo(db), stdSvc, usrSvc, hub, logger)
	notifier := notifysvc.NewService(mailSvc, chatSvc, usrSvc, logger)
	attSvc := attendance.NewService(database.NewAttendanceRepo(db), stdSvc, batSvc, schSvc, notifier, logger)
	repSvc := report.NewService(attSvc, stdSvc, schSvc)
	bilSvc := billing.NewService(database.NewBillingRepo(db), paymentsvc.NewRazorpayGateway(logger), schSvc, logger)
	uplSvc := uploadsvc.NewService(logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			UserSvc:       usrSvc,
			SchoolSvc:     schSvc,
			StudentSvc:    stdSvc,
			BatchSvc:      batSvc,
			GatekeeperSvc: gkSvc,
			AttendanceSvc: attSvc,
			ChatSvc:       chatSvc,
			BillingSvc:    bilSvc,
			ReportSvc:     repSvc,
			UploadSvc:     uplSvc,
			Hub:           hub,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
		},
		shutdown,
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
