package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/darasa/darasa/apps/api/echo"
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
	notifysvc "github.com/darasa/darasa/services/notify"
	uploadsvc "github.com/darasa/darasa/services/upload"
	"github.com/darasa/darasa/storage/inmem"
)

var (
	app Server

	usrRepo *inmem.UserRepo
	schRepo *inmem.SchoolRepo

	usrSvc  *user.Service
	schSvc  *school.Service
	stdSvc  *student.Service
	batSvc  *batch.Service
	gkSvc   *gatekeeper.Service
	attSvc  *attendance.Service
	chatSvc *chat.Service
	bilSvc  *billing.Service

	gateway = &fakeGateway{}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// repos & services
	usrRepo = inmem.NewUserRepo()
	schRepo = inmem.NewSchoolRepo()

	usrSvc = user.NewService(usrRepo, mailSvc, logger)
	schSvc = school.NewService(schRepo, mailSvc, logger)
	stdSvc = student.NewService(inmem.NewStudentRepo())
	batSvc = batch.NewService(inmem.NewBatchRepo())
	gkSvc = gatekeeper.NewService(inmem.NewGatekeeperRepo())

	hub := NewHub(logger)
	chatSvc = chat.NewService(inmem.NewChatRepo(), stdSvc, usrSvc, hub, logger)
	notifier := notifysvc.NewService(mailSvc, chatSvc, usrSvc, logger)
	attSvc = attendance.NewService(inmem.NewAttendanceRepo(), stdSvc, batSvc, schSvc, notifier, logger)
	bilSvc = billing.NewService(inmem.NewBillingRepo(), gateway, schSvc, logger)

	app = NewServer(
		&Options{
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			SchoolSvc:      schSvc,
			StudentSvc:     stdSvc,
			BatchSvc:       batSvc,
			GatekeeperSvc:  gkSvc,
			AttendanceSvc:  attSvc,
			ChatSvc:        chatSvc,
			BillingSvc:     bilSvc,
			ReportSvc:      report.NewService(attSvc, stdSvc, schSvc),
			UploadSvc:      uploadsvc.NewService(logger),
			Hub:            hub,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
		},
		make(chan os.Signal, 1),
	)

	os.Exit(m.Run())
}

// fakeGateway stands in for the payment provider; signatures are verified by
// string equality against "valid".
type fakeGateway struct {
	lastOrderID string
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	g.lastOrderID = "order_test_" + receipt
	return g.lastOrderID, nil
}

func (g *fakeGateway) VerifySignature(providerOrderID, paymentID, signature string) error {
	if signature != "valid" {
		return billing.ErrInvalidSignature
	}
	return nil
}

// Fixtures

func createSchool(t *testing.T, name string) school.School {
	t.Helper()
	sch, err := schSvc.Create(context.Background(), school.NewSchool{
		Name:          name,
		InstituteType: school.TypeSchool,
		TrialDays:     14,
	})
	if err != nil {
		t.Fatalf("creating school: %v", err)
	}
	return sch
}

func createUser(t *testing.T, schoolID, uname string, roles []string) user.User {
	t.Helper()
	usr := user.User{
		SchoolID: schoolID,
		Name:     uname,
		Username: uname,
		Email:    uname + "@test.cd",
		IsActive: true,
		Roles:    roles,
	}
	if err := usr.SetPassword("S3cret!pass"); err != nil {
		t.Fatalf("setting password: %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return usr
}

func createStudent(t *testing.T, schoolID, code, name string) student.Student {
	t.Helper()
	st, err := stdSvc.Create(context.Background(), schoolID, student.NewStudent{
		StudentID: code,
		FullName:  name,
	})
	if err != nil {
		t.Fatalf("creating student: %v", err)
	}
	return st
}

// HTTP helpers (mirrored from the admin CLI test style)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonDecode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
