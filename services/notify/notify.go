// Package notifysvc delivers attendance events to parents: an email per
// entry/exit, plus a chat-thread note so the record shows up in the app.
package notifysvc

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/chat"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
	"github.com/darasa/darasa/core/user"
)

type Service struct {
	mailSvc core.EmailService
	chatSvc *chat.Service
	users   *user.Service
	logger  core.Logger
}

var _ attendance.Notifier = (*Service)(nil)

func NewService(mailSvc core.EmailService, chatSvc *chat.Service, users *user.Service, logger core.Logger) *Service {
	return &Service{mailSvc: mailSvc, chatSvc: chatSvc, users: users, logger: logger}
}

func (svc *Service) EntryRecorded(ctx context.Context, sch school.School, st student.Student, e attendance.Entry) {
	when := e.EntryTime.In(sch.Location()).Format("15:04")
	line := fmt.Sprintf("%s arrived at %s.", st.FullName, when)
	if e.IsLate {
		line = fmt.Sprintf("%s arrived late at %s.", st.FullName, when)
	}
	svc.deliver(ctx, sch, st, "attendance-entry", "Arrival recorded", line, e)
}

func (svc *Service) ExitRecorded(ctx context.Context, sch school.School, st student.Student, e attendance.Entry) {
	if !e.ExitTime.Valid {
		return
	}
	when := e.ExitTime.Time.In(sch.Location()).Format("15:04")
	line := fmt.Sprintf("%s left at %s.", st.FullName, when)
	if e.Status == attendance.StatusEarlyDeparture {
		line = fmt.Sprintf("%s left early at %s.", st.FullName, when)
	}
	svc.deliver(ctx, sch, st, "attendance-exit", "Departure recorded", line, e)
}

func (svc *Service) deliver(ctx context.Context, sch school.School, st student.Student, tmpl, subject, line string, e attendance.Entry) {
	if st.ParentEmail != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: st.ParentName, Address: st.ParentEmail}},
			Subject:      subject,
			TemplateName: tmpl,
			TemplateData: struct {
				SchoolName  string
				StudentName string
				Line        string
				Date        string
			}{sch.Name, st.FullName, line, e.Date.Format("Mon, 2 Jan 2006")},
		})
	}

	// drop the same line into the parent's chat thread; delivery here rides
	// the websocket push when the parent is online
	go func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.chatNote(dctx, sch, st, line); err != nil {
			svc.logger.Warn("posting attendance chat note", errors.Wrapf(err, "student %s", st.ID))
		}
	}()
}

func (svc *Service) chatNote(ctx context.Context, sch school.School, st student.Student, line string) error {
	if svc.chatSvc == nil {
		return nil
	}
	parent, err := svc.parentOf(ctx, sch.ID, st.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil // no parent account yet
		}
		return err
	}
	conv, err := svc.chatSvc.Start(ctx, sch.ID, st.ID, parent.ID)
	if err != nil {
		return err
	}
	_, err = svc.chatSvc.Send(ctx, conv, "", chat.SenderAdmin, chat.NewMessage{Body: line})
	return err
}

func (svc *Service) parentOf(ctx context.Context, schoolID, studentID string) (user.User, error) {
	active := true
	parents, err := svc.users.Query(ctx, schoolID, &user.QueryFilter{
		Roles:    []string{user.RoleParent},
		IsActive: &active,
	})
	if err != nil {
		return user.User{}, err
	}
	for _, p := range parents {
		for _, id := range p.StudentIDs {
			if id == studentID {
				return p, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}
