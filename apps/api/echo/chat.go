package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/chat"
	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/user"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth happens via JWT before the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

type chatApi struct {
	svc       *chat.Service
	userSvc   *user.Service
	schoolSvc *school.Service
	validate  *validator.Validate
	hub       *Hub
}

func registerChatAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := chatApi{
		svc:       opts.ChatSvc,
		userSvc:   opts.UserSvc,
		schoolSvc: opts.SchoolSvc,
		validate:  opts.Validate,
		hub:       opts.Hub,
	}

	cg := g.Group("/chat", jwt, sub)
	cg.GET("/conversations", api.queryConversations)
	cg.POST("/conversations", api.startConversation)
	cg.GET("/conversations/:id/messages", api.messages)
	cg.POST("/conversations/:id/messages", api.sendMessage)
	cg.GET("/unread", api.unreadCounts)
	cg.POST("/broadcast", api.broadcast, adminMiddleware())
	cg.GET("/ws", api.subscribe)
}

// participant loads the acting account and rejects roles with no seat in the
// chat (gate terminals).
func (api *chatApi) participant(ctx echo.Context) (user.User, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context user")
	}
	if !usr.IsParent() && !usr.IsAdmin() && !usr.IsSuper() {
		return user.User{}, errHttpForbidden
	}
	return usr, nil
}

// conversation loads a thread and enforces participant access. Threads the
// caller may not see are reported as missing.
func (api *chatApi) conversation(ctx echo.Context, schoolID string, usr user.User) (chat.Conversation, error) {
	conv, err := api.svc.GetByID(ctx.Request().Context(), schoolID, ctx.Param("id"))
	if err != nil {
		return chat.Conversation{}, err
	}
	if !chat.CanAccess(usr, conv) {
		return chat.Conversation{}, errHttpNotFound
	}
	return conv, nil
}

func senderRole(usr user.User) string {
	if usr.IsAdmin() || usr.IsSuper() {
		return chat.SenderAdmin
	}
	return chat.SenderParent
}

func (api *chatApi) queryConversations(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}

	parentID := "" // staff see every thread
	if senderRole(usr) == chat.SenderParent {
		parentID = usr.ID
	}
	convs, err := api.svc.Query(ctx.Request().Context(), sch.ID, parentID)
	if err != nil {
		return errors.Wrap(err, "querying conversations")
	}
	if convs == nil {
		convs = []chat.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

// startConversation opens (or finds) the thread for a student. A parent may
// only start threads for their own children; staff start on behalf of the
// linked parent account.
func (api *chatApi) startConversation(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}

	var data chat.NewConversation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConversation")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	var conv chat.Conversation
	if senderRole(usr) == chat.SenderParent {
		if !usr.HasStudent(data.StudentID) {
			return errHttpNotFound
		}
		conv, err = api.svc.Start(ctx.Request().Context(), sch.ID, data.StudentID, usr.ID)
	} else {
		conv, err = api.svc.StartForStudent(ctx.Request().Context(), sch.ID, data.StudentID)
	}
	if err != nil {
		if errors.Cause(err) == chat.ErrNoParentAccount {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, conv)
}

func (api *chatApi) messages(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}
	conv, err := api.conversation(ctx, sch.ID, usr)
	if err != nil {
		return err
	}

	msgs, err := api.svc.Messages(ctx.Request().Context(), conv, senderRole(usr))
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) sendMessage(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}
	conv, err := api.conversation(ctx, sch.ID, usr)
	if err != nil {
		return err
	}

	var data chat.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.Send(ctx.Request().Context(), conv, usr.ID, senderRole(usr), data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) unreadCounts(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}

	role := senderRole(usr)
	parentID := ""
	if role == chat.SenderParent {
		parentID = usr.ID
	}
	counts, err := api.svc.Unread(ctx.Request().Context(), sch.ID, parentID, role)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	if counts == nil {
		counts = []chat.UnreadCount{}
	}
	return ctx.JSON(http.StatusOK, counts)
}

// broadcast fans an announcement out to every parent thread of the school.
func (api *chatApi) broadcast(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}

	var data chat.Broadcast
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Broadcast")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sent, err := api.svc.BroadcastToParents(ctx.Request().Context(), sch.ID, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "broadcasting to parents")
	}
	return ctx.JSON(http.StatusOK, BroadcastResponse{Sent: sent})
}

// subscribe upgrades to a websocket delivering the conversation's new
// messages live. Access is checked before the upgrade.
func (api *chatApi) subscribe(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	usr, err := api.participant(ctx)
	if err != nil {
		return err
	}

	conv, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.QueryParam("conversation_id"))
	if err != nil {
		return err
	}
	if !chat.CanAccess(usr, conv) {
		return errHttpNotFound
	}

	conn, err := wsUpgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading to websocket")
	}
	api.hub.Serve(conv.ID, conn)
	return nil
}

type BroadcastResponse struct {
	Sent int `json:"sent"`
}
