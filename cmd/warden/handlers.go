package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bluesky-social/chatmod/automod/engine"
	"github.com/bluesky-social/chatmod/automod/policy"

	"github.com/labstack/echo/v4"
)

// upper bound on processing one event, including enforcement calls
var eventTimeout = 2 * time.Minute

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

// Either Text (raw chat text like "/unban 123") or Name and Args.
type AdminRequest struct {
	ChatID   int64    `json:"chat"`
	CallerID int64    `json:"caller"`
	Text     string   `json:"text,omitempty"`
	Name     string   `json:"name,omitempty"`
	Args     []string `json:"args,omitempty"`
}

type AdminResponse struct {
	Reply string `json:"reply"`
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		srv.logger.Warn("warden-http-internal-error", "err", err)
	}
	c.JSON(code, GenericStatus{Status: "error", Daemon: "warden", Message: errorMessage})
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "warden"})
}

// Runs event processing in the background, so slow enforcement calls never hold up the binding.
func (srv *Server) dispatch(kind string, f func(ctx context.Context) error) {
	srv.inflight.Add(1)
	eventsInFlight.Inc()
	go func() {
		defer srv.inflight.Done()
		defer eventsInFlight.Dec()
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := f(ctx); err != nil {
			eventsFailed.WithLabelValues(kind).Inc()
			srv.logger.Error("failed to process event", "type", kind, "err", err)
		}
	}()
}

// POST /v1/events/join
func (srv *Server) HandleJoinEvent(c echo.Context) error {
	var evt engine.JoinEvent
	if err := c.Bind(&evt); err != nil {
		eventsRejected.WithLabelValues("join").Inc()
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: fmt.Sprintf("invalid join event: %s", err),
		})
	}
	if evt.ChatID == 0 || evt.UserID == 0 {
		eventsRejected.WithLabelValues("join").Inc()
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: "join event requires chat and user",
		})
	}
	eventsReceived.WithLabelValues("join").Inc()
	srv.dispatch("join", func(ctx context.Context) error {
		return srv.engine.ProcessJoin(ctx, evt)
	})
	return c.JSON(http.StatusAccepted, GenericStatus{Status: "accepted", Daemon: "warden"})
}

// POST /v1/events/message
func (srv *Server) HandleMessageEvent(c echo.Context) error {
	var evt engine.MessageEvent
	if err := c.Bind(&evt); err != nil {
		eventsRejected.WithLabelValues("message").Inc()
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: fmt.Sprintf("invalid message event: %s", err),
		})
	}
	if evt.ChatID == 0 || evt.UserID == 0 {
		eventsRejected.WithLabelValues("message").Inc()
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: "message event requires chat and user",
		})
	}
	eventsReceived.WithLabelValues("message").Inc()
	srv.dispatch("message", func(ctx context.Context) error {
		return srv.engine.ProcessMessage(ctx, evt)
	})
	return c.JSON(http.StatusAccepted, GenericStatus{Status: "accepted", Daemon: "warden"})
}

// POST /v1/admin/command
//
// Runs synchronously; the reply is meant to be posted back to the chat by the binding.
func (srv *Server) HandleAdminCommand(c echo.Context) error {
	ctx := c.Request().Context()

	var req AdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: fmt.Sprintf("invalid admin command: %s", err),
		})
	}
	cmd := engine.AdminCommand{
		ChatID:   req.ChatID,
		CallerID: req.CallerID,
		Name:     req.Name,
		Args:     req.Args,
	}
	if req.Text != "" {
		parsed, ok := engine.ParseAdminCommand(req.ChatID, req.CallerID, req.Text)
		if !ok {
			return c.JSON(http.StatusBadRequest, GenericError{
				Error:   "BadRequest",
				Message: "text is not a command",
			})
		}
		cmd = parsed
	}
	if cmd.Name == "" || cmd.CallerID == 0 {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "BadRequest",
			Message: "admin command requires caller and a command name or text",
		})
	}

	reply, err := srv.engine.ProcessAdminCommand(ctx, cmd)
	if err != nil && errors.Is(err, engine.ErrNotAuthorized) {
		return c.JSON(http.StatusForbidden, GenericError{
			Error:   "NotAuthorized",
			Message: err.Error(),
		})
	} else if err != nil && errors.Is(err, engine.ErrUnknownCommand) {
		return c.JSON(http.StatusNotFound, GenericError{
			Error:   "UnknownCommand",
			Message: err.Error(),
		})
	} else if err != nil && (errors.Is(err, engine.ErrUsage) || errors.Is(err, policy.ErrInvalidValue) || errors.Is(err, policy.ErrUnknownOption)) {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidCommand",
			Message: err.Error(),
		})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, GenericError{
			Error:   "InternalServerError",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, AdminResponse{Reply: reply})
}
