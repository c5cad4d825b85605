package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message"`
	RequestID string     `json:"request_id,omitempty"`
	Limit     *LimitBody `json:"limit,omitempty"`
}

// LimitBody describes the plan cap that rejected a create.
type LimitBody struct {
	Plan       string `json:"plan"`
	MaxTenants int64  `json:"max_tenants"`
}

var kindStatus = map[dreambiz.Kind]int{
	dreambiz.KindUnauthenticated: http.StatusUnauthorized,
	dreambiz.KindForbidden:       http.StatusForbidden,
	dreambiz.KindLimitExceeded:   http.StatusPaymentRequired,
	dreambiz.KindDuplicateName:   http.StatusConflict,
	dreambiz.KindNotFound:        http.StatusNotFound,
	dreambiz.KindInvalidState:    http.StatusConflict,
	dreambiz.KindInvalidInput:    http.StatusBadRequest,
	dreambiz.KindPersistence:     http.StatusServiceUnavailable,
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	if code, ok := kindStatus[dreambiz.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (a *API) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := ErrorResponse{RequestID: requestIDOf(c)}
	status := statusOf(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body.Error = http.StatusText(he.Code)
		body.Message = fmt.Sprint(he.Message)
	} else {
		kind := dreambiz.KindOf(err)
		body.Error = string(kind)
		body.Message = dreambiz.UserMessage(err)
		if le, ok := dreambiz.LimitOf(err); ok {
			body.Limit = &LimitBody{Plan: le.PlanName, MaxTenants: le.Limit}
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		a.logger.Error("write error response", "request_id", body.RequestID, "error", err)
	}
}

func errUnauthenticated(cause error) error {
	return &dreambiz.Error{
		Kind:    dreambiz.KindUnauthenticated,
		Op:      "authenticate",
		Message: "Your session has expired. Please sign in again.",
		Err:     cause,
	}
}

func badRequest(field, msg string, cause error) error {
	return &dreambiz.Error{
		Kind:    dreambiz.KindInvalidInput,
		Op:      "decode_request",
		Message: field + ": " + msg,
		Err:     errors.Join(dreambiz.ValidationError{Field: field, Message: msg}, cause),
	}
}
