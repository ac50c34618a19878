// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/holomush/chatroom/internal/chat"
	"github.com/holomush/chatroom/pkg/errutil"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

var statusByCode = map[string]int{
	chat.CodeUnauthenticated:    http.StatusUnauthorized,
	chat.CodeDuplicateKey:       http.StatusConflict,
	chat.CodePersistenceFailure: http.StatusInternalServerError,
	chat.CodeValidationFailure:  http.StatusBadRequest,
	chat.CodeNotFound:           http.StatusNotFound,
	chat.CodeRoomFull:           http.StatusConflict,
	chat.CodeNotMember:          http.StatusConflict,
}

// statusFor maps an error code to an HTTP status. Unknown codes are 500.
func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error","code"}. Server errors are logged and
// their detail is withheld from the client.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	code := chat.Code(err)
	status := statusFor(code)

	body := errorBody{Error: err.Error(), Code: code}
	switch {
	case status >= http.StatusInternalServerError:
		errutil.LogErrorContext(c.Request.Context(), logger, "request failed", err,
			"route", routeOf(c))
		body.Error = "internal server error"
		if body.Code == "" {
			body.Code = chat.CodePersistenceFailure
		}
	case status == http.StatusUnauthorized:
		body.Error = "invalid credentials"
	default:
		if oopsErr, ok := oops.AsOops(err); ok {
			if field, ok := oopsErr.Context()["field"].(string); ok {
				body.Field = field
			}
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Error: msg,
		Code:  chat.CodeValidationFailure,
	})
}
