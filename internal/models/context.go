package models

import (
	"context"

	"github.com/gin-gonic/gin"
)

type userContextKey struct{}

// SetUserContext returns a copy of ctx carrying user. A nil user leaves ctx unchanged.
func SetUserContext(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext extracts the authenticated user placed by the auth middleware.
// Gin contexts are checked first, then plain context values.
func GetUserFromContext(ctx context.Context) *User {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if userVal, exists := ginCtx.Get("user"); exists {
			if user, ok := userVal.(*User); ok {
				return user
			}
		}
		if ginCtx.Request == nil {
			return nil
		}
		ctx = ginCtx.Request.Context()
	}

	if user, ok := ctx.Value(userContextKey{}).(*User); ok {
		return user
	}
	return nil
}

// GetUsernameFromContext returns the username of the user in ctx, or "".
func GetUsernameFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.Username
	}
	return ""
}

// GetUserIDFromContext returns the ID of the user in ctx, or "".
func GetUserIDFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}
