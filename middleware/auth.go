package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/rsvblog/utils"
)

const (
	// ContextMemberIDKey is the key used to store the authenticated member ID in Gin context.
	ContextMemberIDKey = "member_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey keeps the raw bearer token for logout.
	ContextTokenKey = "token"
	// ContextClaimsKey keeps the parsed claims.
	ContextClaimsKey = "claims"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, appErr := bearerToken(ctx)
		if appErr == nil && token == "" {
			appErr = utils.Unauthorized(40101, "authorization header missing")
		}
		if appErr == nil {
			appErr = authenticate(ctx, token)
		}
		if appErr != nil {
			utils.Fail(ctx, appErr)
			return
		}
		ctx.Next()
	}
}

// AuthOptional resolves the member when a token is present and lets anonymous requests through.
// A present but invalid token is still rejected.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, appErr := bearerToken(ctx)
		if appErr == nil && token != "" {
			appErr = authenticate(ctx, token)
		}
		if appErr != nil {
			utils.Fail(ctx, appErr)
			return
		}
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, *utils.AppError) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", utils.Unauthorized(40102, "invalid authorization header format")
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", utils.Unauthorized(40103, "empty bearer token")
	}
	return tokenString, nil
}

func authenticate(ctx *gin.Context, token string) *utils.AppError {
	if utils.IsTokenBlacklisted(ctx.Request.Context(), token) {
		return utils.Unauthorized(40104, "token revoked")
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return utils.Unauthorized(40105, "invalid token")
	}
	ctx.Set(ContextMemberIDKey, claims.MemberID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextTokenKey, token)
	ctx.Set(ContextClaimsKey, claims)
	return nil
}

// MemberID returns the authenticated member id, or 0 for anonymous requests.
func MemberID(ctx *gin.Context) uint {
	return ctx.GetUint(ContextMemberIDKey)
}
