package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleStudent     = "student"
	RoleInstitution = "institution_admin"
)

var ErrNoIdentity = errors.New("request has no authenticated user")

// IssueToken signs an access token carrying the user id, role and, for
// institution staff, their institution.
func IssueToken(secret string, userID uuid.UUID, role string, institutionID *uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     exp.Unix(),
	}
	if institutionID != nil {
		claims["institution_id"] = institutionID.String()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return token, exp, err
}

func bearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func parseClaims(secret, tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func storeClaims(ctx *fiber.Ctx, claims jwt.MapClaims) {
	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("role", claims["role"])
	if inst, ok := claims["institution_id"]; ok {
		ctx.Locals("institution_id", inst)
	}
}

// JwtMiddleware validates the bearer token and stores its claims in Locals.
// The websocket upgrade cannot send headers, so a token query parameter is
// also accepted.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		claims, err := parseClaims(secret, tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		storeClaims(ctx, claims)
		return ctx.Next()
	}
}

// OptionalJwtMiddleware stores the claims of a valid token and lets
// anonymous or invalid requests through without an identity.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if tokenStr := bearerToken(ctx); tokenStr != "" {
			if claims, err := parseClaims(secret, tokenStr); err == nil {
				storeClaims(ctx, claims)
			}
		}
		return ctx.Next()
	}
}

// RequireRole must run after JwtMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if r, _ := ctx.Locals("role").(string); r != role {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Forbidden"))
		}
		return ctx.Next()
	}
}

// UserID reads the authenticated user from Locals.
func UserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}

// Role reads the role claim; it is empty for anonymous requests.
func Role(ctx *fiber.Ctx) string {
	r, _ := ctx.Locals("role").(string)
	return r
}

// InstitutionID reads the institution claim of institution staff.
func InstitutionID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("institution_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}
