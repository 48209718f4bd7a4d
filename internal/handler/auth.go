package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/ticket-booking/internal/utils" // password verification and token issuing
)

// RoleAdmin is the only role allowed to reset the inventory.
const RoleAdmin = "ADMIN"

// AuthHandler issues access tokens for the operator account configured
// through ADMIN_USER and ADMIN_PASSWORD_HASH.
type AuthHandler struct {
    User         string
    PasswordHash string // bcrypt
    JWTSecret    string
    AccessTTLMin int
}

func NewAuthHandler(user, passwordHash, jwtSecret string, ttlMin int) *AuthHandler {
    return &AuthHandler{User: user, PasswordHash: passwordHash, JWTSecret: jwtSecret, AccessTTLMin: ttlMin}
}

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type loginResp struct {
    Access utils.AccessToken `json:"access"`
    Role   string            `json:"role"`
}

// Login verifies the operator credentials and returns an access token
// carrying the ADMIN role.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body", "code": "invalid_request"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required", "code": "invalid_request"})
    }

    // The hash is always checked so an unknown user costs the same as a bad password.
    ok := utils.VerifyPassword(h.PasswordHash, req.Password)
    if !ok || req.Username != h.User {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials", "code": "unauthorized"})
    }

    access, err := utils.NewAccessToken(h.JWTSecret, h.User, RoleAdmin, h.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed", "code": "internal"})
    }
    return c.JSON(http.StatusOK, loginResp{Access: access, Role: RoleAdmin})
}
