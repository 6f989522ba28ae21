package config

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	// Token Expiration Duration
	AccessTokenDuration = 15 * time.Minute

	// Context Keys
	UserClaimKey contextKey = "user_claims"

	// Principal roles as issued by the auth collaborator
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	// How often the background sweep advances listing states
	DefaultSweepInterval = 15 * time.Second

	// TTL for cached market projections
	ActiveListingsCacheTTL = 5 * time.Second
)

// UserClaims is the payload for the Access Token
type UserClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}
