package local

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	TokenSecret     string
	TokenExpiration time.Duration
	PasswordPepper  string
	// HashCost is the bcrypt cost. Zero means bcrypt.DefaultCost.
	HashCost int
	// SignInInterval and SignInBurst shape the sign-in rate limiter.
	// A zero burst disables limiting.
	SignInInterval time.Duration
	SignInBurst    int
	// ActionCodeTTL bounds password reset and verification links.
	ActionCodeTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.TokenExpiration <= 0 {
		c.TokenExpiration = 30 * 24 * time.Hour
	}
	if c.HashCost == 0 {
		c.HashCost = bcrypt.DefaultCost
	}
	if c.SignInInterval <= 0 {
		c.SignInInterval = time.Second
	}
	if c.ActionCodeTTL <= 0 {
		c.ActionCodeTTL = time.Hour
	}
	return c
}
