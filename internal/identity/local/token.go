package local

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/goserg/clubconnect/internal/identity"
)

// Token audiences.
const (
	audienceSession = "session"
	audienceReset   = "reset"
	audienceVerify  = "verify"
)

func (p *Provider) signToken(subject, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Audience:  audience,
		ExpiresAt: now.Add(ttl).Unix(),
		IssuedAt:  now.Unix(),
		Subject:   subject,
	})
	return token.SignedString([]byte(p.cfg.TokenSecret))
}

// parseToken returns the subject of a valid token issued for audience.
// Expired, tampered and foreign tokens all map to auth/expired-action-code.
func (p *Provider) parseToken(raw, audience string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(p.cfg.TokenSecret), nil
	})
	if err != nil {
		return "", withCode(identity.CodeExpiredActionCode, err)
	}
	if !token.Valid || !claims.VerifyAudience(audience, true) || claims.Subject == "" {
		return "", identity.NewError(identity.CodeExpiredActionCode)
	}
	return claims.Subject, nil
}

func withCode(code string, err error) *identity.Error {
	e := identity.NewError(code)
	e.Err = err
	return e
}
