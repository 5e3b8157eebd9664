// Package sharetoken mints and validates signed read-only links to a
// submitted intake, so a screener can hand a case summary to a colleague
// without granting portal access.
package sharetoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
)

// Claims carries which intake the link opens and who minted it.
type Claims struct {
	IntakeID string `json:"intake_id"`
	IssuedBy string `json:"issued_by"`
	jwt.RegisteredClaims
}

// Service handles share-token creation and validation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// NewService builds a token service with an HMAC signing key.
func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// Issue signs a read-only link token for one intake.
func (s *Service) Issue(intakeID, issuedBy string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		IntakeID: intakeID,
		IssuedBy: issuedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "caseflow",
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign share token")
	}
	return signed, nil
}

// Validate parses a share token and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "share link has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid share link")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid share link")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid share link claims")
	}
	return claims, nil
}
