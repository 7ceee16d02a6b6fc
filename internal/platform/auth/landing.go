package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var ErrInvalidLandingToken = errors.New("invalid landing token")

// LandingClaims identify the lead created by an enrollment.
type LandingClaims struct {
	jwt.RegisteredClaims
	LeadID string `json:"lead_id"`
}

// LandingSigner issues and verifies the short-lived token appended to the
// post-enrollment landing URL.
type LandingSigner struct {
	secret  []byte
	issuer  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewLandingSigner(secret, issuer, baseURL string, ttl time.Duration) (*LandingSigner, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("landing token secret must be at least 32 bytes")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("landing url: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LandingSigner{secret: []byte(secret), issuer: issuer, baseURL: baseURL, ttl: ttl, now: time.Now}, nil
}

// Sign returns a signed token for leadID.
func (s *LandingSigner) Sign(leadID string) (string, error) {
	if leadID == "" {
		return "", fmt.Errorf("lead id is required")
	}
	now := s.now()
	claims := LandingClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   leadID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		LeadID: leadID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// LandingURL returns the landing page URL carrying a token for leadID.
func (s *LandingSigner) LandingURL(leadID string) (string, error) {
	token, err := s.Sign(leadID)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("landing url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Verify returns the lead id encoded in token.
func (s *LandingSigner) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &LandingClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.LeadID == "" {
		return "", ErrInvalidLandingToken
	}
	return claims.LeadID, nil
}

// Handler serves GET /landing?token=... and returns the lead id.
func (s *LandingSigner) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "token is required")
		}
		leadID, err := s.Verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]string{"lead_id": leadID})
	}
}
