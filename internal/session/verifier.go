package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"alamedalearn/pkg/domain"
)

const (
	defaultIssuer   = "alameda-auth"
	defaultAudience = "alameda-api"
	defaultLeeway   = 30 * time.Second
)

// Claims is the session token payload issued by the identity provider. The
// service trusts name, role, and avatar as given; only the signature and
// standard time claims are checked.
type Claims struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// Config configures session-token verification.
type Config struct {
	// Secret is the HS256 shared secret agreed with the identity provider.
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Verifier validates session tokens and extracts the caller identity.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier creates a token verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}, nil
}

// Verify validates the token and returns the embedded identity.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, errors.New("invalid token format")
	}
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return domain.Identity{}, fmt.Errorf("verify session token: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, errors.New("token subject missing")
	}
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleStudent, domain.RoleTutor, domain.RoleAdmin:
	default:
		role = domain.RoleStudent
	}
	return domain.Identity{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Role:      role,
		AvatarURL: claims.AvatarURL,
	}, nil
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
