package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded, validated content of an access token.
type Claims struct {
	UserID    uint64
	JTI       string
	ExpiresAt time.Time
}

// TokenService issues and validates HS256 access tokens.  Every token
// carries a random jti so individual tokens can be revoked through the
// blacklist without touching the signing secret.
type TokenService struct {
	secret    []byte
	ttl       time.Duration
	blacklist *Blacklist
}

// NewTokenService builds a token service.  ttl is the fixed access-token
// lifetime; an empty secret is a startup misconfiguration and the caller is
// expected to have fataled on it already (config.must).
func NewTokenService(secret string, ttl time.Duration, blacklist *Blacklist) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, blacklist: blacklist}
}

// Issue builds and signs a token for a user.  Pure computation; fails only
// if signing itself fails.
func (t *TokenService) Issue(userID uint64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Decode fully validates a token: signature and expiry first, then the
// blacklist.  The blacklist check runs on every decode, not only at logout,
// so a revoked-but-unexpired token is rejected on every subsequent use.
func (t *TokenService) Decode(ctx context.Context, raw string) (Claims, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return Claims{}, err
	}
	revoked, err := t.blacklist.Contains(ctx, claims.JTI)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, E(KindRevokedToken, "token has been revoked")
	}
	return claims, nil
}

// JTI decodes a token and returns just its identifier.  Signature and
// expiry are verified; the blacklist is not consulted, so logout can still
// read the jti of a token it is about to revoke (or already has).
func (t *TokenService) JTI(raw string) (string, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.JTI, nil
}

// parse verifies the signature and registered claims and extracts the
// subject, jti and expiry.  All parse-level failures collapse into
// KindInvalidToken except a missing claim, which gets its own kind so logs
// can tell malformed issuance apart from forgery.
func (t *TokenService) parse(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, E(KindInvalidToken, "unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, E(KindInvalidToken, "token is invalid or expired")
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, E(KindInvalidToken, "unexpected claim format")
	}

	jti, _ := mc["jti"].(string)
	if jti == "" {
		return Claims{}, E(KindTokenMissingClaim, "token missing jti claim")
	}

	var userID uint64
	switch sub := mc["sub"].(type) {
	case string:
		userID, err = strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, E(KindInvalidToken, "malformed subject claim")
		}
	case float64:
		userID = uint64(sub)
	default:
		return Claims{}, E(KindTokenMissingClaim, "token missing subject claim")
	}
	if userID == 0 {
		return Claims{}, E(KindTokenMissingClaim, "token missing subject claim")
	}

	expVal, ok := mc["exp"].(float64)
	if !ok {
		return Claims{}, E(KindTokenMissingClaim, "token missing expiration claim")
	}

	return Claims{
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: time.Unix(int64(expVal), 0).UTC(),
	}, nil
}
