package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/bugzot/backend/internal/model"
	"github.com/bugzot/backend/internal/queue"
	"github.com/bugzot/backend/internal/repository"
)

// UserStore is the credential-store contract the orchestrator needs.
// *repository.UserRepo satisfies it; tests use an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, fullName *string, roleID uint8) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	IncrementLoginAttempts(ctx context.Context, id uint64) error
	ResetLoginAttempts(ctx context.Context, id uint64) error
	MarkVerified(ctx context.Context, id uint64) error
}

// RoleStore resolves role names to rows (default-role lookup at register).
type RoleStore interface {
	GetByName(ctx context.Context, name string) (model.Role, error)
}

// ActivationStore persists single-use activation keys.
type ActivationStore interface {
	Issue(ctx context.Context, userID uint64, key string, expiresAt time.Time) error
	Consume(ctx context.Context, key string) (uint64, error)
}

// EmailNotifier dispatches activation emails.  Delivery is fire-and-forget
// from the registration path.
type EmailNotifier interface {
	PublishActivationEmail(ctx context.Context, ev queue.ActivationEmailEvent) error
}

// ServiceConfig groups the tunables the orchestrator consumes.
type ServiceConfig struct {
	BcryptCost        int
	ActivationTTL     time.Duration
	MXTimeout         time.Duration
	DisposableDomains []string

	// MXCheck overrides the resolver-backed MX lookup; nil uses
	// CheckEmailMX with MXTimeout.
	MXCheck MXChecker
}

// Service coordinates the validation pipeline, the credential store, the
// token service and the ephemeral store to implement the auth use cases.
// It holds no mutable state of its own; all coordination is delegated to
// the stores' atomic primitives.
type Service struct {
	users    UserStore
	roles    RoleStore
	keys     ActivationStore
	tokens   *TokenService
	limiter  *RateLimiter
	notifier EmailNotifier

	bcryptCost    int
	activationTTL time.Duration
	mxTimeout     time.Duration
	disposable    map[string]bool

	// checkMX is swappable so tests never hit the network.
	checkMX MXChecker
}

// NewService wires the orchestrator.  notifier may be nil (no broker
// configured); activation emails are then skipped with a log line.
func NewService(users UserStore, roles RoleStore, keys ActivationStore, tokens *TokenService,
	limiter *RateLimiter, notifier EmailNotifier, cfg ServiceConfig) *Service {
	blocked := make(map[string]bool, len(cfg.DisposableDomains))
	for _, d := range cfg.DisposableDomains {
		blocked[d] = true
	}
	s := &Service{
		users:         users,
		roles:         roles,
		keys:          keys,
		tokens:        tokens,
		limiter:       limiter,
		notifier:      notifier,
		bcryptCost:    cfg.BcryptCost,
		activationTTL: cfg.ActivationTTL,
		mxTimeout:     cfg.MXTimeout,
		disposable:    blocked,
	}
	s.checkMX = cfg.MXCheck
	if s.checkMX == nil {
		s.checkMX = func(ctx context.Context, domain string) error {
			return CheckEmailMX(ctx, domain, s.mxTimeout)
		}
	}
	return s
}

// RegisterInput is a registration request after transport decoding.
// Honeypot carries the hidden form field; IP is the client address used for
// rate limiting and audit logs.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Honeypot string
	IP       string
}

// Register runs the validation pipeline in its fixed order, short-circuiting
// on the first violation, then persists the user and dispatches the
// activation email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	// 1. Honeypot: rejected before anything else, and without consuming a
	// rate-limit slot, so probing bots learn nothing about the window.
	if HoneypotTriggered(in.Honeypot) {
		log.Printf("[REGISTER_FAIL] honeypot triggered | ip=%s", in.IP)
		return model.User{}, E(KindBotDetected, "request rejected")
	}

	// 2. Per-IP rate limit.
	if !s.limiter.Allow(ctx, "register", in.IP) {
		log.Printf("[REGISTER_FAIL] rate limit exceeded | ip=%s", in.IP)
		return model.User{}, E(KindRateLimited, "too many requests from this IP")
	}

	email := NormalizeEmail(in.Email)

	// 3. Disposable-domain blocklist.
	if IsDisposableEmail(email, s.disposable) {
		return model.User{}, E(KindInvalidEmailDomain, "disposable email not allowed")
	}

	// 4. MX record check, bounded by its own timeout.
	if err := s.checkMX(ctx, emailDomain(email)); err != nil {
		log.Printf("[REGISTER_FAIL] MX lookup failed | ip=%s email=%s err=%v", in.IP, email, err)
		return model.User{}, E(KindInvalidEmailDomain, "invalid email domain")
	}

	// 5. Uniqueness among live users (advisory; the DB constraint decides
	// races).
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		log.Printf("[REGISTER_FAIL] email already exists | ip=%s email=%s", in.IP, email)
		return model.User{}, E(KindEmailExists, "email already registered")
	}

	// 6. Password strength.
	if !ValidatePasswordStrength(in.Password) {
		return model.User{}, E(KindWeakPassword, "password is too weak")
	}

	// 7. Sanitize free-text fields; cleaning never rejects.
	var fullName *string
	if in.FullName != "" {
		clean := SanitizeText(in.FullName)
		if clean != "" {
			fullName = &clean
		}
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	role, err := s.roles.GetByName(ctx, model.DefaultRoleName)
	if err != nil {
		return model.User{}, err
	}

	id, err := s.users.Create(ctx, email, hash, fullName, role.ID)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost a concurrent-registration race; same outcome as the
			// pre-check, never a 500.
			log.Printf("[REGISTER_FAIL] duplicate insert race | ip=%s email=%s", in.IP, email)
			return model.User{}, E(KindEmailExists, "email already registered")
		}
		return model.User{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	s.dispatchActivation(ctx, user)

	log.Printf("[REGISTER_SUCCESS] user created | ip=%s email=%s user_id=%d", in.IP, email, id)
	return user, nil
}

// dispatchActivation issues a fresh activation key and publishes the email
// event.  Failures are logged, never rolled back into the registration.
func (s *Service) dispatchActivation(ctx context.Context, user model.User) {
	key, err := newActivationKey()
	if err != nil {
		log.Printf("[ACTIVATION] key generation failed | user_id=%d err=%v", user.ID, err)
		return
	}
	expiresAt := time.Now().UTC().Add(s.activationTTL)
	if err := s.keys.Issue(ctx, user.ID, key, expiresAt); err != nil {
		log.Printf("[ACTIVATION] key persist failed | user_id=%d err=%v", user.ID, err)
		return
	}
	if s.notifier == nil {
		log.Printf("[ACTIVATION] no notifier configured, skipping email | user_id=%d", user.ID)
		return
	}
	ev := queue.ActivationEmailEvent{
		UserID:        user.ID,
		Email:         user.Email,
		ActivationKey: key,
		ExpiresAt:     expiresAt.Format(time.RFC3339),
		IssuedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if user.FullName != nil {
		ev.FullName = *user.FullName
	}
	// Fire-and-forget: the request should not wait on the broker.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.PublishActivationEmail(pubCtx, ev); err != nil {
			log.Printf("[ACTIVATION] email publish failed | user_id=%d err=%v", user.ID, err)
		}
	}()
}

// LoginInput is a login request after transport decoding.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// Login authenticates credentials and issues an access token.  Unknown and
// soft-deleted accounts report the same failure as a wrong password, and
// both burn an extra rate-limit slot to slow enumeration.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, model.User, error) {
	if !s.limiter.Allow(ctx, "login", in.IP) {
		log.Printf("[LOGIN_FAIL] rate limit exceeded | ip=%s", in.IP)
		return "", model.User{}, E(KindRateLimited, "too many login attempts")
	}

	email := NormalizeEmail(in.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.limiter.Penalize(ctx, "login", in.IP)
			log.Printf("[LOGIN_FAIL] invalid credentials | ip=%s email=%s", in.IP, email)
			return "", model.User{}, E(KindInvalidCredentials, "invalid credentials")
		}
		return "", model.User{}, err
	}

	if !user.IsActive {
		log.Printf("[LOGIN_FAIL] inactive account | ip=%s email=%s", in.IP, email)
		return "", model.User{}, E(KindAccountInactive, "account is inactive")
	}

	if !VerifyPassword(user.PasswordHash, in.Password) {
		if err := s.users.IncrementLoginAttempts(ctx, user.ID); err != nil {
			log.Printf("[LOGIN_FAIL] attempt counter update failed | user_id=%d err=%v", user.ID, err)
		}
		s.limiter.Penalize(ctx, "login", in.IP)
		log.Printf("[LOGIN_FAIL] incorrect password | ip=%s email=%s", in.IP, email)
		return "", model.User{}, E(KindInvalidCredentials, "invalid credentials")
	}

	if err := s.users.ResetLoginAttempts(ctx, user.ID); err != nil {
		return "", model.User{}, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", model.User{}, err
	}

	log.Printf("[LOGIN_SUCCESS] user logged in | ip=%s email=%s user_id=%d", in.IP, email, user.ID)
	return token, user, nil
}

// Logout revokes a presented token by blacklisting its jti for the token's
// remaining lifetime.  An already-expired token is a no-op success: there is
// nothing left to blacklist.  Logging out twice is idempotent.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.parse(rawToken)
	if err != nil {
		// The auth middleware rejects invalid tokens before this handler;
		// hitting this means the orchestrator was called directly.
		return err
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		log.Printf("[LOGOUT] token already expired | user_id=%d", claims.UserID)
		return nil
	}
	if err := s.tokens.blacklist.Add(ctx, claims.JTI, ttl); err != nil {
		log.Printf("[LOGOUT_FAIL] revocation store unavailable | user_id=%d err=%v", claims.UserID, err)
		return err
	}
	log.Printf("[LOGOUT] token blacklisted | user_id=%d", claims.UserID)
	return nil
}

// Verify consumes an activation key and marks the owning account verified.
func (s *Service) Verify(ctx context.Context, key string) error {
	userID, err := s.keys.Consume(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrKeyInvalid) {
			return E(KindInvalidActivationKey, "activation key is invalid or expired")
		}
		return err
	}
	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return err
	}
	log.Printf("[VERIFY] account verified | user_id=%d", userID)
	return nil
}

// newActivationKey returns a 32-byte random secret, URL-safe encoded, fit
// for embedding in an activation link.
func newActivationKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
