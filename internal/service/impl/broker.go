package impl

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/biometric"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/notify"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/metrics"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ratelimit"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/service"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

const (
	otpDigits          = 6
	challengeSize      = 32
	maxCredentialIDLen = 1023
)

var errCounterReplay = errors.New("signature counter did not increase")

type BrokerConfig struct {
	OTPTTL           time.Duration
	OTPCooldown      time.Duration
	OTPPepper        []byte
	BiometricTimeout time.Duration
	RPID             string
	// AllowUnverifiedEnrollment lets a voter who has never authenticated
	// enroll a biometric credential without a session. Only safe where
	// enrollment happens on supervised devices.
	AllowUnverifiedEnrollment bool
}

type AuthBrokerImpl struct {
	Store    dataStore
	Guard    service.SessionGuard
	Throttle ratelimit.Throttle
	Notifier notify.Notifier
	Events   events.Publisher
	Verifier *biometric.Verifier

	cfg    BrokerConfig
	otpKey []byte
	now    func() time.Time
}

func NewAuthBroker(
	st *store.Store,
	guard service.SessionGuard,
	throttle ratelimit.Throttle,
	notifier notify.Notifier,
	pub events.Publisher,
	verifier *biometric.Verifier,
	cfg BrokerConfig,
) *AuthBrokerImpl {
	key := cfg.OTPPepper
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &AuthBrokerImpl{
		Store:    gormStoreAdapter{store: st},
		Guard:    guard,
		Throttle: throttle,
		Notifier: notifier,
		Events:   pub,
		Verifier: verifier,
		cfg:      cfg,
		otpKey:   key,
		now:      time.Now,
	}
}

func (b *AuthBrokerImpl) Identify(ctx context.Context, r dto.IdentifyRequest) (*dto.IdentifyResponse, error) {
	matric := strings.TrimSpace(r.Matric)
	if matric == "" {
		return nil, ErrEmptyMatric
	}
	v, err := b.Store.Voters().GetByMatric(ctx, matric)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotRegistered
		}
		return nil, storageErr("lookup voter", err)
	}
	methods := []string{string(domain.AuthMethodOTP)}
	if _, err := b.Store.Credentials().GetByVoter(ctx, v.ID); err == nil {
		methods = append([]string{string(domain.AuthMethodBiometric)}, methods...)
	} else if !isNotFound(err) {
		return nil, storageErr("lookup credential", err)
	}
	return &dto.IdentifyResponse{VoterID: v.ID.String(), Verified: v.Verified, Methods: methods}, nil
}

func (b *AuthBrokerImpl) EnrollBiometric(ctx context.Context, r dto.BiometricRegisterRequest, ip, ua string) error {
	voter, err := b.loadVoter(ctx, r.VoterID)
	if err != nil {
		return err
	}
	credID, err := decodeB64("credentialId", r.CredentialID)
	if err != nil {
		return err
	}
	if len(credID) > maxCredentialIDLen {
		return fmt.Errorf("%w: credentialId too long", domain.ErrInvalidRequest)
	}
	pub, err := decodeB64("publicKey", r.PublicKey)
	if err != nil {
		return err
	}
	if _, err := biometric.ParsePublicKey(pub); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if voter.Verified || !b.cfg.AllowUnverifiedEnrollment {
		sess, err := b.Guard.Authenticate(ctx, r.Session)
		if err != nil {
			return err
		}
		if sess.VoterID != voter.ID {
			return fmt.Errorf("%w: session belongs to another voter", domain.ErrUnauthorized)
		}
	}

	cred := &domain.BiometricCredential{
		VoterID:      voter.ID,
		CredentialID: credID,
		PublicKey:    pub,
	}
	if err := b.Store.Credentials().Enroll(ctx, cred); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: credential already enrolled", domain.ErrConflict)
		}
		return storageErr("enroll credential", err)
	}

	b.audit(ctx, &voter.ID, domain.AuditBiometricEnrolled, ip, ua, nil)
	slog.InfoContext(ctx, "biometric credential enrolled", append(middleware.LogAttrs(ctx), "voter_id", voter.ID)...)
	return nil
}

func (b *AuthBrokerImpl) BeginBiometric(ctx context.Context, r dto.BiometricChallengeRequest) (*dto.BiometricChallengeResponse, error) {
	voter, err := b.loadVoter(ctx, r.VoterID)
	if err != nil {
		return nil, err
	}
	if err := b.checkLocked(ctx, voter.ID); err != nil {
		return nil, err
	}
	cred, err := b.Store.Credentials().GetByVoter(ctx, voter.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: no biometric credential enrolled", domain.ErrNotVerified)
		}
		return nil, storageErr("load credential", err)
	}
	if _, err := domain.NewAttempt(voter.ID).OfferBiometric(); err != nil {
		return nil, err
	}

	challenge := make([]byte, challengeSize)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}
	now := b.now().UTC()
	row := &domain.BiometricChallenge{
		VoterID:   voter.ID,
		Challenge: challenge,
		CreatedAt: now,
		ExpiresAt: now.Add(b.cfg.BiometricTimeout),
	}
	if err := b.Store.BiometricChallenges().Create(ctx, row); err != nil {
		return nil, storageErr("store challenge", err)
	}

	return &dto.BiometricChallengeResponse{
		ChallengeID:  row.ID.String(),
		Challenge:    base64.RawURLEncoding.EncodeToString(challenge),
		RPID:         b.cfg.RPID,
		CredentialID: base64.RawURLEncoding.EncodeToString(cred.CredentialID),
		TimeoutMs:    b.cfg.BiometricTimeout.Milliseconds(),
	}, nil
}

func (b *AuthBrokerImpl) FinishBiometric(ctx context.Context, r dto.BiometricVerifyRequest, ip, ua string) (*dto.SessionResponse, error) {
	voter, err := b.loadVoter(ctx, r.VoterID)
	if err != nil {
		return nil, err
	}
	if err := b.checkLocked(ctx, voter.ID); err != nil {
		return nil, err
	}
	attempt, err := domain.NewAttempt(voter.ID).OfferBiometric()
	if err != nil {
		return nil, err
	}

	challengeID, err := parseID(r.ChallengeID)
	if err != nil {
		return nil, err
	}
	assertion, err := decodeAssertion(r)
	if err != nil {
		return nil, err
	}

	cred, err := b.Store.Credentials().GetByVoter(ctx, voter.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: no biometric credential enrolled", domain.ErrNotVerified)
		}
		return nil, storageErr("load credential", err)
	}
	if len(assertion.CredentialID) > 0 && !bytes.Equal(assertion.CredentialID, cred.CredentialID) {
		return nil, b.fail(ctx, attempt, domain.ErrSignatureVerification, "unknown credential", ip, ua)
	}

	ch, err := b.Store.BiometricChallenges().Consume(ctx, challengeID, voter.ID, b.now())
	if err != nil {
		if isNotFound(err) {
			return nil, b.fail(ctx, attempt, domain.ErrChallengeInvalid, "challenge expired or already used", ip, ua)
		}
		return nil, storageErr("consume challenge", err)
	}

	res, err := b.Verifier.Verify(assertion, ch.Challenge, cred.PublicKey)
	if err != nil {
		return nil, b.fail(ctx, attempt, domain.ErrSignatureVerification, err.Error(), ip, ua)
	}
	if res.Counter <= cred.Counter {
		return nil, b.fail(ctx, attempt, domain.ErrSignatureVerification, errCounterReplay.Error(), ip, ua)
	}

	err = b.Store.WithTx(ctx, func(tx storeTx) error {
		ok, err := tx.Credentials().AdvanceCounter(ctx, voter.ID, cred.CredentialID, res.Counter)
		if err != nil {
			return storageErr("advance counter", err)
		}
		if !ok {
			return errCounterReplay
		}
		if !voter.Verified {
			if err := tx.Voters().MarkVerified(ctx, voter.ID); err != nil {
				return storageErr("mark verified", err)
			}
		}
		return nil
	})
	if errors.Is(err, errCounterReplay) {
		return nil, b.fail(ctx, attempt, domain.ErrSignatureVerification, err.Error(), ip, ua)
	}
	if err != nil {
		return nil, err
	}

	sess, err := b.succeed(ctx, attempt, voter, ip, ua)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Session: *sess}, nil
}

func (b *AuthBrokerImpl) SendOTP(ctx context.Context, r dto.OTPSendRequest, ip, ua string) error {
	voter, err := b.loadVoter(ctx, r.VoterID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(r.Email), voter.Email) {
		return ErrEmailMismatch
	}
	if err := b.checkLocked(ctx, voter.ID); err != nil {
		return err
	}
	if _, err := domain.NewAttempt(voter.ID).OfferOTP(); err != nil {
		return err
	}

	result := "success"
	defer func() {
		metrics.OTPIssuedTotal.WithLabelValues(result).Inc()
	}()

	ok, err := b.Throttle.Cooldown(ctx, voter.ID.String(), b.cfg.OTPCooldown)
	if err != nil {
		slog.WarnContext(ctx, "otp cooldown unavailable, allowing issuance", "voter_id", voter.ID, "err", err)
		ok = true
	}
	if !ok {
		result = "rate_limited"
		return fmt.Errorf("%w: wait before requesting another code", domain.ErrRateLimited)
	}

	code, err := generateCode()
	if err != nil {
		result = "failure"
		return fmt.Errorf("generate otp: %w", err)
	}
	now := b.now().UTC()
	challenge := &domain.OneTimeChallenge{
		VoterID:   voter.ID,
		CodeHash:  b.digest(voter.ID, code),
		CreatedAt: now,
		ExpiresAt: now.Add(b.cfg.OTPTTL),
	}
	if err := b.Store.OTPs().Issue(ctx, challenge); err != nil {
		result = "failure"
		return storageErr("issue otp", err)
	}

	if err := b.Notifier.SendOTP(ctx, notify.OTPMessage{
		VoterID:   voter.ID.String(),
		Email:     voter.Email,
		Code:      code,
		ExpiresAt: challenge.ExpiresAt,
		Purpose:   notify.PurposeOTP,
	}); err != nil {
		result = "failure"
		slog.ErrorContext(ctx, "otp delivery failed", append(middleware.LogAttrs(ctx), "voter_id", voter.ID, "err", err)...)
		return storageErr("deliver otp", err)
	}

	b.audit(ctx, &voter.ID, domain.AuditOTPIssued, ip, ua, map[string]any{"expires_at": challenge.ExpiresAt})
	slog.InfoContext(ctx, "otp issued", append(middleware.LogAttrs(ctx), "voter_id", voter.ID)...)
	return nil
}

func (b *AuthBrokerImpl) VerifyOTP(ctx context.Context, r dto.OTPVerifyRequest, ip, ua string) (*dto.SessionResponse, error) {
	voter, err := b.loadVoter(ctx, r.VoterID)
	if err != nil {
		return nil, err
	}
	if err := b.checkLocked(ctx, voter.ID); err != nil {
		return nil, err
	}
	attempt, err := domain.NewAttempt(voter.ID).OfferOTP()
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(r.OTPCode)
	if !validCode(code) {
		return nil, b.fail(ctx, attempt, domain.ErrChallengeInvalid, "malformed code", ip, ua)
	}
	ok, err := b.Store.OTPs().Consume(ctx, voter.ID, b.digest(voter.ID, code), b.now())
	if err != nil {
		return nil, storageErr("consume otp", err)
	}
	if !ok {
		return nil, b.fail(ctx, attempt, domain.ErrChallengeInvalid, "no matching open challenge", ip, ua)
	}
	if !voter.Verified {
		if err := b.Store.Voters().MarkVerified(ctx, voter.ID); err != nil {
			return nil, storageErr("mark verified", err)
		}
	}

	sess, err := b.succeed(ctx, attempt, voter, ip, ua)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Success: true, Session: *sess}, nil
}

func (b *AuthBrokerImpl) loadVoter(ctx context.Context, rawID string) (*domain.Voter, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	v, err := b.Store.Voters().GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotRegistered
		}
		return nil, storageErr("load voter", err)
	}
	return v, nil
}

// checkLocked fails open when the throttle backend is unreachable; the
// per-IP limiter in front of the API still applies.
func (b *AuthBrokerImpl) checkLocked(ctx context.Context, voterID domain.VoterID) error {
	locked, err := b.Throttle.Locked(ctx, voterID.String())
	if err != nil {
		slog.WarnContext(ctx, "lockout check unavailable", "voter_id", voterID, "err", err)
		return nil
	}
	if locked {
		return fmt.Errorf("%w: too many failed attempts", domain.ErrRateLimited)
	}
	return nil
}

// fail ends the attempt, counts it towards the lock-out and returns kind
// wrapped with detail.
func (b *AuthBrokerImpl) fail(ctx context.Context, a domain.Attempt, kind error, detail, ip, ua string) error {
	failed, _ := a.Fail()
	metrics.AuthAttemptsTotal.WithLabelValues(string(failed.Method), "failure").Inc()

	n, err := b.Throttle.Fail(ctx, failed.VoterID.String())
	if err != nil {
		slog.WarnContext(ctx, "record auth failure", "voter_id", failed.VoterID, "err", err)
	}
	action := domain.AuditOTPFailed
	if failed.Method == domain.AuthMethodBiometric {
		action = domain.AuditBiometricFailed
	}
	b.audit(ctx, &failed.VoterID, action, ip, ua, map[string]any{"reason": detail, "failures": n})
	if locked, _ := b.Throttle.Locked(ctx, failed.VoterID.String()); locked {
		revoked, err := b.Store.Sessions().RevokeAllForVoter(ctx, failed.VoterID, b.now())
		if err != nil {
			slog.WarnContext(ctx, "revoke sessions on lock-out", "voter_id", failed.VoterID, "err", err)
		} else if revoked > 0 {
			slog.InfoContext(ctx, "sessions revoked on lock-out",
				append(middleware.LogAttrs(ctx), "voter_id", failed.VoterID, "revoked", revoked)...)
		}
	}
	slog.InfoContext(ctx, "authentication failed",
		append(middleware.LogAttrs(ctx), "voter_id", failed.VoterID, "method", failed.Method, "reason", detail)...)

	return fmt.Errorf("%w: %s", kind, detail)
}

func (b *AuthBrokerImpl) succeed(ctx context.Context, a domain.Attempt, voter *domain.Voter, ip, ua string) (*dto.Session, error) {
	done, err := a.Authenticate()
	if err != nil {
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues(string(done.Method), "success").Inc()
	if err := b.Throttle.Reset(ctx, voter.ID.String()); err != nil {
		slog.WarnContext(ctx, "reset auth failures", "voter_id", voter.ID, "err", err)
	}
	b.audit(ctx, &voter.ID, domain.AuditAuthenticated, ip, ua, map[string]any{"method": done.Method})
	if !voter.Verified {
		if err := b.Events.Publish(ctx, events.VoterVerified{
			VoterID: voter.ID.String(),
			Method:  string(done.Method),
			At:      b.now().UTC(),
		}); err != nil {
			slog.WarnContext(ctx, "publish voter verified failed", "voter_id", voter.ID, "err", err)
		}
	}
	return b.Guard.Issue(ctx, done, ip, ua)
}

// audit writes a best-effort audit row; failures are logged, not returned.
func (b *AuthBrokerImpl) audit(ctx context.Context, voterID *domain.VoterID, action, ip, ua string, meta map[string]any) {
	if err := b.Store.Audit().Append(ctx, voterID, action, ip, ua, meta); err != nil {
		slog.WarnContext(ctx, "audit append failed", "action", action, "err", err)
	}
}

// digest is the stored form of a code: BLAKE2b-256 keyed with the pepper
// over voter id and code.
func (b *AuthBrokerImpl) digest(voterID domain.VoterID, code string) []byte {
	h, err := blake2b.New256(b.otpKey)
	if err != nil {
		// Only reachable with a key over 64 bytes, which NewAuthBroker prevents.
		panic(err)
	}
	h.Write(voterID[:])
	h.Write([]byte(code))
	return h.Sum(nil)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func validCode(code string) bool {
	if len(code) != otpDigits {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func decodeAssertion(r dto.BiometricVerifyRequest) (biometric.Assertion, error) {
	var (
		a   biometric.Assertion
		err error
	)
	if strings.TrimSpace(r.CredentialID) != "" {
		if a.CredentialID, err = decodeB64("credentialId", r.CredentialID); err != nil {
			return a, err
		}
	}
	if a.ClientDataJSON, err = decodeB64("clientDataJSON", r.ClientDataJSON); err != nil {
		return a, err
	}
	if a.AuthenticatorData, err = decodeB64("authenticatorData", r.AuthenticatorData); err != nil {
		return a, err
	}
	if a.Signature, err = decodeB64("signature", r.Signature); err != nil {
		return a, err
	}
	return a, nil
}
