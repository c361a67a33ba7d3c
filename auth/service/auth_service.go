package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authpkg "github.com/WaelAlfnan/OrderDelivery-sub000/auth"
	"github.com/WaelAlfnan/OrderDelivery-sub000/credential"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
	"github.com/WaelAlfnan/OrderDelivery-sub000/session"
	"github.com/WaelAlfnan/OrderDelivery-sub000/sms"
)

type authService struct {
	creds    credential.Store
	issuer   authpkg.TokenIssuer
	codes    otp.CodeStore
	sessions session.Store
	sender   sms.Sender
	log      *zap.Logger
}

// NewAuthService constructs the auth orchestrator.
func NewAuthService(
	creds credential.Store,
	issuer authpkg.TokenIssuer,
	codes otp.CodeStore,
	sessions session.Store,
	sender sms.Sender,
	log *zap.Logger,
) authpkg.Service {
	return &authService{
		creds:    creds,
		issuer:   issuer,
		codes:    codes,
		sessions: sessions,
		sender:   sender,
		log:      log,
	}
}

func (s *authService) Login(ctx context.Context, phone, password, ip string) (*authpkg.TokenPair, error) {
	user, err := s.creds.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, credential.ErrUserNotFound) {
			return nil, authpkg.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.creds.CheckPassword(ctx, user.ID, password); err != nil {
		if errors.Is(err, credential.ErrPasswordMismatch) {
			return nil, authpkg.ErrInvalidCredentials
		}
		return nil, err
	}
	pair, err := s.issuer.IssueTokenPair(ctx, user.ID, ip)
	if err != nil {
		return nil, err
	}
	s.log.Info("login", zap.String("user_id", user.ID.String()))
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.issuer.RevokeAll(ctx, userID, "Logged out")
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*authpkg.Profile, error) {
	user, err := s.creds.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.creds.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &authpkg.Profile{
		UserID:        user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		PhoneVerified: user.PhoneVerified,
		Roles:         roles,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken, ip string) (*authpkg.TokenPair, error) {
	return s.issuer.Refresh(ctx, refreshToken, ip)
}

// ForgotPassword always hands back a success-shaped ticket. A code is only
// issued and dispatched when the phone actually belongs to a user, so a
// probe cannot tell a registered phone from an unknown one.
func (s *authService) ForgotPassword(ctx context.Context, phone string) (*authpkg.ResetTicket, error) {
	token, err := s.sessions.Mint(ctx, phone, session.StageCodeSent)
	if err != nil {
		return nil, err
	}

	if _, err := s.creds.FindByPhone(ctx, phone); err == nil {
		s.issueResetCode(ctx, phone)
	} else if !errors.Is(err, credential.ErrUserNotFound) {
		return nil, err
	}

	return &authpkg.ResetTicket{SessionToken: token}, nil
}

func (s *authService) ResendCode(ctx context.Context, sessionToken, phone string) (*authpkg.ResetTicket, error) {
	if _, err := s.sessions.Validate(ctx, sessionToken, phone); err != nil {
		return nil, authpkg.ErrInvalidToken
	}

	if code, err := s.codes.Get(ctx, phone, otp.PurposeReset); err == nil {
		if wait := authpkg.ResendCooldown - time.Since(code.IssuedAt); wait > 0 {
			return nil, &authpkg.CooldownError{Wait: wait}
		}
	}

	if _, err := s.creds.FindByPhone(ctx, phone); err == nil {
		s.issueResetCode(ctx, phone)
	} else if !errors.Is(err, credential.ErrUserNotFound) {
		return nil, err
	}

	rotated, err := s.rotateSession(ctx, sessionToken, phone, session.StageCodeResent)
	if err != nil {
		return nil, err
	}
	return &authpkg.ResetTicket{SessionToken: rotated}, nil
}

func (s *authService) VerifyCode(ctx context.Context, sessionToken, phone, code string) (*authpkg.ResetTicket, error) {
	if _, err := s.sessions.Validate(ctx, sessionToken, phone); err != nil {
		return nil, authpkg.ErrInvalidToken
	}

	// non-consuming check: SetNewPassword re-verifies and consumes the code
	stored, err := s.codes.Get(ctx, phone, otp.PurposeReset)
	if err != nil {
		return nil, err
	}
	if stored.Value != code {
		return nil, otp.ErrCodeMismatch
	}

	rotated, err := s.rotateSession(ctx, sessionToken, phone, session.StageCodeVerified)
	if err != nil {
		return nil, err
	}
	// the code is echoed back; the client resubmits it with SetNewPassword
	return &authpkg.ResetTicket{SessionToken: rotated, Code: code}, nil
}

func (s *authService) SetNewPassword(ctx context.Context, sessionToken, phone, code, newPassword string) error {
	sess, err := s.sessions.Validate(ctx, sessionToken, phone)
	if err != nil {
		return authpkg.ErrInvalidToken
	}
	if sess.Stage != session.StageCodeVerified {
		return authpkg.ErrInvalidToken
	}
	// same minimum as registration; checked before the code is consumed so a
	// rejected password does not burn the verification
	if len(newPassword) < 8 {
		return authpkg.ErrWeakPassword
	}
	if err := s.codes.Verify(ctx, phone, otp.PurposeReset, code); err != nil {
		return err
	}

	user, err := s.creds.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.creds.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, sessionToken); err != nil {
		s.log.Warn("reset session cleanup failed", zap.Error(err))
	}
	// changing the password invalidates every existing session
	if err := s.issuer.RevokeAll(ctx, user.ID, "Password reset"); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// issueResetCode issues and dispatches a reset code. Dispatch failures are
// logged, not surfaced: surfacing them would reveal that the phone exists.
func (s *authService) issueResetCode(ctx context.Context, phone string) {
	code, err := s.codes.Issue(ctx, phone, otp.PurposeReset)
	if err != nil {
		s.log.Error("reset code issue failed", zap.Error(err))
		return
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		s.log.Error("reset code dispatch failed", zap.Error(err))
	}
}

func (s *authService) rotateSession(ctx context.Context, oldToken, phone string, stage session.Stage) (string, error) {
	if err := s.sessions.Delete(ctx, oldToken); err != nil {
		return "", err
	}
	return s.sessions.Mint(ctx, phone, stage)
}
