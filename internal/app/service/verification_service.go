package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrVerificationInvalid = common.NewError(common.KindValidation, "Verification link invalid or expired")
	ErrVerificationTooSoon = common.NewError(common.KindRateLimited, "Please wait before requesting another verification email")
)

// MailEnqueuer hands a mail to the background sender.
type MailEnqueuer interface {
	Enqueue(ctx context.Context, job model.MailJob) error
}

type VerificationOptions struct {
	TokenTTL time.Duration
	Cooldown time.Duration
	BaseURL  string
}

type VerificationService struct {
	userRepo   repository.UserRepository
	verifyRepo repository.VerificationRepository
	mail       MailEnqueuer
	opts       VerificationOptions
	logger     *zap.Logger
}

func NewVerificationService(
	userRepo repository.UserRepository,
	verifyRepo repository.VerificationRepository,
	mail MailEnqueuer,
	opts VerificationOptions,
	logger *zap.Logger,
) *VerificationService {
	return &VerificationService{
		userRepo:   userRepo,
		verifyRepo: verifyRepo,
		mail:       mail,
		opts:       opts,
		logger:     logger,
	}
}

type EmailRequest struct {
	Email string `json:"email"`
}

type VerificationStatus struct {
	IsVerified bool `json:"isVerified"`
}

func (s *VerificationService) findUser(ctx context.Context, rawEmail string) (*model.User, error) {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return nil, ErrMissingFields
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SendVerification queues a verification mail. It returns false without
// sending anything when the account is already verified.
func (s *VerificationService) SendVerification(ctx context.Context, req EmailRequest) (bool, error) {
	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return false, err
	}
	if user.IsVerified {
		return false, nil
	}

	ok, err := s.verifyRepo.AcquireCooldown(ctx, user.Email, s.opts.Cooldown)
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	if !ok {
		return false, ErrVerificationTooSoon
	}

	if err := s.queueMail(ctx, user); err != nil {
		if relErr := s.verifyRepo.ReleaseCooldown(ctx, user.Email); relErr != nil {
			s.logger.Warn("failed to release verification cooldown", zap.String("user_id", user.ID), zap.Error(relErr))
		}
		return false, err
	}
	s.logger.Info("verification mail queued", zap.String("user_id", user.ID))
	return true, nil
}

func (s *VerificationService) queueMail(ctx context.Context, user *model.User) error {
	token := uuid.NewString()
	if err := s.verifyRepo.SaveToken(ctx, token, user.ID, s.opts.TokenTTL); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := s.opts.BaseURL + "/verify-email?token=" + url.QueryEscape(token)
	job := model.MailJob{
		To:      user.Email,
		Subject: "Verify your email",
		Body:    verificationBody(user.Username, link, s.opts.TokenTTL),
	}
	if err := s.mail.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to queue verification mail: %w", err)
	}
	return nil
}

func verificationBody(username, link string, ttl time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", username)
	b.WriteString("Confirm your email address by opening the link below:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	fmt.Fprintf(&b, "The link expires in %s.\r\n", ttl)
	return b.String()
}

func (s *VerificationService) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrVerificationInvalid
	}
	userID, ok, err := s.verifyRepo.ConsumeToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}
	if !ok {
		return ErrVerificationInvalid
	}
	if err := s.userRepo.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrVerificationInvalid
		}
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (s *VerificationService) Status(ctx context.Context, req EmailRequest) (*VerificationStatus, error) {
	user, err := s.findUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	return &VerificationStatus{IsVerified: user.IsVerified}, nil
}
