package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
)

type Service interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*ValidationResult, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Redeem(ctx context.Context, code string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupon evaluator. A nil clock defaults to time.Now.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Validate(ctx context.Context, code string, amount decimal.Decimal) (*ValidationResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return rejected(ReasonCodeRequired, ReasonCodeRequired.message(nil)), nil
	}
	if !amount.IsPositive() {
		return rejected(ReasonInvalidAmount, ReasonInvalidAmount.message(nil)), nil
	}

	c, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Info().Str("code", code).Msg("service: coupon not found")
			return rejected(ReasonNotFound, ReasonNotFound.message(nil)), nil
		}
		log.Error().Err(err).Str("code", code).Msg("service: failed to fetch coupon")
		return nil, fmt.Errorf("service: failed to validate coupon: %w", err)
	}

	if reason := c.RejectReason(amount, s.now()); reason != ReasonNone {
		log.Info().Str("code", code).Str("reason", string(reason)).Msg("service: coupon rejected")
		result := rejected(reason, reason.message(c))
		result.Coupon = c.Summary()
		return result, nil
	}

	return &ValidationResult{
		Valid:    true,
		Message:  "coupon applied",
		Discount: c.Discount(amount),
		Coupon:   c.Summary(),
	}, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.BadRequest("coupon code is required")
	}

	c, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to get coupon: %w", err)
	}
	return c, nil
}

func (s *service) Redeem(ctx context.Context, code string) error {
	code = NormalizeCode(code)

	ok, err := s.repo.IncrementUsage(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		log.Error().Err(err).Str("code", code).Msg("service: failed to redeem coupon")
		return fmt.Errorf("service: failed to redeem coupon: %w", err)
	}
	if !ok {
		log.Warn().Str("code", code).Msg("service: coupon usage cap reached during redemption")
		return ErrCouponExhausted
	}

	log.Info().Str("code", code).Msg("service: coupon redeemed")
	return nil
}
