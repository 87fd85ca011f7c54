package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"
)

// WalkIn describes a buyer without an account, as captured at the point of sale.
type WalkIn struct {
	Name    string `json:"name" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address"`
}

// CounterpartyResolver finds or onboards walk-in buyers, keyed by phone.
type CounterpartyResolver struct {
	userRepo repository.UserRepository
}

func NewCounterpartyResolver(userRepo repository.UserRepository) *CounterpartyResolver {
	return &CounterpartyResolver{userRepo: userRepo}
}

func (r *CounterpartyResolver) Resolve(ctx context.Context, seller *model.User, w WalkIn) (*model.User, error) {
	w.Name = strings.TrimSpace(w.Name)
	w.Phone = strings.TrimSpace(w.Phone)
	w.Address = strings.TrimSpace(w.Address)
	if w.Name == "" || w.Phone == "" || w.Address == "" {
		return nil, apperr.Validation("name, phone and address are required for walk-in sales")
	}
	if err := validateRequest(&w); err != nil {
		return nil, err
	}

	existing, err := r.userRepo.FindByPhone(ctx, w.Phone)
	if err == nil {
		return existing, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	handle := sanitizeName(w.Name)
	buyer := &model.User{
		Username:    w.Name,
		Email:       fmt.Sprintf("%s.%s@example.com", handle, digitsOf(w.Phone)),
		Role:        model.RolePembeli,
		Tier:        model.DefaultTier,
		Address:     w.Address,
		Phone:       w.Phone,
		CreatedByID: &seller.ID,
	}
	if err := buyer.SetPassword(handle); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := r.userRepo.Create(ctx, buyer); err != nil {
		// Same phone onboarded concurrently: the other writer won, use its row.
		// idx_users_buyer_phone guarantees the loser lands here.
		if apperr.Is(err, apperr.KindConflict) {
			return r.userRepo.FindByPhone(ctx, w.Phone)
		}
		return nil, err
	}
	return buyer, nil
}

// sanitizeName drops whitespace and lower-cases the result.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if !unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
