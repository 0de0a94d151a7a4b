package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

// PaymentAccountStore is an in-memory storage.PaymentAccountStore
type PaymentAccountStore struct {
	mu       sync.Mutex
	accounts map[string]domain.PaymentAccount

	// Err, when set, is returned by every call
	Err error
}

func NewPaymentAccountStore(accounts ...domain.PaymentAccount) *PaymentAccountStore {
	s := &PaymentAccountStore{accounts: make(map[string]domain.PaymentAccount)}
	for _, a := range accounts {
		s.accounts[a.UserID] = a
	}
	return s
}

func (s *PaymentAccountStore) GetPaymentAccount(_ context.Context, userID string) (*domain.PaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.accounts[userID]
	if !ok {
		return nil, storage.ErrPaymentAccountNotFound
	}
	return &a, nil
}

func (s *PaymentAccountStore) UpsertPaymentAccount(_ context.Context, userID, stripeAccountID string) (*domain.PaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a := s.accounts[userID]
	a.UserID = userID
	a.StripeAccountID = &stripeAccountID
	a.UpdatedAt = time.Now().UTC()
	s.accounts[userID] = a
	return &a, nil
}

func (s *PaymentAccountStore) SetOnboardingComplete(_ context.Context, userID string, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.accounts[userID]
	if !ok {
		return storage.ErrPaymentAccountNotFound
	}
	a.OnboardingComplete = domain.OnboardingFlag(complete)
	s.accounts[userID] = a
	return nil
}
