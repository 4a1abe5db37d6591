package disputes

import (
	"context"
	"strings"
	"testing"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	openErr error
	opened  []*market.Dispute
}

func (f *fakeStore) OpenTx(_ context.Context, d *market.Dispute) error {
	if f.openErr != nil {
		return f.openErr
	}
	d.ID = "d1"
	d.Status = market.DisputeOpen
	f.opened = append(f.opened, d)
	return nil
}

func (f *fakeStore) Resolve(_ context.Context, id, resolution string) (*market.Dispute, error) {
	return &market.Dispute{ID: id, Status: market.DisputeResolved, Resolution: resolution}, nil
}

func (f *fakeStore) List(_ context.Context, _ market.DisputeFilter) ([]market.Dispute, int, error) {
	return nil, 0, nil
}

type fakeLimiter struct {
	allow bool
	calls int
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, error) {
	f.calls++
	return f.allow, nil
}

func validInput() OpenInput {
	return OpenInput{
		OrderID:     "o1",
		BuyerID:     "b1",
		Reason:      "item_not_delivered",
		Description: strings.Repeat("x", 25),
	}
}

func TestOpenValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OpenInput)
	}{
		{"missing order id", func(in *OpenInput) { in.OrderID = "" }},
		{"missing buyer id", func(in *OpenInput) { in.BuyerID = "" }},
		{"blank reason", func(in *OpenInput) { in.Reason = "   " }},
		{"short description", func(in *OpenInput) { in.Description = "too short" }},
		{"whitespace-padded short description", func(in *OpenInput) { in.Description = "   short   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lim := &fakeLimiter{allow: true}
			svc := &Service{Store: &fakeStore{}, Limiter: lim, Log: zerolog.Nop()}
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Open(context.Background(), in)
			assert.ErrorIs(t, err, market.ErrValidation)
			assert.Zero(t, lim.calls) // validasi dulu, jangan bakar kuota
		})
	}
}

func TestOpenRateLimited(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Limiter: &fakeLimiter{allow: false}, Log: zerolog.Nop()}
	_, err := svc.Open(context.Background(), validInput())
	assert.ErrorIs(t, err, market.ErrRateLimited)
}

func TestOpenPropagatesStoreErrors(t *testing.T) {
	for _, sentinel := range []error{market.ErrForbidden, market.ErrInvalidState, market.ErrDisputeExists, market.ErrOrderNotFound} {
		svc := &Service{Store: &fakeStore{openErr: sentinel}, Limiter: &fakeLimiter{allow: true}, Log: zerolog.Nop()}
		_, err := svc.Open(context.Background(), validInput())
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestOpenSuccess(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{Store: store, Limiter: &fakeLimiter{allow: true}, Log: zerolog.Nop()}

	d, err := svc.Open(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, market.DisputeOpen, d.Status)
	require.Len(t, store.opened, 1)
	assert.Equal(t, "o1", store.opened[0].OrderID)
}
