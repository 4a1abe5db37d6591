package reviews

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	createErr error
	created   []*market.Review
}

func (f *fakeStore) CreateTx(_ context.Context, rv *market.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	rv.ID = "r1"
	rv.IsVerified = true
	f.created = append(f.created, rv)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ market.ReviewFilter) ([]market.Review, market.ReviewStats, error) {
	return nil, market.ReviewStats{}, nil
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing order id", CreateInput{BuyerID: "b1", Rating: 5}},
		{"missing buyer id", CreateInput{OrderID: "o1", Rating: 5}},
		{"rating zero", CreateInput{OrderID: "o1", BuyerID: "b1", Rating: 0}},
		{"rating six", CreateInput{OrderID: "o1", BuyerID: "b1", Rating: 6}},
		{"rating negative", CreateInput{OrderID: "o1", BuyerID: "b1", Rating: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &Service{Store: &fakeStore{}, Log: zerolog.Nop()}
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, market.ErrValidation)
		})
	}
}

// Scenario D: belum COMPLETED -> InvalidState; setelah COMPLETED sukses sekali,
// percobaan kedua -> Conflict. State gating hidup di store (repo), service
// harus meneruskan sentinel-nya apa adanya.
func TestCreatePropagatesStoreErrors(t *testing.T) {
	for _, sentinel := range []error{market.ErrInvalidState, market.ErrForbidden, market.ErrReviewExists, market.ErrOrderNotFound} {
		svc := &Service{Store: &fakeStore{createErr: sentinel}, Log: zerolog.Nop()}
		_, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", BuyerID: "b1", Rating: 4})
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestCreateSuccess(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{Store: store, Log: zerolog.Nop()}

	rv, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", BuyerID: "b1", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, "r1", rv.ID)
	assert.True(t, rv.IsVerified)
	require.Len(t, store.created, 1)
	assert.Equal(t, 5, store.created[0].Rating)
}
