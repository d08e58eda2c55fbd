package natskv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

func TestConnectValidation(t *testing.T) {
	_, err := Connect(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestDisconnectedStore(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	_, _, err := s.Get(ctx, "key")
	assert.ErrorIs(t, err, sdkerrors.ErrNotConnected)

	err = s.Delete(ctx, "key")
	assert.ErrorIs(t, err, sdkerrors.ErrNotConnected)
}

func TestKeyAndTTLValidation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	_, _, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, sdkerrors.ErrInvalidKey)

	err = s.Set(ctx, "", []byte("x"), time.Minute)
	assert.ErrorIs(t, err, sdkerrors.ErrInvalidKey)

	err = s.Set(ctx, "key", []byte("x"), 0)
	assert.Error(t, err)
}
