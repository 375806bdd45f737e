package ports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/target/storefront-go/internal/mocks"
	"github.com/target/storefront-go/internal/ports"
)

func TestDeleteKeys_AttemptsEveryKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	boom := errors.New("boom")

	gomock.InOrder(
		store.EXPECT().Delete(gomock.Any(), ports.KeyAccessToken).Return(boom),
		store.EXPECT().Delete(gomock.Any(), ports.KeyRefreshToken).Return(nil),
		store.EXPECT().Delete(gomock.Any(), ports.KeyUser).Return(nil),
	)

	err := ports.DeleteKeys(context.Background(), store, ports.SessionKeys)
	assert.ErrorIs(t, err, boom)
}

type batchStore struct {
	ports.Store
	got []string
}

func (b *batchStore) DeleteMany(_ context.Context, keys []string) error {
	b.got = append(b.got, keys...)
	return nil
}

func TestDeleteKeys_UsesBatch(t *testing.T) {
	b := &batchStore{}
	assert.NoError(t, ports.DeleteKeys(context.Background(), b, ports.SessionKeys))
	assert.Equal(t, ports.SessionKeys, b.got)
}
