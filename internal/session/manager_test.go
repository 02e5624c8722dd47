package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsSequentialInvoiceNumbers(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	first, err := m.Create(ctx)
	require.NoError(t, err)
	second, err := m.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, "INV-1001", first.Store.Snapshot().InvoiceNumber)
	assert.Equal(t, "INV-1002", second.Store.Snapshot().InvoiceNumber)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, first.Store.Snapshot().Date)
}

func TestGetUnknownSessionFailsFast(t *testing.T) {
	m := NewManager()

	_, err := m.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCloseDiscardsSession(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	sess, err := m.Create(ctx)
	require.NoError(t, err)

	got, err := m.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, m.Close(ctx, sess.ID))

	_, err = m.Get(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = m.Close(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListPaginates(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := m.Create(ctx)
		require.NoError(t, err)
	}

	page1, total, err := m.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page1, 2)

	page3, total, err := m.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page3, 1)

	empty, total, err := m.List(ctx, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, empty)
}
