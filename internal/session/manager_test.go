package session

import (
	"context"
	"testing"

	"github.com/akolanti/SecoursTech/internal/data/store"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	m := NewManager(&MockPipeline{}, store.InitInMemoryMessageLog())
	ctx := context.Background()

	c := m.Create()
	require.NotEmpty(t, c.Id())

	got, err := m.Get(ctx, c.Id())
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Same(t, c, m.Open(c.Id()))
	assert.Equal(t, []string{c.Id()}, m.Ids())

	_, err = c.Submit(ctx, "Bonjour")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, c.Id()))
	_, err = m.Get(ctx, c.Id())
	assert.ErrorIs(t, err, ErrUnknownConversation)
	assert.ErrorIs(t, m.Delete(ctx, c.Id()), ErrUnknownConversation)

	// a reopened conversation starts empty
	snap, err := m.Open(c.Id()).State(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Messages)
}

func TestManager_ReattachesStoredConversation(t *testing.T) {
	ctx := context.Background()
	messages := store.InitInMemoryMessageLog()

	before := NewManager(&MockPipeline{}, messages)
	c := before.Create()
	_, err := c.Submit(ctx, "Bonjour")
	require.NoError(t, err)

	// a new manager over the same log stands in for a restarted process
	after := NewManager(&MockPipeline{}, messages)
	got, err := after.Get(ctx, c.Id())
	require.NoError(t, err)
	assert.Equal(t, c.Id(), got.Id())

	snap, err := got.State(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Bonjour", snap.Messages[0].Content)
	assert.Equal(t, chatModel.StepIdle, snap.Processing.Step)

	_, err = after.Get(ctx, "never-stored")
	assert.ErrorIs(t, err, ErrUnknownConversation)

	require.NoError(t, after.Delete(ctx, c.Id()))
	_, err = NewManager(&MockPipeline{}, messages).Get(ctx, c.Id())
	assert.ErrorIs(t, err, ErrUnknownConversation)
}
