package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_Lifecycle(t *testing.T) {
	sut := NewStore()
	assert.False(t, sut.Authenticated())

	sut.Set("token-abc", Identity{ID: "u1", Email: "u1@example.com", Role: "customer"})
	assert.True(t, sut.Authenticated())
	assert.Equal(t, "token-abc", sut.Token())
	assert.Equal(t, "u1", sut.Identity().ID)

	sut.Clear()
	assert.False(t, sut.Authenticated())
	assert.Empty(t, sut.Token())
	assert.Empty(t, sut.Identity().ID)
}
