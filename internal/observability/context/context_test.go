package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  req-1 ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	assert.Empty(t, RequestIDFromContext(WithRequestID(context.Background(), "   ")))
}

func TestActorIgnoresBlankValues(t *testing.T) {
	ctx := WithActor(context.Background(), "user", "")
	actorType, actorID := ActorFromContext(ctx)
	assert.Equal(t, "user", actorType)
	assert.Empty(t, actorID)
}
