package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGeneratesULID(t *testing.T) {
	ctx, id := Ensure(context.Background(), "")

	_, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, FromContext(ctx))
}

func TestEnsurePrefersInbound(t *testing.T) {
	ctx := WithID(context.Background(), "existing")

	_, id := Ensure(ctx, " upstream ")
	assert.Equal(t, "upstream", id)

	_, id = Ensure(ctx, "")
	assert.Equal(t, "existing", id)
}
