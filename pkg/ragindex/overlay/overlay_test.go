package overlay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/overlay"
)

// Contract: an empty path yields a nil runtime and no error (no overlay
// configured is the common case, spec §4.1).
func Test_Load_EmptyPathYieldsNilRuntime(t *testing.T) {
	t.Parallel()

	rt, err := overlay.Load(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, rt)
}

// Contract: every hook on a nil *Runtime is a transparent no-op.
func Test_NilRuntime_HooksAreTransparentNoOps(t *testing.T) {
	t.Parallel()

	var rt *overlay.Runtime

	id, ok, err := rt.IDGenerator("adr", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, id)

	fm, ok, err := rt.RenderFrontmatter("adr", "Title", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, fm)

	diags, err := rt.ValidateDoc(&model.Document{ID: "A-1"}, "adr")
	require.NoError(t, err)
	require.Nil(t, diags)

	require.NoError(t, rt.Close())
}
