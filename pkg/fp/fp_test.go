package fp_test

import (
	"testing"

	"github.com/fivestack-gg/fivestack/pkg/fp"
	"github.com/stretchr/testify/require"
)

func TestUniq(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"scrim", "draft"}, fp.Uniq([]string{"scrim", "draft", "scrim"}))
	require.Empty(t, fp.Uniq([]string{}))
}

func TestContains(t *testing.T) {
	t.Parallel()

	require.True(t, fp.Contains([]string{"Ahri", "Jinx"}, "Jinx"))
	require.False(t, fp.Contains([]string{"Ahri", "Jinx"}, "Ornn"))
	require.False(t, fp.Contains([]string{}, "Ahri"))
}
