package contexts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContributorLine(t *testing.T) {
	line := ContributorLine("alice", "https://github.com/alice", "https://avatars.example/alice", 42, true)
	require.Equal(t, "- [x] [@alice](https://github.com/alice) ([avatar](https://avatars.example/alice)) — 42 contributions", line)

	line = ContributorLine("bob", "https://github.com/bob", "https://avatars.example/bob", 1, false)
	require.Equal(t, "- [ ] [@bob](https://github.com/bob) ([avatar](https://avatars.example/bob)) — 1 contributions", line)
}

func TestToggleSelection(t *testing.T) {
	content := "# People\n\n" +
		ContributorLine("alice", "https://github.com/alice", "https://a/alice", 42, true) + "\n" +
		ContributorLine("bob", "https://github.com/bob", "https://a/bob", 7, true) + "\n"

	toggled, found := ToggleSelection(content, "alice")
	require.True(t, found)
	require.Equal(t, []string{"bob"}, SelectedContributors(toggled))

	toggled, found = ToggleSelection(toggled, "alice")
	require.True(t, found)
	require.ElementsMatch(t, []string{"alice", "bob"}, SelectedContributors(toggled))
}

func TestToggleSelection_UnknownLogin(t *testing.T) {
	content := ContributorLine("alice", "https://github.com/alice", "https://a/alice", 1, true)
	_, found := ToggleSelection(content, "carol")
	require.False(t, found)
}

func TestToggleSelection_LoginIsNotAPrefixMatch(t *testing.T) {
	content := ContributorLine("alice", "https://github.com/alice", "https://a/alice", 1, true) + "\n" +
		ContributorLine("alicef", "https://github.com/alicef", "https://a/alicef", 2, true) + "\n"

	toggled, found := ToggleSelection(content, "alicef")
	require.True(t, found)
	require.Equal(t, []string{"alice"}, SelectedContributors(toggled))
}

func TestSelectedContributors_Empty(t *testing.T) {
	require.Empty(t, SelectedContributors("# People\n\n_No contributor data was available._\n"))
}
