package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolRoundTrip(t *testing.T) {
	for _, tool := range AllTools() {
		parsed, ok := ParseTool(tool.String())
		require.True(t, ok, tool.String())
		assert.Equal(t, tool, parsed)
		assert.NotEqual(t, GroupNone, tool.Group(), tool.String())
	}
}

func TestParseToolUnknown(t *testing.T) {
	_, ok := ParseTool("not_a_tool")
	assert.False(t, ok)
	_, ok = ParseTool("")
	assert.False(t, ok)
}

func TestAllToolsCount(t *testing.T) {
	assert.Len(t, AllTools(), 12)
}

func TestToolGroups(t *testing.T) {
	assert.Equal(t, GroupCacheAdmin, ToolClearCache.Group())
	assert.Equal(t, GroupSessionAdmin, ToolCheckLoginStatus.Group())
	assert.Equal(t, GroupScreening, ToolScreenStocks.Group())
	assert.Equal(t, GroupSymbol, ToolGetPeerComparison.Group())
	assert.Equal(t, GroupNone, Tool(200).Group())
}

func TestTableRecords(t *testing.T) {
	table := Table{
		Columns: []string{"Item", "Mar 2024"},
		Rows:    [][]any{{"Sales", 100.5}, {"Profit"}},
	}
	recs := table.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 100.5, recs[0]["Mar 2024"])
	assert.Nil(t, recs[1]["Mar 2024"])
	assert.False(t, table.Empty())
	assert.True(t, Table{}.Empty())
}

func TestCredentialsHasLogin(t *testing.T) {
	assert.True(t, Credentials{Email: "a@b.c", Password: "x"}.HasLogin())
	assert.False(t, Credentials{Email: "a@b.c"}.HasLogin())
	assert.False(t, Credentials{}.HasLogin())
}
