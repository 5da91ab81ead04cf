package domain

// Tool is the closed set of tools the server exposes.
type Tool uint8

const (
	ToolUnknown Tool = iota
	ToolGetCacheStats
	ToolClearCache
	ToolCheckLoginStatus
	ToolScreenStocks
	ToolGetScreeningParameters
	ToolGetOverview
	ToolGetIncomeStatement
	ToolGetBalanceSheet
	ToolGetCashFlow
	ToolGetQuarterlyResults
	ToolGetShareholding
	ToolGetPeerComparison

	toolCount
)

// ToolGroup is the routing class of a tool, in dispatch precedence order.
type ToolGroup uint8

const (
	GroupNone ToolGroup = iota
	GroupCacheAdmin
	GroupSessionAdmin
	GroupScreening
	GroupSymbol
)

var toolNames = [toolCount]string{
	ToolUnknown:                "",
	ToolGetCacheStats:          "get_cache_stats",
	ToolClearCache:             "clear_cache",
	ToolCheckLoginStatus:       "check_login_status",
	ToolScreenStocks:           "screen_stocks",
	ToolGetScreeningParameters: "get_screening_parameters",
	ToolGetOverview:            "get_overview",
	ToolGetIncomeStatement:     "get_income_statement",
	ToolGetBalanceSheet:        "get_balance_sheet",
	ToolGetCashFlow:            "get_cash_flow",
	ToolGetQuarterlyResults:    "get_quarterly_results",
	ToolGetShareholding:        "get_shareholding",
	ToolGetPeerComparison:      "get_peer_comparison",
}

var toolGroups = [toolCount]ToolGroup{
	ToolUnknown:                GroupNone,
	ToolGetCacheStats:          GroupCacheAdmin,
	ToolClearCache:             GroupCacheAdmin,
	ToolCheckLoginStatus:       GroupSessionAdmin,
	ToolScreenStocks:           GroupScreening,
	ToolGetScreeningParameters: GroupScreening,
	ToolGetOverview:            GroupSymbol,
	ToolGetIncomeStatement:     GroupSymbol,
	ToolGetBalanceSheet:        GroupSymbol,
	ToolGetCashFlow:            GroupSymbol,
	ToolGetQuarterlyResults:    GroupSymbol,
	ToolGetShareholding:        GroupSymbol,
	ToolGetPeerComparison:      GroupSymbol,
}

var toolsByName = func() map[string]Tool {
	m := make(map[string]Tool, toolCount)
	for t := ToolUnknown + 1; t < toolCount; t++ {
		m[toolNames[t]] = t
	}
	return m
}()

func (t Tool) String() string {
	if t >= toolCount {
		return ""
	}
	return toolNames[t]
}

func (t Tool) Group() ToolGroup {
	if t >= toolCount {
		return GroupNone
	}
	return toolGroups[t]
}

// ParseTool resolves a wire name to a Tool.
func ParseTool(name string) (Tool, bool) {
	t, ok := toolsByName[name]
	return t, ok
}

// AllTools lists every known tool in declaration order.
func AllTools() []Tool {
	out := make([]Tool, 0, toolCount-1)
	for t := ToolUnknown + 1; t < toolCount; t++ {
		out = append(out, t)
	}
	return out
}
