// Package catalog holds the static tool descriptors and the screening
// parameter reference served by get_screening_parameters.
package catalog

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"sfinmcp/internal/domain"
)

// Descriptor describes one tool as advertised to clients.
type Descriptor struct {
	Tool        domain.Tool
	Title       string
	Description string
	InputSchema *jsonschema.Schema
	// ReadOnly tools never change server state.
	ReadOnly bool
	// OpenWorld tools reach the remote site.
	OpenWorld bool
}

func (d Descriptor) Name() string {
	return d.Tool.String()
}

// Catalog is the immutable set of tool descriptors plus their resolved schemas.
type Catalog struct {
	descriptors []Descriptor
	byTool      map[domain.Tool]int
	resolved    map[domain.Tool]*jsonschema.Resolved
	params      ParameterSet
}

// New builds the catalog. It fails only if a built-in schema does not resolve.
func New() (*Catalog, error) {
	descriptors := builtinDescriptors()
	c := &Catalog{
		descriptors: descriptors,
		byTool:      make(map[domain.Tool]int, len(descriptors)),
		resolved:    make(map[domain.Tool]*jsonschema.Resolved, len(descriptors)),
		params:      builtinParameters(),
	}
	for i, d := range descriptors {
		resolved, err := d.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for %s: %w", d.Name(), err)
		}
		c.byTool[d.Tool] = i
		c.resolved[d.Tool] = resolved
	}
	return c, nil
}

// MustNew is New for package-level wiring and tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Tools returns descriptors in declaration order.
func (c *Catalog) Tools() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

func (c *Catalog) Descriptor(tool domain.Tool) (Descriptor, bool) {
	idx, ok := c.byTool[tool]
	if !ok {
		return Descriptor{}, false
	}
	return c.descriptors[idx], true
}

// Validate checks decoded arguments against the tool's input schema.
func (c *Catalog) Validate(tool domain.Tool, args map[string]any) error {
	resolved, ok := c.resolved[tool]
	if !ok {
		return domain.E(domain.KindUnknownTool, "catalog.validate", fmt.Sprintf("unknown tool %q", tool.String()), nil)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := resolved.Validate(args); err != nil {
		return domain.E(domain.KindInvalidArgument, "catalog.validate", "invalid arguments for "+tool.String()+": "+err.Error(), err)
	}
	return nil
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func symbolSchema(description string) *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"symbol": {
			Type:        "string",
			Description: description,
			MinLength:   intPtr(1),
		},
	}, "symbol")
}

func symbolTool(tool domain.Tool, title, description, symbolHint string) Descriptor {
	return Descriptor{
		Tool:        tool,
		Title:       title,
		Description: description,
		InputSchema: symbolSchema(symbolHint),
		ReadOnly:    true,
		OpenWorld:   true,
	}
}

const shortSymbolHint = "Indian stock symbol (e.g., INFY, TCS, RELIANCE)"

func builtinDescriptors() []Descriptor {
	categories := make([]any, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		categories = append(categories, string(category))
	}

	return []Descriptor{
		{
			Tool:        domain.ToolGetCacheStats,
			Title:       "Cache statistics",
			Description: "Get ticker cache statistics and performance info",
			InputSchema: objectSchema(nil),
			ReadOnly:    true,
		},
		{
			Tool:        domain.ToolClearCache,
			Title:       "Clear cache",
			Description: "Clear all cached ticker objects (use when you want fresh data)",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"symbol": {
					Type:        "string",
					Description: "Optional: specific symbol to clear from cache. If not provided, clears all cache.",
				},
			}),
		},
		{
			Tool:        domain.ToolCheckLoginStatus,
			Title:       "Login status",
			Description: "Check whether the server holds an authenticated screener.in session. Screening requires login.",
			InputSchema: objectSchema(nil),
			ReadOnly:    true,
		},
		{
			Tool:        domain.ToolScreenStocks,
			Title:       "Screen stocks",
			Description: "Run a screener.in stock screen such as \"Market Capitalization > 5000 AND Return on equity > 15\". Requires a logged-in session.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Screen query using parameter names from get_screening_parameters",
					MinLength:   intPtr(1),
				},
				"sort": {
					Type:        "string",
					Description: "Optional parameter name to sort results by",
				},
				"order": {
					Type:        "string",
					Description: "Sort order",
					Enum:        []any{"asc", "desc"},
					Default:     []byte(`"desc"`),
				},
				"page": {
					Type:        "integer",
					Description: "Result page, starting at 1",
					Minimum:     floatPtr(1),
					Default:     []byte(`1`),
				},
			}, "query"),
			ReadOnly:  true,
			OpenWorld: true,
		},
		{
			Tool:        domain.ToolGetScreeningParameters,
			Title:       "Screening parameters",
			Description: "List the parameters usable in screen_stocks queries, optionally for one category.",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"category": {
					Type:        "string",
					Description: "Optional parameter category",
					Enum:        categories,
				},
			}),
			ReadOnly: true,
		},
		symbolTool(domain.ToolGetOverview, "Company overview",
			"Get company overview for Indian stocks listed on NSE/BSE. Use Indian stock symbols like INFY, TCS, RELIANCE, etc.",
			"Indian stock symbol (e.g., INFY, TCS, RELIANCE, HDFCBANK)"),
		symbolTool(domain.ToolGetIncomeStatement, "Income statement",
			"Get income statement for Indian companies. Data sourced from screener.in", shortSymbolHint),
		symbolTool(domain.ToolGetBalanceSheet, "Balance sheet",
			"Get balance sheet for Indian companies listed on NSE/BSE", shortSymbolHint),
		symbolTool(domain.ToolGetCashFlow, "Cash flow",
			"Get cash flow statement for Indian companies", shortSymbolHint),
		symbolTool(domain.ToolGetQuarterlyResults, "Quarterly results",
			"Get quarterly results for Indian companies from screener.in", shortSymbolHint),
		symbolTool(domain.ToolGetShareholding, "Shareholding pattern",
			"Get shareholding pattern for Indian companies (promoter, institutional, public holdings)", shortSymbolHint),
		symbolTool(domain.ToolGetPeerComparison, "Peer comparison",
			"Compare an Indian company with its listed industry peers on valuation and returns", shortSymbolHint),
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
