package catalog

import (
	"fmt"
	"strings"

	"sfinmcp/internal/domain"
)

type Category string

const (
	CategoryValuation     Category = "valuation"
	CategoryProfitability Category = "profitability"
	CategoryGrowth        Category = "growth"
	CategoryBalanceSheet  Category = "balance_sheet"
	CategoryCashFlow      Category = "cash_flow"
	CategoryPrice         Category = "price"
	CategoryShareholding  Category = "shareholding"
	CategoryDividends     Category = "dividends"
)

var categoryOrder = []Category{
	CategoryValuation,
	CategoryProfitability,
	CategoryGrowth,
	CategoryBalanceSheet,
	CategoryCashFlow,
	CategoryPrice,
	CategoryShareholding,
	CategoryDividends,
}

// Parameter is one field usable in a screen query.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type ParameterSet map[Category][]Parameter

// Categories lists parameter categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Parameters returns one category, or every category when category is blank.
func (c *Catalog) Parameters(category string) (ParameterSet, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		out := make(ParameterSet, len(c.params))
		for k, v := range c.params {
			out[k] = append([]Parameter(nil), v...)
		}
		return out, nil
	}
	params, ok := c.params[Category(category)]
	if !ok {
		return nil, domain.E(domain.KindInvalidArgument, "catalog.parameters",
			fmt.Sprintf("unknown category %q", category), nil)
	}
	return ParameterSet{Category(category): append([]Parameter(nil), params...)}, nil
}

func builtinParameters() ParameterSet {
	return ParameterSet{
		CategoryValuation: {
			{Name: "Market Capitalization", Description: "Current market value of all outstanding shares", Unit: "Rs. Cr."},
			{Name: "Price to Earning", Description: "Current price divided by trailing twelve month EPS"},
			{Name: "Price to book value", Description: "Current price divided by book value per share"},
			{Name: "EVEBITDA", Description: "Enterprise value divided by EBITDA"},
			{Name: "PEG Ratio", Description: "Price to earning divided by 3 year EPS growth"},
			{Name: "Industry PE", Description: "Median price to earning of the industry"},
			{Name: "Enterprise Value", Description: "Market capitalization plus debt minus cash", Unit: "Rs. Cr."},
			{Name: "Price to Sales", Description: "Market capitalization divided by trailing sales"},
		},
		CategoryProfitability: {
			{Name: "Return on equity", Description: "Net profit as a share of average shareholder equity", Unit: "%"},
			{Name: "Return on capital employed", Description: "EBIT as a share of capital employed", Unit: "%"},
			{Name: "Return on assets", Description: "Net profit as a share of total assets", Unit: "%"},
			{Name: "OPM", Description: "Operating profit margin for the trailing twelve months", Unit: "%"},
			{Name: "NPM last year", Description: "Net profit margin for the last financial year", Unit: "%"},
			{Name: "Net profit", Description: "Trailing twelve month net profit", Unit: "Rs. Cr."},
			{Name: "EPS", Description: "Trailing twelve month earnings per share", Unit: "Rs."},
		},
		CategoryGrowth: {
			{Name: "Sales growth", Description: "Year on year sales growth", Unit: "%"},
			{Name: "Sales growth 3Years", Description: "Compounded sales growth over 3 years", Unit: "%"},
			{Name: "Sales growth 5Years", Description: "Compounded sales growth over 5 years", Unit: "%"},
			{Name: "Profit growth", Description: "Year on year net profit growth", Unit: "%"},
			{Name: "Profit growth 3Years", Description: "Compounded profit growth over 3 years", Unit: "%"},
			{Name: "Profit growth 5Years", Description: "Compounded profit growth over 5 years", Unit: "%"},
			{Name: "EPS growth 3Years", Description: "Compounded EPS growth over 3 years", Unit: "%"},
		},
		CategoryBalanceSheet: {
			{Name: "Debt to equity", Description: "Total borrowings divided by shareholder equity"},
			{Name: "Current ratio", Description: "Current assets divided by current liabilities"},
			{Name: "Interest Coverage Ratio", Description: "EBIT divided by interest expense"},
			{Name: "Book value", Description: "Net worth per share", Unit: "Rs."},
			{Name: "Debt", Description: "Total borrowings", Unit: "Rs. Cr."},
			{Name: "Reserves", Description: "Reserves and surplus", Unit: "Rs. Cr."},
		},
		CategoryCashFlow: {
			{Name: "Cash from operations last year", Description: "Operating cash flow for the last financial year", Unit: "Rs. Cr."},
			{Name: "Free cash flow last year", Description: "Operating cash flow minus capital expenditure", Unit: "Rs. Cr."},
			{Name: "Free cash flow 3years", Description: "Cumulative free cash flow over 3 years", Unit: "Rs. Cr."},
			{Name: "Cash from investing last year", Description: "Investing cash flow for the last financial year", Unit: "Rs. Cr."},
			{Name: "Cash from financing last year", Description: "Financing cash flow for the last financial year", Unit: "Rs. Cr."},
		},
		CategoryPrice: {
			{Name: "Current price", Description: "Last traded price", Unit: "Rs."},
			{Name: "High price", Description: "52 week high", Unit: "Rs."},
			{Name: "Low price", Description: "52 week low", Unit: "Rs."},
			{Name: "Return over 3months", Description: "Price return over 3 months", Unit: "%"},
			{Name: "Return over 1year", Description: "Price return over 1 year", Unit: "%"},
			{Name: "DMA 50", Description: "50 day moving average price", Unit: "Rs."},
			{Name: "DMA 200", Description: "200 day moving average price", Unit: "Rs."},
		},
		CategoryShareholding: {
			{Name: "Promoter holding", Description: "Share of equity held by promoters", Unit: "%"},
			{Name: "Change in promoter holding", Description: "Change in promoter holding over the last quarter", Unit: "%"},
			{Name: "FII holding", Description: "Share of equity held by foreign institutions", Unit: "%"},
			{Name: "DII holding", Description: "Share of equity held by domestic institutions", Unit: "%"},
			{Name: "Public holding", Description: "Share of equity held by the public", Unit: "%"},
			{Name: "Pledged percentage", Description: "Share of promoter holding that is pledged", Unit: "%"},
		},
		CategoryDividends: {
			{Name: "Dividend yield", Description: "Dividend per share divided by current price", Unit: "%"},
			{Name: "Dividend Payout Ratio", Description: "Dividends as a share of net profit", Unit: "%"},
			{Name: "Dividend last year", Description: "Total dividend paid in the last financial year", Unit: "Rs. Cr."},
			{Name: "Average dividend payout 3years", Description: "Mean payout ratio over 3 years", Unit: "%"},
		},
	}
}
