package screener

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"sfinmcp/internal/domain"
)

// rawTable is a table as read from the DOM: header texts and cell texts.
type rawTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// companyURL is the consolidated company page for symbol.
func companyURL(base, symbol string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return u.JoinPath("company", url.PathEscape(strings.ToUpper(symbol)), "consolidated").String() + "/", nil
}

func loginURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return u.JoinPath("login").String() + "/", nil
}

// screenURL builds the raw screen query URL. Empty sort is omitted.
func screenURL(base string, q domain.ScreenQuery) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u = u.JoinPath("screen", "raw")
	u.Path += "/"
	values := url.Values{}
	values.Set("query", q.Query)
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

var numberReplacer = strings.NewReplacer(",", "", "₹", "", "%", "", "Cr.", "", "\u00a0", "")

// parseCell turns a cell text into a float64 when it is numeric, nil when
// blank, and the trimmed text otherwise.
func parseCell(text string) any {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if text == "" {
		return nil
	}
	cleaned := strings.TrimSpace(numberReplacer.Replace(text))
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return f
	}
	return text
}

// cleanLabel strips the expand marker screener adds to row labels.
func cleanLabel(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	text = strings.TrimSuffix(text, "+")
	return strings.TrimSpace(text)
}

// periodTable transposes a statement table (line items by period) into one
// row per period, keyed by "Period" then each line item in page order.
func periodTable(raw rawTable) domain.Table {
	if len(raw.Columns) < 2 || len(raw.Rows) == 0 {
		return domain.Table{}
	}
	periods := raw.Columns[1:]
	columns := []string{"Period"}
	for _, row := range raw.Rows {
		if len(row) == 0 {
			continue
		}
		columns = append(columns, cleanLabel(row[0]))
	}

	table := domain.Table{Columns: columns}
	for p, period := range periods {
		cells := make([]any, 0, len(columns))
		cells = append(cells, strings.TrimSpace(period))
		for _, row := range raw.Rows {
			if len(row) == 0 {
				continue
			}
			var cell any
			if p+1 < len(row) {
				cell = parseCell(row[p+1])
			}
			cells = append(cells, cell)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// recordTable keeps the page layout: one row per tr, columns from th.
func recordTable(raw rawTable) domain.Table {
	if len(raw.Columns) == 0 || len(raw.Rows) == 0 {
		return domain.Table{}
	}
	columns := make([]string, len(raw.Columns))
	for i, col := range raw.Columns {
		columns[i] = cleanLabel(col)
		if columns[i] == "" {
			columns[i] = "#"
		}
	}
	table := domain.Table{Columns: columns}
	for _, row := range raw.Rows {
		if len(row) == 0 {
			continue
		}
		cells := make([]any, len(columns))
		for i := range columns {
			if i < len(row) {
				cells[i] = parseCell(row[i])
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// overviewFrom builds the overview map from top-ratio name/value pairs.
func overviewFrom(name string, pairs [][]string) domain.Overview {
	overview := domain.Overview{}
	if name = strings.TrimSpace(name); name != "" {
		overview["Name"] = name
	}
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		key := cleanLabel(pair[0])
		if key == "" {
			continue
		}
		overview[key] = parseCell(pair[1])
	}
	return overview
}

var totalResultsPattern = regexp.MustCompile(`([\d,]+)\s+results?\s+found`)

// parseTotalResults reads "N results found" from page text. It falls back
// to fallback when the phrase is missing.
func parseTotalResults(text string, fallback int) int {
	match := totalResultsPattern.FindStringSubmatch(text)
	if match == nil {
		return fallback
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return fallback
	}
	return n
}
