package screener

import (
	"fmt"

	"github.com/go-rod/rod"
)

const tableJS = `() => {
	const table = this.tagName === 'TABLE' ? this : this.querySelector('table');
	if (!table) return {columns: [], rows: []};
	const text = (cell) => (cell.innerText || '').trim();
	let columns = Array.from(table.querySelectorAll('thead th')).map(text);
	const bodyRows = Array.from(table.querySelectorAll('tbody tr'));
	if (columns.length === 0 && bodyRows.length > 0) {
		const first = bodyRows.shift();
		columns = Array.from(first.querySelectorAll('th,td')).map(text);
	}
	const rows = bodyRows
		.map((tr) => Array.from(tr.querySelectorAll('th,td')).map(text))
		.filter((cells) => cells.length > 0);
	return {columns, rows};
}`

const ratiosJS = `() => Array.from(this.querySelectorAll('li')).map((li) => {
	const name = li.querySelector('.name');
	const value = li.querySelector('.value');
	return [name ? name.innerText.trim() : '', value ? value.innerText.trim() : ''];
})`

const bodyTextJS = `() => document.body ? document.body.innerText : ''`

// readTable extracts the first table under selector. A missing section
// yields an empty table.
func readTable(page *rod.Page, selector string) (rawTable, error) {
	has, el, err := page.Has(selector)
	if err != nil {
		return rawTable{}, fmt.Errorf("query %s: %w", selector, err)
	}
	if !has {
		return rawTable{}, nil
	}
	res, err := el.Eval(tableJS)
	if err != nil {
		return rawTable{}, fmt.Errorf("read %s: %w", selector, err)
	}
	var raw rawTable
	if err := res.Value.Unmarshal(&raw); err != nil {
		return rawTable{}, fmt.Errorf("decode %s: %w", selector, err)
	}
	return raw, nil
}

func readRatios(page *rod.Page, selector string) ([][]string, error) {
	has, el, err := page.Has(selector)
	if err != nil || !has {
		return nil, err
	}
	res, err := el.Eval(ratiosJS)
	if err != nil {
		return nil, fmt.Errorf("read ratios: %w", err)
	}
	var pairs [][]string
	if err := res.Value.Unmarshal(&pairs); err != nil {
		return nil, fmt.Errorf("decode ratios: %w", err)
	}
	return pairs, nil
}

func readText(page *rod.Page, selector string) string {
	has, el, err := page.Has(selector)
	if err != nil || !has {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

func bodyText(page *rod.Page) (string, error) {
	res, err := page.Eval(bodyTextJS)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}
