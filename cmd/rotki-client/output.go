package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/kelsos/rotki-client/internal/convert"
	"github.com/kelsos/rotki-client/internal/display"
	"github.com/kelsos/rotki-client/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "Nothing to show")
		return
	}
	fmt.Fprintln(w, renderTable(headers, rows))
}

// assetRows lists balances by descending value.
func assetRows(balances map[string]models.Balance, format func(decimal.Decimal) string) [][]string {
	assets := make([]string, 0, len(balances))
	for asset := range balances {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		vi, vj := balances[assets[i]].UsdValue, balances[assets[j]].UsdValue
		if !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return assets[i] < assets[j]
	})

	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		balance := balances[asset]
		rows = append(rows, []string{asset, display.Amount(balance.Amount, 8), format(balance.UsdValue)})
	}
	return rows
}

func sumValue(balances map[string]models.Balance) decimal.Decimal {
	total := decimal.Zero
	for _, balance := range balances {
		total = total.Add(balance.UsdValue)
	}
	return total
}

// parseAssignments turns key=value arguments into a change set. Values are
// read as JSON literals when possible.
func parseAssignments(args []string) (map[string]any, error) {
	changes := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		changes[key] = convert.ParseSettingValue(value)
	}
	return changes, nil
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
