package docintel

import (
	"fmt"
	"strings"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
)

// toTable converts the wire table into the domain representation
func toTable(t tableDTO) model.Table {
	table := model.Table{
		RowCount:    t.RowCount,
		ColumnCount: t.ColumnCount,
	}
	for _, c := range t.Cells {
		table.Cells = append(table.Cells, model.TableCell{
			RowIndex:    c.RowIndex,
			ColumnIndex: c.ColumnIndex,
			Content:     c.Content,
			Confidence:  c.Confidence,
		})
	}
	return table
}

// densify expands the sparse cell list into a dense row/column grid.
// Positions absent from the cell list are empty strings.
func densify(table model.Table) [][]string {
	rows := table.RowCount
	cols := table.ColumnCount
	for _, c := range table.Cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			continue
		}
		if c.RowIndex+1 > rows {
			rows = c.RowIndex + 1
		}
		if c.ColumnIndex+1 > cols {
			cols = c.ColumnIndex + 1
		}
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range table.Cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			continue
		}
		grid[c.RowIndex][c.ColumnIndex] = c.Content
	}
	return grid
}

// renderTable renders one extracted table as a markdown-style table with
// a numbered heading, the first row treated as header.
func renderTable(index int, table model.Table) string {
	grid := densify(table)
	if grid == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Table %d\n", index+1)
	fmt.Fprintf(&sb, "Rows: %d, Columns: %d\n\n", len(grid), len(grid[0]))

	for rowIdx, row := range grid {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if rowIdx == 0 {
			separators := make([]string, len(row))
			for i := range separators {
				separators[i] = "---"
			}
			sb.WriteString("| " + strings.Join(separators, " | ") + " |\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
