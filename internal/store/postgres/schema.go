package postgres

import (
	"context"
	"fmt"

	"chararchive/internal/query"
	"chararchive/internal/store"
)

// InspectSchema reports the columns of every source table and which of the
// columns the query builder relies on are missing. Tables are never created
// or altered here; ingestion owns the schema.
func (c *Client) InspectSchema(ctx context.Context) ([]store.TableReport, error) {
	reports := make([]store.TableReport, 0, len(query.Tables()))
	for _, info := range query.Tables() {
		columns, err := c.tableColumns(ctx, info.Table)
		if err != nil {
			return nil, err
		}
		report := store.TableReport{
			Source:  info.Source,
			Table:   info.Table,
			Exists:  len(columns) > 0,
			Columns: columns,
			Missing: []string{},
		}
		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col] = struct{}{}
		}
		for _, required := range info.Columns {
			if _, ok := present[required]; !ok {
				report.Missing = append(report.Missing, required)
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (c *Client) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.pool.Query(ctx, `
SELECT column_name
FROM information_schema.columns
WHERE table_name = $1
ORDER BY ordinal_position
`, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns of %s: %w", table, err)
	}
	return columns, nil
}
