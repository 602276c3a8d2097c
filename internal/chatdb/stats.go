package chatdb

import (
	"context"
	"fmt"
)

// ConversationServiceBreakdown counts conversations by service name.
// Total covers every conversation with a service name; Breakdown reports
// only Options.KnownServices, each present even at zero.
func (d *DB) ConversationServiceBreakdown(ctx context.Context) (ServiceBreakdown, error) {
	out := ServiceBreakdown{
		Breakdown: make(map[string]int, len(d.opts.KnownServices)),
		Observed:  map[string]int{},
	}
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT service_name, COUNT(*) FROM chat
			WHERE service_name IS NOT NULL
			GROUP BY service_name`)
		if err != nil {
			return fmt.Errorf("query services: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				name  string
				count int
			)
			if err := rows.Scan(&name, &count); err != nil {
				return fmt.Errorf("scan service count: %w", err)
			}
			out.Observed[name] += count
			out.Total += count
		}
		return rows.Err()
	})
	if err != nil {
		return ServiceBreakdown{}, fmt.Errorf("service breakdown: %w", err)
	}
	for _, name := range d.opts.KnownServices {
		out.Breakdown[name] = out.Observed[name]
	}
	return out, nil
}

// EntityCount returns the number of rows backing kind.
func (d *DB) EntityCount(ctx context.Context, kind EntityKind) (int64, error) {
	table, ok := kindTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	var n int64
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		return q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}
