// postgres.go implements the dataset store on an existing PostgreSQL
// server via pgx.
//
// Design decisions:
//   - Uses pgxpool for connection pooling (safe for concurrent access).
//   - SSH tunnel integration is handled transparently: if SSH is enabled,
//     we first establish the tunnel, then connect pgx to the local endpoint.
//   - Dataset tables live in the public schema; DropAllTables only touches
//     that schema.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/ssh"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres wraps a pgx connection pool and optional SSH tunnel.
type Postgres struct {
	pool   *pgxpool.Pool
	tunnel *ssh.Tunnel
}

var _ Executor = (*Postgres)(nil)

// ConnectPostgres establishes a PostgreSQL connection, optionally through
// an SSH tunnel.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	p := &Postgres{}

	if cfg.SSH.Enabled {
		tunnel, err := ssh.NewTunnel(cfg.SSH, cfg.Host, cfg.Port)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel: %w", err)
		}
		localAddr, err := tunnel.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel start: %w", err)
		}
		p.tunnel = tunnel

		// Override connection target with local tunnel endpoint
		cfg.Host = localAddr.Host
		cfg.Port = localAddr.Port
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgx connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}

	p.pool = pool
	return p, nil
}

func (p *Postgres) Name() string { return "PostgreSQL" }

// Execute runs a single SQL statement and returns its results.
func (p *Postgres) Execute(ctx context.Context, sqlText string) (*Result, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("empty query")
	}

	rows, err := p.pool.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &Result{}
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(values))
		for i, v := range values {
			row[result.Columns[i]] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Status = fmt.Sprintf("(%d row%s)", result.RowCount, plural(result.RowCount))
	return result, nil
}

// DropAllTables removes every table in the public schema.
func (p *Postgres) DropAllTables(ctx context.Context) error {
	rows, err := p.pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range tables {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE`, name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// Close shuts down the pool and SSH tunnel.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
	if p.tunnel != nil {
		p.tunnel.Stop()
	}
}
