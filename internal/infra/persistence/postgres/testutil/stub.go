// Package testutil provides a stub database/sql driver for postgres store tests.
// It models the single state table the store uses: one payload per bucket,
// written by the ON CONFLICT upsert, removed by bucket and read back in full.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
)

// StateRow is one bucket of the state table.
type StateRow struct {
	Bucket  string
	Payload []byte
}

// StubConn records executed statements and keeps the state table in memory.
type StubConn struct {
	Execs      []string
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	RowsErr    error

	state map[string][]byte
}

var driverSeq atomic.Int64

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{state: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Seed stores payload under bucket without going through a statement.
func (c *StubConn) Seed(bucket string, payload []byte) {
	c.state[bucket] = append([]byte(nil), payload...)
}

// Rows returns the state table ordered by bucket.
func (c *StubConn) Rows() []StateRow {
	buckets := make([]string, 0, len(c.state))
	for b := range c.state {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)
	out := make([]StateRow, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, StateRow{Bucket: b, Payload: c.state[b]})
	}
	return out
}

// Prepare implements driver.Conn; every statement goes through the context methods.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailExec {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext for the table DDL, the bucket
// upsert and the bucket delete.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	stmt := strings.ToUpper(strings.Join(strings.Fields(query), " "))
	switch {
	case strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS STATE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(stmt, "INSERT INTO STATE(BUCKET,PAYLOAD)") && strings.Contains(stmt, "ON CONFLICT(BUCKET)"):
		if len(args) != 2 {
			return nil, fmt.Errorf("upsert wants bucket and payload, got %d args", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be text, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload must be bytes, got %T", args[1].Value)
		}
		c.Seed(bucket, payload)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(stmt, "DELETE FROM STATE WHERE BUCKET=$1"):
		if len(args) != 1 {
			return nil, fmt.Errorf("delete wants a bucket, got %d args", len(args))
		}
		bucket, _ := args[0].Value.(string)
		if _, ok := c.state[bucket]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(c.state, bucket)
		return driver.RowsAffected(1), nil
	default:
		return nil, fmt.Errorf("stub: unsupported statement %q", query)
	}
}

// QueryContext implements driver.QueryerContext for the full state scan.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if strings.ToUpper(strings.Join(strings.Fields(query), " ")) != "SELECT BUCKET, PAYLOAD FROM STATE" {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	return &stubRows{rows: c.Rows(), err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (stubTx) Rollback() error { return nil }

type stubRows struct {
	rows []StateRow
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	dest[0] = r.rows[r.idx].Bucket
	dest[1] = r.rows[r.idx].Payload
	r.idx++
	return nil
}
