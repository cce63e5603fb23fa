// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xataio/qbench/internal/connstr"
)

// Postgres version used when POSTGRES_VERSION is not set.
const defaultPostgresVersion = "15.3"

// adminURL is the connection string of the maintenance database of the
// shared container, empty when no container could be started.
var adminURL string

// SharedTestMain runs the tests of a package against one postgres container.
// Without a container runtime the tests still run and PostgresDatabase skips.
func SharedTestMain(m *testing.M) {
	ctx := context.Background()

	version := os.Getenv("POSTGRES_VERSION")
	if version == "" {
		version = defaultPostgresVersion
	}

	ctr, err := startPostgres(ctx, version)
	if err != nil {
		log.Printf("postgres container unavailable, container tests will be skipped: %v", err)
		os.Exit(m.Run())
	}

	adminURL, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("reading container connection string: %v", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("terminating postgres container: %v", err)
	}
	os.Exit(code)
}

// startPostgres turns the panic testcontainers raises when no docker host
// can be found into an error.
func startPostgres(ctx context.Context, version string) (ctr *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting container: %v", r)
		}
	}()

	return postgres.Run(ctx, "postgres:"+version,
		postgres.WithDatabase("qbench"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
}

// PostgresDatabase creates an empty database in the shared container for the
// calling test. It returns an administrative connection to that database and
// the descriptor a session uses to connect to it. Both are released when the
// test ends.
func PostgresDatabase(t testing.TB) (*sql.DB, connstr.Descriptor) {
	t.Helper()

	if adminURL == "" {
		t.Skip("postgres test container is not available")
	}

	ctx := context.Background()
	admin, err := sql.Open("postgres", adminURL)
	if err != nil {
		t.Fatal(err)
	}
	defer admin.Close()

	name := "qbench_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(adminURL)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + name

	desc, err := connstr.Parse(u.String())
	if err != nil {
		t.Fatal(err)
	}

	conn, err := sql.Open("postgres", desc.DSN)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("closing test database connection: %v", err)
		}
	})

	return conn, desc
}
