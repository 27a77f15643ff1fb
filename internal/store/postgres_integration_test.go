// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Nayruden/otlib/internal/store"
)

// setupPostgresContainer starts a PostgreSQL container, migrates the schema,
// and returns a connected store.
func setupPostgresContainer() (*store.Postgres, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("otlib_test"),
		postgres.WithUsername("otlib"),
		postgres.WithPassword("otlib"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	pg, err := store.NewPostgres(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pg.Close()
		_ = container.Terminate(ctx)
	}

	return pg, cleanup, nil
}

var _ = Describe("Postgres", func() {
	var pg *store.Postgres
	var cleanup func()

	BeforeEach(func() {
		var err error
		pg, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("Insert and Fetch", func() {
		It("round-trips a row with fields and sublists", func() {
			ctx := context.Background()
			row := store.Row{
				Key:    "bob",
				Fields: map[string]string{"name": "bob", "level": "3"},
				Lists: map[string]map[string]string{
					"allow": {"slap": "", "kick": ""},
					"deny":  {"ban": ""},
				},
			}

			Expect(pg.Insert(ctx, "users", row)).To(Succeed())

			got, err := pg.Fetch(ctx, "users", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(row))
		})

		It("rejects a duplicate key", func() {
			ctx := context.Background()
			row := store.Row{Key: "bob", Fields: map[string]string{}}

			Expect(pg.Insert(ctx, "users", row)).To(Succeed())

			err := pg.Insert(ctx, "users", row)
			Expect(err).To(HaveOccurred())
			Expect(store.IsDuplicateRow(err)).To(BeTrue())
		})

		It("keeps tables independent", func() {
			ctx := context.Background()
			row := store.Row{Key: "bob", Fields: map[string]string{}}

			Expect(pg.Insert(ctx, "users", row)).To(Succeed())
			Expect(pg.Insert(ctx, "groups", row)).To(Succeed())
		})

		It("returns ROW_NOT_FOUND for a missing key", func() {
			ctx := context.Background()
			_, err := pg.Fetch(ctx, "users", "ghost")
			Expect(err).To(HaveOccurred())
			Expect(store.IsRowNotFound(err)).To(BeTrue())
		})
	})

	Describe("Remove", func() {
		It("cascades to sublist items", func() {
			ctx := context.Background()
			row := store.Row{
				Key:    "bob",
				Fields: map[string]string{},
				Lists:  map[string]map[string]string{"allow": {"slap": ""}},
			}

			Expect(pg.Insert(ctx, "users", row)).To(Succeed())
			Expect(pg.Remove(ctx, "users", "bob")).To(Succeed())

			_, err := pg.Fetch(ctx, "users", "bob")
			Expect(store.IsRowNotFound(err)).To(BeTrue())

			// Reinsert must start with no leftover list items.
			fresh := store.Row{Key: "bob", Fields: map[string]string{}}
			Expect(pg.Insert(ctx, "users", fresh)).To(Succeed())

			got, err := pg.Fetch(ctx, "users", "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Lists).To(BeEmpty())
		})

		It("errors on a missing key", func() {
			ctx := context.Background()
			err := pg.Remove(ctx, "users", "ghost")
			Expect(err).To(HaveOccurred())
			Expect(store.IsRowNotFound(err)).To(BeTrue())
		})
	})

	Describe("GetAll", func() {
		It("returns every row in the table, keyed lists attached", func() {
			ctx := context.Background()
			alice := store.Row{Key: "alice", Fields: map[string]string{"level": "1"}}
			bob := store.Row{
				Key:    "bob",
				Fields: map[string]string{"level": "2"},
				Lists:  map[string]map[string]string{"allow": {"slap": ""}},
			}

			Expect(pg.Insert(ctx, "users", alice)).To(Succeed())
			Expect(pg.Insert(ctx, "users", bob)).To(Succeed())
			Expect(pg.Insert(ctx, "groups", store.Row{Key: "admin", Fields: map[string]string{}})).To(Succeed())

			rows, err := pg.GetAll(ctx, "users")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Key).To(Equal("alice"))
			Expect(rows[1].Key).To(Equal("bob"))
			Expect(rows[1].Lists["allow"]).To(HaveKey("slap"))
		})

		It("returns an empty result for an unknown table", func() {
			ctx := context.Background()
			rows, err := pg.GetAll(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})
})
