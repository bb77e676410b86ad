package postgres_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/config"
	"story-loop-api/internal/infrastructure/persistence/postgres"
)

var _ = Describe("DSN", func() {
	It("should escape credentials and default sslmode", func() {
		dsn := postgres.DSN(&config.PostgresConfig{
			Host:     "db",
			Port:     5432,
			User:     "story",
			Password: "p@ss/word",
			Database: "loop",
		})
		Expect(dsn).To(Equal("postgres://story:p%40ss%2Fword@db:5432/loop?sslmode=disable"))
	})

	It("should keep an explicit sslmode", func() {
		dsn := postgres.DSN(&config.PostgresConfig{Host: "db", Port: 5432, User: "u", Database: "d", SSLMode: "require"})
		Expect(dsn).To(HaveSuffix("?sslmode=require"))
	})
})
