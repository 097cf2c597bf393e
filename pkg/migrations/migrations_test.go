package migrations_test

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/speakwell/analysis-pipeline/internal/config"
	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/pkg/migrations"
	"gorm.io/gorm"
)

var _ = Describe("migrations", Ordered, func() {
	Context("folder checks", func() {
		var gormdb *gorm.DB

		BeforeAll(func() {
			db, err := store.InitDB(config.NewDefault())
			Expect(err).To(BeNil())
			gormdb = db
		})

		It("fails when the migration folder does not exist", func() {
			err := migrations.MigrateStore(context.TODO(), gormdb, "some folder", nil)
			Expect(err).NotTo(BeNil())
		})

		It("fails when the migration folder is a file", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			err = migrations.MigrateStore(context.TODO(), gormdb, path.Join(currentFolder, "migrations.go"), nil)
			Expect(err).To(MatchError(ContainSubstring("is not a folder")))
		})
	})

	// Runs against the database described by DB_* when ANALYZER_TEST_POSTGRES is set.
	Context("postgres", Ordered, func() {
		var (
			gormdb *gorm.DB
			pool   *pgxpool.Pool
		)

		BeforeAll(func() {
			if os.Getenv("ANALYZER_TEST_POSTGRES") == "" {
				Skip("ANALYZER_TEST_POSTGRES is not set")
			}
			cfg, err := config.New()
			Expect(err).To(BeNil())
			gormdb, err = store.InitDB(cfg)
			Expect(err).To(BeNil())
			pool, err = pgxpool.New(context.TODO(), store.PostgresDSN(cfg))
			Expect(err).To(BeNil())
		})

		AfterAll(func() {
			if pool != nil {
				pool.Close()
			}
		})

		It("creates the analysis and queue tables", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			err = migrations.MigrateStore(context.TODO(), gormdb, path.Join(currentFolder, "sql"), pool)
			Expect(err).To(BeNil())

			tableExists := func(name string) bool {
				exists := false
				tx := gormdb.Raw(fmt.Sprintf("SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' and tablename = '%s');", name)).Scan(&exists)
				Expect(tx.Error).To(BeNil())
				return exists
			}

			for _, table := range []string{"questions", "recordings", "analysis_tasks", "river_job"} {
				Expect(tableExists(table)).To(BeTrue())
			}
		})

		AfterEach(func() {
			gormdb.Exec("DROP TABLE IF EXISTS analysis_tasks;")
			gormdb.Exec("DROP TABLE IF EXISTS recordings;")
			gormdb.Exec("DROP TABLE IF EXISTS questions;")
			gormdb.Exec("DROP TABLE IF EXISTS goose_db_version;")
		})
	})
})
