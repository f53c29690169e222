// Package dbtest provides support for business layer tests that need a real
// database. Tests run against an in-memory sqlite database with the full
// schema and seed applied, so the tenant filters and constraints behave, not
// a mock that matches strings.
package dbtest

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permcache"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permdb"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/rolebus/stores/roledb"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/domain/sectionbus/stores/sectiondb"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/tenantbus/stores/tenantcache"
	"github.com/getorbital/orbital/business/domain/tenantbus/stores/tenantdb"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/domain/userbus/stores/usercache"
	"github.com/getorbital/orbital/business/domain/userbus/stores/userdb"
	"github.com/getorbital/orbital/business/sdk/migrate"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// BusDomain represents all the business domain apis needed for testing.
type BusDomain struct {
	Tenant  *tenantbus.Core
	User    *userbus.Core
	Role    *rolebus.Core
	Perm    *permbus.Core
	Section *sectionbus.Core
	UOW     *unitofwork.Factory
}

// Database owns state for running and shutting down tests.
type Database struct {
	DB        *sqlx.DB
	Log       *logger.Logger
	BusDomain BusDomain
}

// New creates a migrated and seeded in-memory database with the full set of
// business apis wired against it. The database is torn down with the test.
func New(t *testing.T, testName string) *Database {
	t.Helper()

	// A named shared-cache database so every connection in the pool sees
	// the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", testName)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("opening database: %s", err)
	}
	db.SetMaxOpenConns(1)

	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, testName, func(context.Context) string { return "" })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := migrate.Migrate(ctx, db); err != nil {
		t.Fatalf("migrating database: %s", err)
	}

	if err := migrate.Seed(ctx, db); err != nil {
		t.Fatalf("seeding database: %s", err)
	}

	tenantBus := tenantbus.NewCore(log, tenantcache.NewStore(log, tenantdb.NewStore(log, db), time.Minute))
	userBus := userbus.NewCore(log, usercache.NewStore(log, userdb.NewStore(log, db), time.Minute))
	roleBus := rolebus.NewCore(log, roledb.NewStore(log, db))

	permStore, err := permcache.NewStore(log, permdb.NewStore(log, db))
	if err != nil {
		t.Fatalf("building perm store: %s", err)
	}
	permBus := permbus.NewCore(log, userBus, roleBus, permStore)

	sectionBus := sectionbus.NewCore(log, sectiondb.NewStore(log, db))

	uow := unitofwork.NewFactory(unitofwork.Config{
		Log:        log,
		DB:         sqldb.NewBeginner(db),
		TenantBus:  tenantBus,
		UserBus:    userBus,
		RoleBus:    roleBus,
		PermBus:    permBus,
		SectionBus: sectionBus,
	})

	t.Cleanup(func() {
		if t.Failed() {
			t.Log(buf.String())
		}
		db.Close()
	})

	return &Database{
		DB:  db,
		Log: log,
		BusDomain: BusDomain{
			Tenant:  tenantBus,
			User:    userBus,
			Role:    roleBus,
			Perm:    permBus,
			Section: sectionBus,
			UOW:     uow,
		},
	}
}
