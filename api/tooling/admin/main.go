// Command admin provides operational tasks that run against the database
// directly: schema migration, seeding, and bootstrap of tenants and their
// first administrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permcache"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permdb"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/rolebus/stores/roledb"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/tenantbus/stores/tenantdb"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/domain/userbus/stores/userdb"
	"github.com/getorbital/orbital/business/sdk/migrate"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"orbital"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN", nil)
	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer db.Close()

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: migrate, seed, create-tenant, create-admin")
		return nil
	}

	switch os.Args[1] {
	case "migrate":
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := migrate.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("migrations complete")
		return nil

	case "seed":
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := migrate.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Println("seed complete")
		return nil

	case "create-tenant":
		tenantBus := tenantbus.NewCore(log, tenantdb.NewStore(log, db))
		return runCreateTenant(ctx, tenantBus, os.Args[2:])

	case "create-admin":
		userBus := userbus.NewCore(log, userdb.NewStore(log, db))
		roleBus := rolebus.NewCore(log, roledb.NewStore(log, db))

		permStore, err := permcache.NewStore(log, permdb.NewStore(log, db))
		if err != nil {
			return fmt.Errorf("building perm store: %w", err)
		}
		permBus := permbus.NewCore(log, userBus, roleBus, permStore)

		return runCreateAdmin(ctx, userBus, roleBus, permBus, os.Args[2:])

	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runCreateTenant(ctx context.Context, tb *tenantbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	nameStr := cmd.String("name", "", "Tenant name (Required)")
	slugStr := cmd.String("slug", "", "Tenant slug (Required)")
	cmd.Parse(args)

	if *nameStr == "" || *slugStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	nm, err := name.Parse(*nameStr)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	sl, err := slug.Parse(*slugStr)
	if err != nil {
		return fmt.Errorf("invalid slug: %w", err)
	}

	t, err := tb.Create(ctx, tenancy.System(), tenantbus.NewTenant{
		Name: nm,
		Slug: sl,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Printf("\nSUCCESS: Tenant created!\nID: %s\nSlug: %s\n", t.ID, t.Slug)
	return nil
}

// runCreateAdmin creates a user in the specified tenant, an "admin" role in
// the same tenant holding every catalog permission, and links the two.
func runCreateAdmin(ctx context.Context, ub *userbus.Core, rb *rolebus.Core, pb *permbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	tenantIDStr := cmd.String("tenant-id", "", "Tenant UUID (Required)")
	usernameStr := cmd.String("username", "", "Username (Required)")
	emailStr := cmd.String("email", "", "Email (Required)")
	passStr := cmd.String("password", "", "Password (Required)")
	cmd.Parse(args)

	if *tenantIDStr == "" || *usernameStr == "" || *emailStr == "" || *passStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	tenantID, err := uuid.Parse(*tenantIDStr)
	if err != nil {
		return fmt.Errorf("invalid tenant uuid: %w", err)
	}

	un, err := username.Parse(*usernameStr)
	if err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	addr, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	pass, err := password.Parse(*passStr)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	scope := tenancy.System()

	usr, err := ub.Create(ctx, scope, userbus.NewUser{
		TenantID: tenantID,
		Username: un,
		Email:    *addr,
		FullName: name.MustParse("Administrator"),
		Password: pass,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	rl, err := rb.Create(ctx, scope, rolebus.NewRole{
		TenantID:    tenantID,
		Name:        name.MustParse("admin"),
		Description: "tenant administrator",
	})
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}

	perms, err := pb.QueryPermissions(ctx)
	if err != nil {
		return fmt.Errorf("query permissions: %w", err)
	}

	for _, p := range perms {
		if err := pb.AssignPermissionToRole(ctx, scope, rl.ID, p.ID); err != nil {
			return fmt.Errorf("grant %s: %w", p.Name, err)
		}
	}

	if err := pb.AssignRoleToUser(ctx, scope, usr.ID, rl.ID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	fmt.Printf("\nSUCCESS: Admin created!\nUser: %s\nRole: %s\nPermissions: %d\n", usr.ID, rl.ID, len(perms))
	return nil
}
