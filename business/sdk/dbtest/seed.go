package dbtest

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/google/uuid"
)

func randomTag() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewTenants creates n enabled tenants through the system scope.
func NewTenants(ctx context.Context, busDomain BusDomain, n int) ([]tenantbus.Tenant, error) {
	tenants := make([]tenantbus.Tenant, n)

	for i := range n {
		tag := randomTag()

		nt := tenantbus.NewTenant{
			Name: name.MustParse(fmt.Sprintf("Tenant %s", tag)),
			Slug: slug.MustParse(fmt.Sprintf("tenant-%s", tag)),
		}

		t, err := busDomain.Tenant.Create(ctx, tenancy.System(), nt)
		if err != nil {
			return nil, fmt.Errorf("seeding tenant %d: %w", i, err)
		}

		tenants[i] = t
	}

	return tenants, nil
}

// NewUsers creates n users under the specified scope.
func NewUsers(ctx context.Context, busDomain BusDomain, scope tenancy.Scope, n int) ([]userbus.User, error) {
	users := make([]userbus.User, n)

	for i := range n {
		tag := randomTag()

		nu := userbus.NewUser{
			Username: username.MustParse(fmt.Sprintf("user_%s", tag)),
			Email:    mail.Address{Address: fmt.Sprintf("user_%s@example.com", tag)},
			FullName: name.MustParse(fmt.Sprintf("User %s", tag)),
			Password: password.MustParse("gophers123"),
		}

		usr, err := busDomain.User.Create(ctx, scope, nu)
		if err != nil {
			return nil, fmt.Errorf("seeding user %d: %w", i, err)
		}

		users[i] = usr
	}

	return users, nil
}

// NewRoles creates n roles under the specified scope.
func NewRoles(ctx context.Context, busDomain BusDomain, scope tenancy.Scope, n int) ([]rolebus.Role, error) {
	roles := make([]rolebus.Role, n)

	for i := range n {
		tag := randomTag()

		nr := rolebus.NewRole{
			Name:        name.MustParse(fmt.Sprintf("Role %s", tag)),
			Description: "seeded role",
		}

		rl, err := busDomain.Role.Create(ctx, scope, nr)
		if err != nil {
			return nil, fmt.Errorf("seeding role %d: %w", i, err)
		}

		roles[i] = rl
	}

	return roles, nil
}

// NewSections creates n sections under the specified scope.
func NewSections(ctx context.Context, busDomain BusDomain, scope tenancy.Scope, n int) ([]sectionbus.Section, error) {
	sections := make([]sectionbus.Section, n)

	for i := range n {
		tag := randomTag()

		ns := sectionbus.NewSection{
			Name:        name.MustParse(fmt.Sprintf("Section %s", tag)),
			Description: "seeded section",
		}

		sec, err := busDomain.Section.Create(ctx, scope, ns)
		if err != nil {
			return nil, fmt.Errorf("seeding section %d: %w", i, err)
		}

		sections[i] = sec
	}

	return sections, nil
}
