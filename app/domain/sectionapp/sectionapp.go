// Package sectionapp maintains the app layer api for the section domain.
package sectionapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/app/sdk/query"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/sdk/order"
	"github.com/getorbital/orbital/business/sdk/page"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

type app struct {
	sectionBus *sectionbus.Core
}

func newApp(sectionBus *sectionbus.Core) *app {
	return &app{
		sectionBus: sectionBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewSection
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	ns, err := toBusNewSection(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	s, err := uow.Sections().Create(ctx, uow.Scope(), ns)
	if err != nil {
		switch {
		case errors.Is(err, sectionbus.ErrUniqueName):
			return errs.New(errs.Aborted, sectionbus.ErrUniqueName)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "create: section[%s]: %s", app.Name, err)
		}
	}

	return toAppSection(s)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateSection
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	us, err := toBusUpdateSection(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	s, err := a.lookup(ctx, uow.Scope(), r, uow.Sections())
	if err != nil {
		return errs.NewError(err)
	}

	updS, err := uow.Sections().Update(ctx, uow.Scope(), s, us)
	if err != nil {
		switch {
		case errors.Is(err, sectionbus.ErrUniqueName):
			return errs.New(errs.Aborted, sectionbus.ErrUniqueName)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "update: sectionID[%s]: %s", s.ID, err)
		}
	}

	return toAppSection(updS)
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	uow, err := mid.GetUOW(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "uow missing in context: %s", err)
	}

	s, err := a.lookup(ctx, uow.Scope(), r, uow.Sections())
	if err != nil {
		return errs.NewError(err)
	}

	if err := uow.Sections().Delete(ctx, uow.Scope(), s); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: sectionID[%s]: %s", s.ID, err)
	}

	return web.NewNoResponse()
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	values := r.URL.Query()

	pg, err := page.Parse(values.Get("page"), values.Get("rows"))
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	orderBy, err := order.Parse(orderByFields, values.Get("orderBy"), defaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("orderBy", err)
	}

	sections, err := a.sectionBus.Query(ctx, scope, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	total, err := a.sectionBus.Count(ctx, scope)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "count: %s", err)
	}

	return query.NewResult(toAppSections(sections), total, pg)
}

func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	s, err := a.lookup(ctx, scope, r, a.sectionBus)
	if err != nil {
		return errs.NewError(err)
	}

	return toAppSection(s)
}

func (a *app) lookup(ctx context.Context, scope tenancy.Scope, r *http.Request, sectionBus *sectionbus.Core) (sectionbus.Section, error) {
	id := web.Param(r, "section_id")

	sectionID, err := uuid.Parse(id)
	if err != nil {
		return sectionbus.Section{}, errs.New(errs.InvalidArgument, errors.New("invalid section id"))
	}

	s, err := sectionBus.QueryByID(ctx, scope, sectionID)
	if err != nil {
		switch {
		case errors.Is(err, sectionbus.ErrNotFound):
			return sectionbus.Section{}, errs.New(errs.NotFound, err)
		default:
			return sectionbus.Section{}, errs.Errorf(errs.InternalOnlyLog, "querybyid: sectionID[%s]: %s", sectionID, err)
		}
	}

	return s, nil
}
