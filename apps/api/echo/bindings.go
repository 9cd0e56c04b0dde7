package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "pageSize"
)

type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrderings(ctx.QueryParam(orderingParam))
}

type Pagination struct {
	Page     int
	PageSize int
}

// Bind reads ?page and ?pageSize; invalid values fall back to the first page of core.DefaultPageSize.
func (pg *Pagination) Bind(ctx echo.Context) {
	pg.Page, _ = strconv.Atoi(ctx.QueryParam(pageParam))
	pg.PageSize, _ = strconv.Atoi(ctx.QueryParam(pageSizeParam))
	if pg.PageSize < 0 {
		pg.PageSize = 0
	}
}

// listPage orders then paginates items per the query params.
func listPage[T any](ctx echo.Context, items []T, keys core.OrderKeys[T]) core.Page[T] {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	core.Order(items, ordering.Orderings, keys)

	pagination := new(Pagination)
	pagination.Bind(ctx)
	return core.NewPage(items, pagination.Page, pagination.PageSize)
}

const sortableTime = "2006-01-02T15:04:05.000000000"

var studentOrderKeys = core.OrderKeys[portal.Student]{
	"name":           func(st portal.Student) string { return st.Name },
	"email":          func(st portal.Student) string { return st.Email },
	"registrationNo": func(st portal.Student) string { return st.RegistrationNo },
	"createdAt":      func(st portal.Student) string { return st.CreatedAt.UTC().Format(sortableTime) },
}

func sanitizeStudents(students []portal.Student) []portal.Student {
	res := make([]portal.Student, len(students))
	for i, st := range students {
		res[i] = st.Sanitized()
	}
	return res
}

func sanitizeFaculty(list []portal.FacultySupervisor) []portal.FacultySupervisor {
	res := make([]portal.FacultySupervisor, len(list))
	for i, f := range list {
		res[i] = f.Sanitized()
	}
	return res
}

func sanitizeSites(list []portal.SiteSupervisor) []portal.SiteSupervisor {
	res := make([]portal.SiteSupervisor, len(list))
	for i, sup := range list {
		res[i] = sup.Sanitized()
	}
	return res
}
