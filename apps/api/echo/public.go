package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type publicApi struct {
	baseApi
}

func registerPublicAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseApi) {
	api := publicApi{baseApi: base}

	g.GET("/announcements", api.announcements)

	authed := roleMiddleware()
	g.GET("/dropdown/companies", api.dropdownCompanies, jwt, authed)

	sg := g.Group("/students/:id", jwt, authed, studentAccessMiddleware(api.store))
	sg.GET("", api.studentRecord)
	sg.GET("/assignments/:assignmentId/content", api.assignmentContent)
}

type CompanyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (api *publicApi) announcements(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"announcements": api.store.Announcements()})
}

func (api *publicApi) dropdownCompanies(ctx echo.Context) error {
	q := strings.ToLower(strings.TrimSpace(ctx.QueryParam("search")))
	opts := make([]CompanyOption, 0)
	for _, c := range api.store.Companies() {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			opts = append(opts, CompanyOption{ID: c.ID, Name: c.Name})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"companies": opts})
}
