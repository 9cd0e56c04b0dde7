package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

type siteApi struct {
	baseApi
}

func registerSiteAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseApi) {
	api := siteApi{baseApi: base}

	sg := g.Group("/site", jwt, roleMiddleware(portal.SiteRoles...))

	sg.GET("/profile", api.profile)
	sg.PUT("/profile", api.updateProfile)
	sg.POST("/password", api.changePassword)

	sg.GET("/students", api.students)
	stg := sg.Group("/students/:id", studentAccessMiddleware(api.store))
	stg.GET("", api.studentRecord)
	stg.PUT("/marks", api.setMarks)
	stg.POST("/reports", api.submitReport)
	stg.PUT("/scores", api.saveScores)
	stg.POST("/evaluations", api.submitEvaluation)
}

type BatchScoresRequest struct {
	Mid   null.Float64 `json:"mid"`
	Final null.Float64 `json:"final"`
}

// SiteProfileChanges are the fields site supervisors edit themselves.
type SiteProfileChanges struct {
	Name         null.String `json:"name"`
	AvatarBase64 null.String `json:"avatarBase64"`
	Bio          null.String `json:"bio"`
}

func (api *siteApi) siteID(ctx echo.Context) (string, error) {
	p, err := api.principal(ctx)
	return p.SiteID, err
}

func (api *siteApi) profile(ctx echo.Context) error {
	id, err := api.siteID(ctx)
	if err != nil {
		return err
	}
	sup, err := api.store.SiteSupervisor(id)
	if err != nil {
		return errors.Wrap(err, "finding site supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"profile": sup.Sanitized()})
}

func (api *siteApi) updateProfile(ctx echo.Context) error {
	id, err := api.siteID(ctx)
	if err != nil {
		return err
	}
	var data SiteProfileChanges
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SiteProfileChanges")
	}
	sup, err := api.store.UpdateSiteSupervisor(id, portal.SiteChanges{
		Name:         data.Name,
		AvatarBase64: data.AvatarBase64,
		Bio:          data.Bio,
	})
	if err != nil {
		return errors.Wrap(err, "updating site supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "profile": sup.Sanitized()})
}

func (api *siteApi) changePassword(ctx echo.Context) error {
	id, err := api.siteID(ctx)
	if err != nil {
		return err
	}
	return api.baseApi.changePassword(ctx, func(oldPwd, newPwd string) error {
		return api.store.ChangeSitePassword(id, oldPwd, newPwd)
	})
}

func (api *siteApi) students(ctx echo.Context) error {
	id, err := api.siteID(ctx)
	if err != nil {
		return err
	}
	return supervisedStudents(ctx, api.store, portal.StudentFilter{SiteID: id})
}

func (api *siteApi) setMarks(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.MarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err = api.store.SetSiteMarks(st.ID, portal.ClampMark(data.Mark)); err != nil {
		return errors.Wrap(err, "setting site marks")
	}
	return ctx.JSON(http.StatusOK, success("Marks saved"))
}

// submitReport files the mid or site final report of a supervised student.
func (api *siteApi) submitReport(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.NewReport
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if data.Type != portal.ReportMid && data.Type != portal.ReportSiteFinal {
		return core.NewFieldError("type", "Site supervisors file mid and site final reports only")
	}
	r, err := api.store.SubmitReport(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting report")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Report submitted", "report": r})
}

// saveScores scores the latest mid and site final reports at once.
func (api *siteApi) saveScores(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data BatchScoresRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchScoresRequest")
	}
	if err = api.store.SaveBatchScores(st.ID, data.Mid, data.Final); err != nil {
		return errors.Wrap(err, "saving scores")
	}
	reports := api.store.Reports(st.ID)
	mid, _ := portal.LatestReportOfType(reports, portal.ReportMid)
	final, _ := portal.LatestReportOfType(reports, portal.ReportSiteFinal)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Scores saved", "mid": mid.Score, "final": final.Score})
}

func (api *siteApi) submitEvaluation(ctx echo.Context) error {
	return api.baseApi.submitEvaluation(ctx, portal.RoleSite)
}
