package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core/portal"
)

type facultyApi struct {
	baseApi
}

func registerFacultyAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseApi) {
	api := facultyApi{baseApi: base}

	fg := g.Group("/faculty", jwt, roleMiddleware(portal.RoleFaculty))

	fg.GET("/profile", api.profile)
	fg.POST("/profile", api.updateProfile)
	fg.POST("/password", api.changePassword)

	fg.GET("/requests", api.requests)
	fg.POST("/requests/company", api.requestCompany)
	fg.POST("/requests/site", api.requestSite)

	fg.GET("/students", api.students)
	sg := fg.Group("/students/:id", studentAccessMiddleware(api.store))
	sg.GET("", api.studentRecord)
	sg.PUT("/marks", api.setMarks)
	sg.PUT("/reports/:reportId/score", api.scoreReport)
	sg.PUT("/reports/:reportId/approve", api.approveReport)
	sg.PUT("/assignments/:assignmentId/mark", api.markAssignment)
	sg.GET("/assignments/:assignmentId/content", api.assignmentContent)
	sg.POST("/agreement/sign", api.signAgreement)
	sg.POST("/evaluations", api.submitEvaluation)
}

func (api *facultyApi) facultyID(ctx echo.Context) (string, error) {
	p, err := api.principal(ctx)
	return p.FacultyID, err
}

func (api *facultyApi) profile(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	f, err := api.store.FacultySupervisor(id)
	if err != nil {
		return errors.Wrap(err, "finding faculty supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile loaded", "profile": f.Sanitized()})
}

func (api *facultyApi) updateProfile(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	var data portal.FacultyChanges
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FacultyChanges")
	}
	f, err := api.store.UpdateFacultySupervisor(id, data)
	if err != nil {
		return errors.Wrap(err, "updating faculty supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "profile": f.Sanitized()})
}

func (api *facultyApi) changePassword(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	return api.baseApi.changePassword(ctx, func(oldPwd, newPwd string) error {
		return api.store.ChangeFacultyPassword(id, oldPwd, newPwd)
	})
}

// Requests to the internship office

func (api *facultyApi) requests(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"requests": api.store.RequestsByFaculty(id)})
}

func (api *facultyApi) requestCompany(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	var data portal.CompanyRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompanyRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	req, err := api.store.RequestAddCompany(id, data.Name, data.Address)
	if err != nil {
		return errors.Wrap(err, "requesting company")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Company request submitted", "request": req})
}

func (api *facultyApi) requestSite(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	var data portal.SiteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SiteRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	req, err := api.store.RequestAddSiteSupervisor(id, data.Name, data.Email, data.CompanyID, data.CompanyName)
	if err != nil {
		return errors.Wrap(err, "requesting site supervisor")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Site supervisor request submitted", "request": req})
}

// Supervised students

func (api *facultyApi) students(ctx echo.Context) error {
	id, err := api.facultyID(ctx)
	if err != nil {
		return err
	}
	return supervisedStudents(ctx, api.store, portal.StudentFilter{FacultyID: id})
}

// supervisedStudents answers a dashboard listing: the filtered page and the counts of all supervised students.
func supervisedStudents(ctx echo.Context, store *portal.Store, scope portal.StudentFilter) error {
	filter := scope
	if err := ctx.Bind(&filter); err != nil {
		filter = scope
	}
	filter.FacultyID, filter.SiteID = scope.FacultyID, scope.SiteID

	all := store.Students()
	counts := portal.CountStudents(portal.FilterStudents(all, scope))
	students := sanitizeStudents(portal.FilterStudents(all, filter))
	return ctx.JSON(http.StatusOK, echo.Map{
		"students": listPage(ctx, students, studentOrderKeys),
		"counts":   counts,
	})
}

func (api *facultyApi) setMarks(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.MarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err = api.store.SetFacultyMarks(st.ID, portal.ClampMark(data.Mark)); err != nil {
		return errors.Wrap(err, "setting faculty marks")
	}
	return ctx.JSON(http.StatusOK, success("Marks saved"))
}

func (api *facultyApi) scoreReport(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data ScoreRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}
	if err = api.store.SetReportScore(st.ID, ctx.Param("reportId"), portal.ClampMark(data.Score)); err != nil {
		return errors.Wrap(err, "scoring report")
	}
	return ctx.JSON(http.StatusOK, success("Score saved"))
}

func (api *facultyApi) approveReport(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data ApproveReportRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveReportRequest")
	}
	if err = api.store.SetReportApproved(st.ID, ctx.Param("reportId"), data.Approved); err != nil {
		return errors.Wrap(err, "approving report")
	}
	return ctx.JSON(http.StatusOK, success("Report updated"))
}

func (api *facultyApi) markAssignment(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.MarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err = api.store.SetAssignmentFacultyMark(st.ID, ctx.Param("assignmentId"), portal.ClampMark(data.Mark)); err != nil {
		return errors.Wrap(err, "marking assignment")
	}
	return ctx.JSON(http.StatusOK, success("Mark saved"))
}

func (api *facultyApi) signAgreement(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	p, err := api.principal(ctx)
	if err != nil {
		return err
	}
	a, err := api.store.SignAgreementByFaculty(st.ID, p.Name)
	if err != nil {
		return errors.Wrap(err, "signing agreement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Agreement signed", "agreement": a})
}

func (api *facultyApi) submitEvaluation(ctx echo.Context) error {
	return api.baseApi.submitEvaluation(ctx, portal.RoleFaculty)
}
