package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

type studentApi struct {
	baseApi
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseApi) {
	api := studentApi{baseApi: base}

	sg := g.Group("/student", jwt, roleMiddleware(portal.RoleStudent), selfStudentMiddleware(api.store))

	sg.GET("/me", api.me)
	sg.PUT("/me", api.updateMe)
	sg.POST("/password", api.changePassword)

	sg.POST("/create-internship", api.createInternship)
	sg.GET("/appex-a", api.appExA)
	sg.POST("/appex-a", api.submitAppExA)
	sg.PUT("/appex-a", api.updateAppExA)
	sg.GET("/request-to-add-company", api.companyRequests)
	sg.POST("/request-to-add-company", api.requestCompany)

	sg.GET("/logs", api.logs)
	sg.POST("/logs", api.submitLog)
	sg.GET("/reports", api.reports)
	sg.POST("/reports", api.submitReport)
	sg.GET("/agreements", api.agreements)
	sg.POST("/agreements", api.submitAgreement)
	sg.GET("/design-statements", api.designStatements)
	sg.POST("/design-statements", api.submitDesignStatement)
	sg.GET("/assignments", api.assignments)
	sg.POST("/assignments", api.submitAssignment)
	sg.GET("/assignments/:assignmentId/content", api.assignmentContent)
	sg.GET("/freelance", api.freelance)
	sg.POST("/freelance", api.submitFreelance)
	sg.GET("/evaluations", api.evaluations)
	sg.GET("/complaints", api.complaints)
	sg.POST("/complaints", api.submitComplaint)
}

// selfStudentMiddleware loads the record of the signed-in student into the context.
func selfStudentMiddleware(store *portal.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			st, err := store.Student(p.StudentID)
			if err != nil {
				if portal.IsNotFound(err) {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding student")
			}
			ctx.Set(contextStudentKey, st)
			return next(ctx)
		}
	}
}

// ProfileChanges are the fields students edit themselves.
type ProfileChanges struct {
	Name         null.String `json:"name"`
	AvatarBase64 null.String `json:"avatarBase64"`
	Bio          null.String `json:"bio"`
}

func (api *studentApi) me(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"student":    st.Sanitized(),
		"compliance": api.store.Compliance(st.ID, portal.NowFunc()),
	})
}

func (api *studentApi) updateMe(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data ProfileChanges
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileChanges")
	}
	st, err = api.store.UpdateStudent(st.ID, portal.StudentChanges{
		Name:         data.Name,
		AvatarBase64: data.AvatarBase64,
		Bio:          data.Bio,
	})
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "student": st.Sanitized()})
}

func (api *studentApi) changePassword(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return api.baseApi.changePassword(ctx, func(oldPwd, newPwd string) error {
		return api.store.ChangeStudentPassword(st.ID, oldPwd, newPwd)
	})
}

// Internship application

func (api *studentApi) createInternship(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.CreateInternshipRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateInternshipRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.store.SetInternshipMode(st.ID, data.Mode()); err != nil {
		return errors.Wrap(err, "setting internship mode")
	}
	if data.FacultyID != "" || data.SiteID != "" {
		facultyID, siteID := st.FacultyID, st.SiteID
		if data.FacultyID != "" {
			facultyID = data.FacultyID
		}
		if data.SiteID != "" {
			siteID = data.SiteID
		}
		if err = api.store.AssignSupervisors(st.ID, facultyID, siteID); err != nil {
			return errors.Wrap(err, "assigning supervisors")
		}
	}

	if st, err = api.store.Student(st.ID); err != nil {
		return errors.Wrap(err, "reloading student")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Internship created successfully", "student": st.Sanitized()})
}

func (api *studentApi) appExA(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	form, err := api.store.LatestApproval(st.ID)
	if err != nil {
		return errors.Wrap(err, "finding latest approval")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"appexA": form.AppExA, "approval": form})
}

func (api *studentApi) bindAppExA(ctx echo.Context) (portal.AppExA, error) {
	var data portal.AppExA
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to AppExA")
	}
	return data, api.validate.Struct(data)
}

func (api *studentApi) submitAppExA(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindAppExA(ctx)
	if err != nil {
		return err
	}
	form, err := api.store.SubmitApproval(st.ID, portal.ApprovalFromAppExA(data, st))
	if err != nil {
		return errors.Wrap(err, "submitting approval")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "AppEx-A submitted successfully", "approval": form})
}

func (api *studentApi) updateAppExA(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindAppExA(ctx)
	if err != nil {
		return err
	}
	form, err := api.store.UpdateLatestApproval(st.ID, portal.ApprovalFromAppExA(data, st))
	if err != nil {
		return errors.Wrap(err, "updating approval")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "AppEx-A updated successfully", "approval": form})
}

func (api *studentApi) companyRequests(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"companyRequests": api.store.RequestsByStudent(st.ID)})
}

func (api *studentApi) requestCompany(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.NewCompanyRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompanyRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	req, err := api.store.RequestCompanyByStudent(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "requesting company")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Company request submitted", "request": req})
}

// Records

func (api *studentApi) logs(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"logs":       api.store.Logs(st.ID),
		"compliance": api.store.Compliance(st.ID, portal.NowFunc()),
	})
}

func (api *studentApi) submitLog(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err = portal.EnsureApproved(st); err != nil {
		return err
	}
	var data portal.NewWeeklyLog
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeeklyLog")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	entry, err := api.store.SubmitWeeklyLog(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting weekly log")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Weekly log submitted", "log": entry})
}

func (api *studentApi) reports(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"reports": api.store.Reports(st.ID)})
}

func (api *studentApi) submitReport(ctx echo.Context) error {
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
	if data.Type == portal.ReportMid || data.Type == portal.ReportSiteFinal {
		return core.NewFieldError("type", "Mid and site final reports are filed by the site supervisor")
	}
	if data.Type.RequiresApproval() {
		if err = portal.EnsureApproved(st); err != nil {
			return err
		}
	}
	r, err := api.store.SubmitReport(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting report")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Report submitted", "report": r})
}

func (api *studentApi) agreements(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"agreements": api.store.Agreements(st.ID)})
}

func (api *studentApi) submitAgreement(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.AgreementData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AgreementData")
	}
	a, err := api.store.SubmitAgreement(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting agreement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Agreement submitted", "agreement": a})
}

func (api *studentApi) designStatements(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"designStatements": api.store.DesignStatements(st.ID)})
}

func (api *studentApi) submitDesignStatement(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.DesignStatementData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DesignStatementData")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	ds, err := api.store.SubmitDesignStatement(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting design statement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Design statement submitted", "designStatement": ds})
}

func (api *studentApi) assignments(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"assignments": api.store.Assignments(st.ID)})
}

func (api *studentApi) submitAssignment(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	a, err := api.store.SubmitAssignment(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Assignment uploaded", "assignment": a})
}

func (api *studentApi) freelance(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"records": api.store.FreelanceRecords(st.ID)})
}

// submitFreelance files internship evidence once the approval and agreement forms are in.
func (api *studentApi) submitFreelance(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.FreelanceData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FreelanceData")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if !portal.EvidenceValid(data) {
		return portal.ErrInvalidEvidence
	}

	rec, err := api.store.SubmitFreelance(st.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Evidence submitted for review", "record": rec})
}

func (api *studentApi) evaluations(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"evaluations": api.store.Evaluations(st.ID)})
}

func (api *studentApi) complaints(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"complaints": api.store.ComplaintsByStudent(st.ID)})
}

func (api *studentApi) submitComplaint(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.ComplaintRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ComplaintRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.store.SubmitComplaint(st.ID, data.Category, data.Message)
	if err != nil {
		return errors.Wrap(err, "submitting complaint")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Complaint submitted", "complaint": c})
}
