package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

type adminApi struct {
	baseApi
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseApi) {
	api := adminApi{baseApi: base}

	ag := g.Group("/admin", jwt, roleMiddleware(portal.RoleAdmin))

	// accounts & companies
	ag.POST("/create-account", api.createAccount)
	ag.POST("/add-company", api.addCompany)
	ag.PUT("/update-company/:id", api.updateCompany)
	ag.DELETE("/companies/:id", api.removeCompany)
	ag.GET("/companies", api.companies)
	ag.POST("/review-company/:id", api.reviewRequest)
	ag.POST("/assign-supervisor", api.assignSupervisor)
	ag.GET("/company-supervisors/:companyId", api.companySupervisors)

	// profile
	ag.GET("/profile", api.profile)
	ag.PUT("/profile", api.updateProfile)
	ag.POST("/password", api.changePassword)

	// directory
	ag.GET("/faculty", api.faculty)
	ag.POST("/faculty", api.addFaculty)
	ag.PUT("/faculty/:id", api.updateFaculty)
	ag.DELETE("/faculty/:id", api.removeFaculty)
	ag.GET("/sites", api.sites)
	ag.POST("/sites", api.addSite)
	ag.PUT("/sites/:id", api.updateSite)
	ag.DELETE("/sites/:id", api.removeSite)
	ag.GET("/officers", api.officers)
	ag.POST("/officers", api.addOfficer)
	ag.PUT("/officers/:id", api.updateOfficer)
	ag.DELETE("/officers/:id", api.removeOfficer)
	ag.GET("/announcements", api.announcements)
	ag.POST("/announcements", api.addAnnouncement)
	ag.PUT("/announcements/:id", api.updateAnnouncement)
	ag.DELETE("/announcements/:id", api.removeAnnouncement)

	// requests & complaints
	ag.GET("/requests", api.requests)
	ag.POST("/requests/:id/approve", api.approveRequest)
	ag.POST("/requests/:id/reject", api.rejectRequest)
	ag.GET("/complaints", api.complaints)
	ag.POST("/complaints/:id/resolve", api.resolveComplaint)

	// students
	ag.GET("/students", api.students)
	ag.GET("/approvals", api.approvals)
	sg := ag.Group("/students/:id", studentAccessMiddleware(api.store))
	sg.GET("", api.studentRecord)
	sg.PUT("", api.updateStudent)
	sg.POST("/approve", api.approveStudent)
	sg.PUT("/marks", api.setMarks)
	sg.PUT("/sub-marks", api.setSubMarks)
	sg.POST("/approval/review", api.reviewApproval)
	sg.POST("/agreement/sign", api.signAgreement)
	sg.POST("/freelance/:recordId/review", api.reviewFreelance)
	sg.POST("/evaluations", api.submitEvaluation)
}

// Accounts & companies

func (api *adminApi) createAccount(ctx echo.Context) error {
	var data portal.CreateAccountRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateAccountRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.principal(ctx)
	if err != nil {
		return err
	}
	created, err := api.svc.CreateAccount(data, p)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *adminApi) addCompany(ctx echo.Context) error {
	var data portal.CompanyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompanyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id, err := api.store.AddCompany(data.Name, data.Address, &data.CompanyExtras)
	if err != nil {
		return errors.Wrap(err, "adding company")
	}
	company, err := api.store.Company(id)
	if err != nil {
		return errors.Wrap(err, "finding company")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Company added successfully", "company": company})
}

func (api *adminApi) updateCompany(ctx echo.Context) error {
	var data portal.CompanyChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompanyChanges")
	}
	company, err := api.store.UpdateCompany(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating company")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Company updated successfully", "company": company})
}

func (api *adminApi) removeCompany(ctx echo.Context) error {
	if err := api.store.RemoveCompany(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing company")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) companies(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"companies": api.store.Companies()})
}

// reviewRequest approves or rejects a pending company or site supervisor request.
func (api *adminApi) reviewRequest(ctx echo.Context) error {
	var data portal.ReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var req portal.RequestItem
	var err error
	if data.Decision == portal.StatusApproved {
		req, err = api.store.ApproveRequest(ctx.Param("id"))
	} else {
		req, err = api.store.RejectRequest(ctx.Param("id"), data.Comment)
	}
	if err != nil {
		return errors.Wrap(err, "reviewing request")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Request " + string(req.Status), "request": req})
}

func (api *adminApi) assignSupervisor(ctx echo.Context) error {
	var data portal.AssignSupervisorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignSupervisorRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.store.Student(data.StudentID)
	if err != nil {
		return err
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
	if data.CompanyID != "" {
		if err = api.store.AssignCompany(st.ID, data.CompanyID); err != nil {
			return errors.Wrap(err, "assigning company")
		}
	}

	if st, err = api.store.Student(st.ID); err != nil {
		return errors.Wrap(err, "reloading student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Supervisor assigned successfully", "student": st.Sanitized()})
}

func (api *adminApi) companySupervisors(ctx echo.Context) error {
	companyID := ctx.Param("companyId")
	if _, err := api.store.Company(companyID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"supervisors": sanitizeSites(api.store.SiteSupervisorsByCompany(companyID))})
}

// Profile

func (api *adminApi) profile(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"profile": api.store.AdminProfile().Sanitized()})
}

func (api *adminApi) updateProfile(ctx echo.Context) error {
	var data portal.AdminChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminChanges")
	}
	prof, err := api.store.UpdateAdminProfile(data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "profile": prof.Sanitized()})
}

func (api *adminApi) changePassword(ctx echo.Context) error {
	return api.baseApi.changePassword(ctx, api.store.ChangeAdminPassword)
}

// Directory

func (api *adminApi) faculty(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"faculty": sanitizeFaculty(api.store.FacultySupervisors())})
}

func (api *adminApi) addFaculty(ctx echo.Context) error {
	var data portal.FacultyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FacultyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.store.AddFacultySupervisor(data.Name, data.Email, data.Department, data.Password)
	if err != nil {
		return errors.Wrap(err, "adding faculty supervisor")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Faculty supervisor added", "faculty": f.Sanitized()})
}

func (api *adminApi) updateFaculty(ctx echo.Context) error {
	var data portal.FacultyChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FacultyChanges")
	}
	f, err := api.store.UpdateFacultySupervisor(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating faculty supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Faculty supervisor updated", "faculty": f.Sanitized()})
}

func (api *adminApi) removeFaculty(ctx echo.Context) error {
	if err := api.store.RemoveFacultySupervisor(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing faculty supervisor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) sites(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"sites": sanitizeSites(api.store.SiteSupervisors())})
}

// addSite adds a site supervisor; a new company name is listed on the fly.
func (api *adminApi) addSite(ctx echo.Context) error {
	var data portal.SiteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SiteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	companyID := data.CompanyID
	if companyID == "" && data.CompanyName != "" {
		var err error
		if companyID, err = api.store.AddCompany(data.CompanyName, "", nil); err != nil {
			return errors.Wrap(err, "adding company")
		}
	}
	id, err := api.store.AddSiteSupervisor(data.Name, data.Email, companyID, data.Password)
	if err != nil {
		return errors.Wrap(err, "adding site supervisor")
	}
	sup, err := api.store.SiteSupervisor(id)
	if err != nil {
		return errors.Wrap(err, "finding site supervisor")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Site supervisor added", "site": sup.Sanitized()})
}

func (api *adminApi) updateSite(ctx echo.Context) error {
	var data portal.SiteChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SiteChanges")
	}
	sup, err := api.store.UpdateSiteSupervisor(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating site supervisor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Site supervisor updated", "site": sup.Sanitized()})
}

func (api *adminApi) removeSite(ctx echo.Context) error {
	if err := api.store.RemoveSiteSupervisor(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing site supervisor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) officers(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"officers": api.store.InternshipOfficers()})
}

func (api *adminApi) addOfficer(ctx echo.Context) error {
	var data OfficerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OfficerRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	o, err := api.store.AddInternshipOfficer(data.Name, data.Email)
	if err != nil {
		return errors.Wrap(err, "adding internship officer")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Internship officer added", "officer": o})
}

func (api *adminApi) updateOfficer(ctx echo.Context) error {
	var data portal.OfficerChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OfficerChanges")
	}
	o, err := api.store.UpdateInternshipOfficer(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating internship officer")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Internship officer updated", "officer": o})
}

func (api *adminApi) removeOfficer(ctx echo.Context) error {
	if err := api.store.RemoveInternshipOfficer(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing internship officer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) announcements(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"announcements": api.store.Announcements()})
}

func (api *adminApi) addAnnouncement(ctx echo.Context) error {
	var data portal.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	a, err := api.store.AddAnnouncement(data)
	if err != nil {
		return errors.Wrap(err, "adding announcement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Announcement posted", "announcement": a})
}

func (api *adminApi) updateAnnouncement(ctx echo.Context) error {
	var data portal.AnnouncementChanges
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnnouncementChanges")
	}
	a, err := api.store.UpdateAnnouncement(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Announcement updated", "announcement": a})
}

func (api *adminApi) removeAnnouncement(ctx echo.Context) error {
	if err := api.store.RemoveAnnouncement(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Requests & complaints

func (api *adminApi) requests(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"requests": api.store.Requests()})
}

func (api *adminApi) approveRequest(ctx echo.Context) error {
	req, err := api.store.ApproveRequest(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving request")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Request approved", "request": req})
}

func (api *adminApi) rejectRequest(ctx echo.Context) error {
	var data NoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NoteRequest")
	}
	req, err := api.store.RejectRequest(ctx.Param("id"), data.Note)
	if err != nil {
		return errors.Wrap(err, "rejecting request")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Request rejected", "request": req})
}

func (api *adminApi) complaints(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"complaints": api.store.Complaints()})
}

func (api *adminApi) resolveComplaint(ctx echo.Context) error {
	var data ResponseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResponseRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	c, err := api.store.ResolveComplaint(ctx.Param("id"), data.Response)
	if err != nil {
		return errors.Wrap(err, "resolving complaint")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Complaint resolved", "complaint": c})
}

// Students

func (api *adminApi) students(ctx echo.Context) error {
	var filter portal.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, core.NewPage([]portal.Student{}, 1, 0))
	}
	students := sanitizeStudents(portal.FilterStudents(api.store.Students(), filter))
	return ctx.JSON(http.StatusOK, listPage(ctx, students, studentOrderKeys))
}

type ApplicationItem struct {
	Student  portal.Student      `json:"student"`
	Approval portal.ApprovalForm `json:"approval"`
}

// approvals lists the latest approval form of every student who filed one; ?pendingOnly keeps those awaiting review.
func (api *adminApi) approvals(ctx echo.Context) error {
	pendingOnly := ctx.QueryParam("pendingOnly") == "true"
	items := make([]ApplicationItem, 0)
	for _, st := range api.store.Students() {
		approvals := api.store.Approvals(st.ID)
		if len(approvals) == 0 || (pendingOnly && !portal.IsPendingApplication(approvals)) {
			continue
		}
		items = append(items, ApplicationItem{Student: st.Sanitized(), Approval: approvals[len(approvals)-1]})
	}
	return ctx.JSON(http.StatusOK, listPage(ctx, items, core.OrderKeys[ApplicationItem]{
		"name":      func(it ApplicationItem) string { return it.Student.Name },
		"status":    func(it ApplicationItem) string { return string(it.Approval.Status) },
		"createdAt": func(it ApplicationItem) string { return it.Approval.CreatedAt.UTC().Format(sortableTime) },
	}))
}

func (api *adminApi) updateStudent(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.StudentChanges
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentChanges")
	}
	if st, err = api.store.UpdateStudent(st.ID, data); err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student updated", "student": st.Sanitized()})
}

func (api *adminApi) approveStudent(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.store.ApproveStudent(st.ID); err != nil {
		return errors.Wrap(err, "approving student")
	}
	return ctx.JSON(http.StatusOK, success("Student approved"))
}

func (api *adminApi) setMarks(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.MarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err = api.store.SetAdminMarks(st.ID, portal.ClampMark(data.Mark)); err != nil {
		return errors.Wrap(err, "setting admin marks")
	}
	return ctx.JSON(http.StatusOK, success("Marks saved"))
}

func (api *adminApi) setSubMarks(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.SubMarksRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubMarksRequest")
	}
	err = api.store.SetAdminSubMarks(st.ID,
		portal.ClampMark(data.Proposal), portal.ClampMark(data.Logs), portal.ClampMark(data.Final))
	if err != nil {
		return errors.Wrap(err, "setting admin sub marks")
	}
	return ctx.JSON(http.StatusOK, success("Marks saved"))
}

func (api *adminApi) reviewApproval(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.ReviewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	form, err := api.store.ReviewApproval(st.ID, data.Decision, data.Comment)
	if err != nil {
		return errors.Wrap(err, "reviewing approval")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Application " + string(form.Status), "approval": form})
}

func (api *adminApi) signAgreement(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	p, err := api.principal(ctx)
	if err != nil {
		return err
	}
	a, err := api.store.SignAgreementByOffice(st.ID, p.Name)
	if err != nil {
		return errors.Wrap(err, "signing agreement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Agreement signed", "agreement": a})
}

func (api *adminApi) reviewFreelance(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.ReviewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	rec, err := api.store.ReviewFreelance(st.ID, ctx.Param("recordId"), data.Decision, data.Comment)
	if err != nil {
		return errors.Wrap(err, "reviewing freelance evidence")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Evidence " + string(rec.Status), "record": rec})
}

func (api *adminApi) submitEvaluation(ctx echo.Context) error {
	return api.baseApi.submitEvaluation(ctx, portal.RoleAdmin)
}
