package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

// baseApi holds what every handler group needs.
type baseApi struct {
	svc        *portal.Service
	store      *portal.Store
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

type (
	MessageResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	PasswordRequest struct {
		Password string `json:"password" validate:"required"`
	}

	OfficerRequest struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	NoteRequest struct {
		Note string `json:"note"`
	}

	ResponseRequest struct {
		Response string `json:"response" validate:"required"`
	}

	ScoreRequest struct {
		Score float64 `json:"score"`
	}

	ApproveReportRequest struct {
		Approved bool `json:"approved"`
	}
)

func (r *OfficerRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func success(msg string) MessageResponse {
	return MessageResponse{Success: true, Message: msg}
}

func (api baseApi) principal(ctx echo.Context) (portal.Principal, error) {
	p, err := getContextPrincipal(ctx)
	return p, errors.Wrap(err, "getting context principal")
}

// changePassword runs the shared change password flow of every role.
func (api baseApi) changePassword(ctx echo.Context, change func(oldPwd, newPwd string) error) error {
	var data portal.ChangePasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := change(data.OldPassword, data.NewPassword); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, success("Password changed successfully"))
}

// submitEvaluation files an evaluation of the context student under role.
func (api baseApi) submitEvaluation(ctx echo.Context, role portal.Role) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	var data portal.EvaluationData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EvaluationData")
	}
	data.Role = role
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	ev, err := api.store.SubmitEvaluation(st.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting evaluation")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Evaluation submitted", "evaluation": ev})
}

// studentRecord gathers everything filed by or about a student.
func (api baseApi) studentRecord(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"student":          st.Sanitized(),
		"compliance":       api.store.Compliance(st.ID, portal.NowFunc()),
		"logs":             api.store.Logs(st.ID),
		"reports":          api.store.Reports(st.ID),
		"approvals":        api.store.Approvals(st.ID),
		"agreements":       api.store.Agreements(st.ID),
		"evaluations":      api.store.Evaluations(st.ID),
		"freelance":        api.store.FreelanceRecords(st.ID),
		"designStatements": api.store.DesignStatements(st.ID),
		"assignments":      api.store.Assignments(st.ID),
	})
}

// assignmentContent streams the uploaded file of an assignment of the context student.
func (api baseApi) assignmentContent(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	a, data, err := api.store.AssignmentContent(ctx.Request().Context(), st.ID, ctx.Param("assignmentId"))
	if err != nil {
		return errors.Wrap(err, "loading assignment content")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+a.FileName+`"`)
	return ctx.Blob(http.StatusOK, a.FileType, data)
}
