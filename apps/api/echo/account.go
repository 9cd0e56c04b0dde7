package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core/portal"
)

const passwordResetSentMsg = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type authApi struct {
	baseApi
	issuer *tokenIssuer
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, limiter *loginLimiter, issuer *tokenIssuer, base baseApi) {
	api := authApi{baseApi: base, issuer: issuer}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login, limiter.middleware())
	ag.POST("/verify-email", api.verifyEmail)
	ag.POST("/send-verification-email", api.sendVerificationEmail)
	ag.POST("/forgot-password", api.forgotPassword, limiter.middleware())
	ag.POST("/reset-password", api.resetPassword)

	// takes the access or the refresh token
	ag.POST("/refresh-token", api.refreshToken, jwt)
}

type (
	SessionUser struct {
		ID    string      `json:"id"`
		Name  string      `json:"name"`
		Email string      `json:"email"`
		Role  portal.Role `json:"role"`
	}

	LoginResponse struct {
		Success      bool        `json:"success"`
		Message      string      `json:"message"`
		Token        string      `json:"token"`
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		User         SessionUser `json:"user"`
		Role         portal.Role `json:"role"`
	}
)

func newLoginResponse(msg string, p portal.Principal, pair tokenPair) LoginResponse {
	return LoginResponse{
		Success:      true,
		Message:      msg,
		Token:        pair.access,
		AccessToken:  pair.access,
		RefreshToken: pair.refresh,
		User:         SessionUser{ID: p.ID(), Name: p.Name, Email: p.Email, Role: p.Role},
		Role:         p.Role,
	}
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data portal.RegisterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    st.Sanitized(),
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data portal.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.store.Authenticate(data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	pair, err := api.issuer.issue(p)
	if err != nil {
		return errors.Wrap(err, "issuing tokens")
	}
	return ctx.JSON(http.StatusOK, newLoginResponse("Login successful", p, pair))
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	p, pair, err := refreshToken(ctx, api.issuer, api.store)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, newLoginResponse("Token refreshed", p, pair))
}

func (api *authApi) verifyEmail(ctx echo.Context) error {
	var data portal.TokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.VerifyEmail(data.Token)
	if err != nil {
		return errors.Wrap(err, "verifying email")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Email verified successfully", "user": st.Sanitized()})
}

func (api *authApi) sendVerificationEmail(ctx echo.Context) error {
	var data portal.EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SendVerificationEmail(data.Email); !(err == nil || portal.IsNotFound(err)) {
		// do not return errors to attackers
		api.logger.Error("sending verification email", errors.Wrap(err, "sending verification email"))
	}
	return ctx.JSON(http.StatusOK, success("If an unverified account uses this email, a verification link is on its way."))
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data portal.EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Email); !(err == nil || portal.IsNotFound(err)) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, success(passwordResetSentMsg))
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data portal.ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, success("Password has been reset with the new password."))
}
