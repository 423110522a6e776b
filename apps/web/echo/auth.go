package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
)

type authViews struct {
	s *Server
}

func registerAuthViews(g *echo.Group, s *Server) {
	v := authViews{s: s}

	ag := g.Group("", s.anonymous)
	ag.GET(session.LoginPath, v.loginForm)
	ag.POST(session.LoginPath, v.login)
	ag.GET("/register", v.registerForm)
	ag.POST("/register", v.register)
	ag.GET("/forgot-password", v.forgotPasswordForm)
	ag.POST("/forgot-password", v.forgotPassword)
	ag.GET("/reset-password/:token", v.resetPasswordForm)
	ag.POST("/reset-password/:token", v.resetPassword)

	g.POST("/logout", v.logout)
	g.POST("/install/dismiss", v.dismissInstall)
}

type loginData struct {
	From string
}

func (v authViews) loginForm(ctx echo.Context) error {
	data := loginData{From: session.SafeReturnPath(ctx.QueryParam("from"))}
	return v.s.formPage(ctx, http.StatusOK, "auth/login", "Log in", user.Credentials{}, nil, data)
}

func (v authViews) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	data := loginData{From: session.SafeReturnPath(ctx.FormValue("from"))}

	usr, err := getSession(ctx).Login(ctx.Request().Context(), creds)
	if err != nil {
		creds.Password = ""
		return v.s.formPage(ctx, http.StatusOK, "auth/login", "Log in", creds, err, data)
	}
	getSession(ctx).Notify(session.NoticeSuccess, fmt.Sprintf("Welcome back, %s!", usr.FirstName))
	return ctx.Redirect(http.StatusSeeOther, data.From)
}

type registerData struct {
	Roles []user.Role
}

func (v authViews) registerForm(ctx echo.Context) error {
	form := user.NewUser{Role: user.RoleParent}
	return v.s.formPage(ctx, http.StatusOK, "auth/register", "Create an account", form, nil, registerData{user.SelfServiceRoles})
}

func (v authViews) register(ctx echo.Context) error {
	var form user.NewUser
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := getSession(ctx).Register(ctx.Request().Context(), form)
	if err != nil {
		form.Password, form.PasswordConfirm = "", ""
		return v.s.formPage(ctx, http.StatusOK, "auth/register", "Create an account", form, err, registerData{user.SelfServiceRoles})
	}
	getSession(ctx).Notify(session.NoticeSuccess, fmt.Sprintf("Welcome, %s! Your account was created.", usr.FirstName))
	return ctx.Redirect(http.StatusSeeOther, session.HomePath)
}

func (v authViews) logout(ctx echo.Context) error {
	sess := getSession(ctx)
	if err := sess.Logout(); err != nil {
		return err
	}
	sess.Notify(session.NoticeInfo, "You have been logged out.")
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (v authViews) forgotPasswordForm(ctx echo.Context) error {
	return v.s.formPage(ctx, http.StatusOK, "auth/forgot", "Forgot password", user.ForgotPassword{}, nil, nil)
}

func (v authViews) forgotPassword(ctx echo.Context) error {
	var form user.ForgotPassword
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ForgotPassword")
	}
	err := form.Validate()
	if err == nil {
		err = v.s.deps.API.Auth.ForgotPassword(ctx.Request().Context(), form)
	}
	if err != nil {
		return v.s.formPage(ctx, http.StatusOK, "auth/forgot", "Forgot password", form, err, nil)
	}
	getSession(ctx).Notify(session.NoticeSuccess, "If an account exists for "+form.Email+", a reset link is on its way.")
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

type resetData struct {
	Token string
}

func (v authViews) resetPasswordForm(ctx echo.Context) error {
	data := resetData{Token: ctx.Param("token")}
	return v.s.formPage(ctx, http.StatusOK, "auth/reset", "Reset password", user.ResetPassword{}, nil, data)
}

func (v authViews) resetPassword(ctx echo.Context) error {
	var form user.ResetPassword
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	data := resetData{Token: ctx.Param("token")}
	err := form.Validate()
	if err == nil {
		err = v.s.deps.API.Auth.ResetPassword(ctx.Request().Context(), data.Token, form)
	}
	if err != nil {
		return v.s.formPage(ctx, http.StatusOK, "auth/reset", "Reset password", user.ResetPassword{}, err, data)
	}
	getSession(ctx).Notify(session.NoticeSuccess, "Your password was reset. You can now log in.")
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (v authViews) dismissInstall(ctx echo.Context) error {
	if err := getSession(ctx).DismissInstallPrompt(); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, backPath(ctx.Request()))
}
