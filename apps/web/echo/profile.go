package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
)

type profileViews struct {
	s *Server
}

func registerProfileViews(g *echo.Group, s *Server) {
	v := profileViews{s: s}

	pg := g.Group("/profile", s.guard())
	pg.GET("", v.show)
	pg.PUT("", v.update)
	pg.POST("/password", v.changePassword)
}

type profileData struct {
	PasswordErrors map[string]string
}

func (v profileViews) show(ctx echo.Context) error {
	usr := getSessionUser(ctx)
	form := user.UpdateProfile{FirstName: usr.FirstName, LastName: usr.LastName, PhoneNumber: usr.PhoneNumber}
	return v.s.formPage(ctx, http.StatusOK, "profile/show", "My profile", form, nil, profileData{})
}

func (v profileViews) update(ctx echo.Context) error {
	var form user.UpdateProfile
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	err := form.Validate()
	var usr user.User
	if err == nil {
		usr, err = v.s.deps.API.Auth.UpdateProfile(ctx.Request().Context(), form)
	}
	if err != nil {
		return v.s.formPage(ctx, http.StatusOK, "profile/show", "My profile", form, err, profileData{})
	}

	sess := getSession(ctx)
	if err := sess.SetUser(usr); err != nil {
		return err
	}
	sess.Notify(session.NoticeSuccess, "Your profile was updated.")
	return ctx.Redirect(http.StatusSeeOther, "/profile")
}

func (v profileViews) changePassword(ctx echo.Context) error {
	var form user.ChangePassword
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	usr := getSessionUser(ctx)
	err := form.Validate(usr)
	if err == nil {
		err = v.s.deps.API.Auth.ChangePassword(ctx.Request().Context(), form)
	}
	if err != nil {
		profile := user.UpdateProfile{FirstName: usr.FirstName, LastName: usr.LastName, PhoneNumber: usr.PhoneNumber}
		data := profileData{}
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && len(vErr.Fields) > 0 {
			data.PasswordErrors = vErr.FieldMap()
			return v.s.formPage(ctx, http.StatusBadRequest, "profile/show", "My profile", profile, nil, data)
		}
		return v.s.formPage(ctx, http.StatusOK, "profile/show", "My profile", profile, err, data)
	}
	getSession(ctx).Notify(session.NoticeSuccess, "Your password was changed.")
	return ctx.Redirect(http.StatusSeeOther, "/profile")
}
