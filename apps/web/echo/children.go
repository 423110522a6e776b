package echoweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/export"
)

const photoField = "photo"

type childViews struct {
	s *Server
}

func registerChildViews(g *echo.Group, s *Server) {
	v := childViews{s: s}

	g.GET("/children", v.list, s.can(user.CanListChildren))
	g.GET("/children/register", v.registerForm, s.can(user.CanRegisterChild))
	g.POST("/children/register", v.register, s.can(user.CanRegisterChild))

	cg := g.Group("/children/:id")
	cg.GET("", v.details, s.can(user.CanViewOwnChildren))
	cg.GET("/badge.png", v.badge, s.can(user.CanViewOwnChildren))
	cg.POST("/photo", v.uploadPhoto, s.can(user.CanViewOwnChildren))
	cg.GET("/edit", v.editForm, s.can(user.CanManageChildren))
	cg.PUT("", v.update, s.can(user.CanManageChildren))
	cg.POST("/transfer", v.transfer, s.can(user.CanManageChildren))
	cg.POST("/groups", v.addGroup, s.can(user.CanManageGroupMembers))
	cg.DELETE("/groups/:groupId", v.removeGroup, s.can(user.CanManageGroupMembers))
	cg.DELETE("", v.delete, s.can(user.CanDeleteChildren))
}

func childPath(id string) string { return "/children/" + url.PathEscape(id) }

// visible hides the children of other families from parents; whoever may list children sees them all.
func visible(ctx echo.Context, c child.Child) error {
	sess := getSession(ctx)
	if sess.Can(user.CanListChildren) {
		return nil
	}
	if usr, ok := sess.User(); ok && c.OwnedBy(usr.ID) {
		return nil
	}
	return errHttpNotFound
}

type childListData struct {
	Filter  child.ListFilter
	Page    child.Page
	Classes []roster.Roster
}

// PageURL is the list URL of page p with the current filter.
func (d childListData) PageURL(p int) string {
	q := url.Values{}
	for k, val := range d.Filter.Query() {
		q.Set(k, val)
	}
	q.Set("page", fmt.Sprint(p))
	return "/children?" + q.Encode()
}

func (v childViews) list(ctx echo.Context) error {
	var data childListData
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &data.Filter); err != nil {
		return errors.Wrap(err, "binding to ListFilter")
	}
	data.Filter.Normalize()

	clnt := v.s.deps.API
	err := fetchAll(ctx,
		func(c context.Context) (err error) {
			data.Page, err = clnt.Children.List(c, data.Filter)
			return err
		},
		func(c context.Context) (err error) {
			data.Classes, err = clnt.Classes.List(c)
			return err
		},
	)
	if err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "children/list", "Children", data)
}

type childFormData struct {
	Classes []roster.Roster
	Groups  []roster.Roster
	Parents []teacher.Parent
}

func (v childViews) formData(ctx echo.Context) (childFormData, error) {
	var data childFormData
	clnt := v.s.deps.API
	fetches := []func(context.Context) error{
		func(c context.Context) (err error) {
			data.Classes, err = clnt.Classes.List(c)
			return err
		},
		func(c context.Context) (err error) {
			data.Groups, err = clnt.Groups.List(c)
			return err
		},
	}
	if getSession(ctx).Can(user.CanChooseParent) {
		fetches = append(fetches, func(c context.Context) (err error) {
			data.Parents, err = clnt.Teachers.Parents(c)
			return err
		})
	}
	return data, fetchAll(ctx, fetches...)
}

func (v childViews) registerForm(ctx echo.Context) error {
	data, err := v.formData(ctx)
	if err != nil {
		return err
	}
	return v.s.formPage(ctx, http.StatusOK, "children/new", "Register a child", child.NewChild{}, nil, data)
}

func (v childViews) register(ctx echo.Context) error {
	var form child.NewChild
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	sess := getSession(ctx)
	if !sess.Can(user.CanChooseParent) {
		usr, _ := sess.User()
		form.ParentID = usr.ID
	}

	err := form.Validate()
	var created child.Child
	if err == nil {
		created, err = v.s.deps.API.Children.Register(ctx.Request().Context(), form)
	}
	if err != nil {
		data, dErr := v.formData(ctx)
		if dErr != nil {
			return dErr
		}
		return v.s.formPage(ctx, http.StatusOK, "children/new", "Register a child", form, err, data)
	}

	// the photo goes up once the child exists
	if _, pErr := v.savePhoto(ctx, created.ID); pErr != nil && !noFile(pErr) {
		sess.Notify(session.NoticeError, "The child was registered but the photo could not be uploaded: "+userMessage(pErr))
		return ctx.Redirect(http.StatusSeeOther, childPath(created.ID))
	}
	sess.Notify(session.NoticeSuccess, created.FullName()+" was registered.")
	return ctx.Redirect(http.StatusSeeOther, childPath(created.ID))
}

// savePhoto uploads the posted photo, if any, as the photo of the child.
func (v childViews) savePhoto(ctx echo.Context, id string) (child.Child, error) {
	fh, err := ctx.FormFile(photoField)
	if err != nil {
		return child.Child{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return child.Child{}, errors.Wrap(err, "opening photo")
	}
	defer f.Close()

	return v.s.deps.API.Children.UploadPhoto(ctx.Request().Context(), id, child.Photo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     f,
	})
}

func noFile(err error) bool {
	return errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
}

type childDetailsData struct {
	Child   child.Child
	History []attendance.HistoryEntry
	Classes []roster.Roster
	Groups  []roster.Roster // the groups the child may join
}

func (v childViews) details(ctx echo.Context) error {
	id := ctx.Param("id")
	var (
		data      childDetailsData
		allGroups []roster.Roster
	)
	clnt := v.s.deps.API
	fetches := []func(context.Context) error{
		func(c context.Context) (err error) {
			data.Child, err = clnt.Children.Get(c, id)
			return err
		},
		func(c context.Context) (err error) {
			data.History, err = clnt.Attendance.ChildHistory(c, id)
			return err
		},
	}
	if getSession(ctx).Can(user.CanManageChildren) {
		fetches = append(fetches,
			func(c context.Context) (err error) {
				data.Classes, err = clnt.Classes.List(c)
				return err
			},
			func(c context.Context) (err error) {
				allGroups, err = clnt.Groups.List(c)
				return err
			},
		)
	}
	if err := fetchAll(ctx, fetches...); err != nil {
		return err
	}
	if err := visible(ctx, data.Child); err != nil {
		return err
	}

	for _, grp := range allGroups {
		if !data.Child.InGroup(grp.ID) {
			data.Groups = append(data.Groups, grp)
		}
	}
	return v.s.page(ctx, http.StatusOK, "children/show", data.Child.FullName(), data)
}

func (v childViews) badge(ctx echo.Context) error {
	c, err := v.s.deps.API.Children.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = visible(ctx, c); err != nil {
		return err
	}
	png, err := export.Badge(v.s.deps.Conf.FrontendBaseURL, c)
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, export.PNGContentType, png)
}

func (v childViews) uploadPhoto(ctx echo.Context) error {
	id := ctx.Param("id")
	if !getSession(ctx).Can(user.CanListChildren) {
		c, err := v.s.deps.API.Children.Get(ctx.Request().Context(), id)
		if err != nil {
			return err
		}
		if err = visible(ctx, c); err != nil {
			return err
		}
	}
	if _, err := v.savePhoto(ctx, id); err != nil {
		if noFile(err) {
			return echo.NewHTTPError(http.StatusBadRequest, "Choose a photo to upload.")
		}
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The photo was updated.")
	return ctx.Redirect(http.StatusSeeOther, childPath(id))
}

type childEditData struct {
	Child child.Child
}

func (v childViews) editForm(ctx echo.Context) error {
	c, err := v.s.deps.API.Children.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return v.s.formPage(ctx, http.StatusOK, "children/edit", "Edit "+c.FullName(), child.FormOf(c), nil, childEditData{c})
}

func (v childViews) update(ctx echo.Context) error {
	id := ctx.Param("id")
	var form child.UpdateChild
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to UpdateChild")
	}

	err := form.Validate()
	var updated child.Child
	if err == nil {
		updated, err = v.s.deps.API.Children.Update(ctx.Request().Context(), id, form)
	}
	if err != nil {
		data := childEditData{Child: child.Child{ID: id, FirstName: form.FirstName, LastName: form.LastName}}
		return v.s.formPage(ctx, http.StatusOK, "children/edit", "Edit child", form, err, data)
	}
	getSession(ctx).Notify(session.NoticeSuccess, updated.FullName()+" was updated.")
	return ctx.Redirect(http.StatusSeeOther, childPath(id))
}

func (v childViews) transfer(ctx echo.Context) error {
	id := ctx.Param("id")
	var form child.Transfer
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to Transfer")
	}
	if form.ClassID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Choose the class to transfer to.")
	}
	c, err := v.s.deps.API.Children.Transfer(ctx.Request().Context(), id, form)
	if err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, fmt.Sprintf("%s was transferred to %s.", c.FullName(), c.Class.Label()))
	return ctx.Redirect(http.StatusSeeOther, childPath(id))
}

func (v childViews) addGroup(ctx echo.Context) error {
	id := ctx.Param("id")
	groupID := ctx.FormValue("groupId")
	if groupID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Choose a group.")
	}
	if err := v.s.deps.API.Groups.AddChild(ctx.Request().Context(), groupID, id); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The child was added to the group.")
	return ctx.Redirect(http.StatusSeeOther, childPath(id))
}

func (v childViews) removeGroup(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := v.s.deps.API.Groups.RemoveChild(ctx.Request().Context(), ctx.Param("groupId"), id); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The child was removed from the group.")
	return ctx.Redirect(http.StatusSeeOther, childPath(id))
}

func (v childViews) delete(ctx echo.Context) error {
	if err := v.s.deps.API.Children.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The child was deleted.")
	return ctx.Redirect(http.StatusSeeOther, "/children")
}
