package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/roster"
)

func pathEscape(s string) string { return url.PathEscape(s) }

type ChildrenAPI struct{ c *Client }

func (a *ChildrenAPI) List(ctx context.Context, f child.ListFilter) (child.Page, error) {
	f.Normalize()
	var page child.Page
	err := a.c.get(ctx, "children.list", "/children", f.Query(), &page)
	return page, err
}

func (a *ChildrenAPI) Get(ctx context.Context, id string) (child.Child, error) {
	var c child.Child
	err := a.c.get(ctx, "children.get", "/children/"+pathEscape(id), nil, &c)
	return c, err
}

func (a *ChildrenAPI) Search(ctx context.Context, q string) ([]child.Child, error) {
	var children []child.Child
	err := a.c.get(ctx, "children.search", "/children/search", map[string]string{"q": q}, &children)
	return children, err
}

// Register creates a child; its photo, if any, is uploaded separately.
func (a *ChildrenAPI) Register(ctx context.Context, nc child.NewChild) (child.Child, error) {
	var c child.Child
	err := a.c.post(ctx, "children.register", "/children", nc, &c)
	return c, err
}

func (a *ChildrenAPI) Update(ctx context.Context, id string, uc child.UpdateChild) (child.Child, error) {
	var c child.Child
	err := a.c.put(ctx, "children.update", "/children/"+pathEscape(id), uc, &c)
	return c, err
}

// Transfer replaces the class of a child.
func (a *ChildrenAPI) Transfer(ctx context.Context, id string, tr child.Transfer) (child.Child, error) {
	var c child.Child
	err := a.c.put(ctx, "children.transfer", "/children/"+pathEscape(id), tr, &c)
	return c, err
}

func (a *ChildrenAPI) Delete(ctx context.Context, id string) error {
	return a.c.delete(ctx, "children.delete", "/children/"+pathEscape(id))
}

// UploadPhoto sends the photo as the multipart field "photo". Only the photo of the child changes.
func (a *ChildrenAPI) UploadPhoto(ctx context.Context, id string, photo child.Photo) (child.Child, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+escapeQuotes(photo.Filename)+`"`)
	ct := photo.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return child.Child{}, errors.Wrap(err, "children.uploadPhoto: creating part")
	}
	if _, err = io.Copy(part, photo.Content); err != nil {
		return child.Child{}, errors.Wrap(err, "children.uploadPhoto: copying photo")
	}
	if err = mw.Close(); err != nil {
		return child.Child{}, errors.Wrap(err, "children.uploadPhoto: closing body")
	}

	var c child.Child
	err = a.c.do(ctx, call{
		op:          "children.uploadPhoto",
		method:      rest.Post,
		path:        "/children/" + pathEscape(id) + "/photo",
		rawBody:     body.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &c)
	return c, err
}

func (a *ChildrenAPI) ByClass(ctx context.Context, classID string) ([]child.Child, error) {
	var children []child.Child
	err := a.c.get(ctx, "children.byClass", "/children/class/"+pathEscape(classID), nil, &children)
	return children, err
}

func (a *ChildrenAPI) ByGroup(ctx context.Context, groupID string) ([]child.Child, error) {
	var children []child.Child
	err := a.c.get(ctx, "children.byGroup", "/children/group/"+pathEscape(groupID), nil, &children)
	return children, err
}

// ByRoster lists the members of a class or a group.
func (a *ChildrenAPI) ByRoster(ctx context.Context, kind roster.Kind, id string) ([]child.Child, error) {
	if kind == roster.KindGroup {
		return a.ByGroup(ctx, id)
	}
	return a.ByClass(ctx, id)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
