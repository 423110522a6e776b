package apitest

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/notification"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
)

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (b *Backend) login(c echo.Context) error {
	var creds user.Credentials
	if err := c.Bind(&creds); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	token, ok := b.passwords[strings.ToLower(creds.Email)+":"+creds.Password]
	if !ok {
		return message(c, http.StatusUnauthorized, "Invalid email or password")
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: b.users[token]})
}

func (b *Backend) register(c echo.Context) error {
	var nu user.NewUser
	if err := c.Bind(&nu); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	for key := range b.passwords {
		if strings.HasPrefix(key, strings.ToLower(nu.Email)+":") {
			return message(c, http.StatusBadRequest, "User already exists")
		}
	}
	usr := user.User{FirstName: nu.FirstName, LastName: nu.LastName, Email: nu.Email, PhoneNumber: nu.PhoneNumber, Role: nu.Role}
	token := b.addUser(usr, nu.Password)
	return c.JSON(http.StatusCreated, authResponse{Token: token, User: b.users[token]})
}

func (b *Backend) me(c echo.Context) error {
	usr, _ := b.current(c)
	return c.JSON(http.StatusOK, usr)
}

func (b *Backend) updateProfile(c echo.Context) error {
	var up user.UpdateProfile
	if err := c.Bind(&up); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	usr, _ := b.current(c)
	usr.FirstName, usr.LastName, usr.PhoneNumber = up.FirstName, up.LastName, up.PhoneNumber
	b.users["token-"+usr.ID] = usr
	return c.JSON(http.StatusOK, usr)
}

// children

func (b *Backend) findChild(id string) int {
	for i, ch := range b.Children {
		if ch.ID == id {
			return i
		}
	}
	return -1
}

// hidden reports if the caller is a parent asking about another family's child.
func (b *Backend) hidden(c echo.Context, ch child.Child) bool {
	usr, _ := b.current(c)
	return usr.Role == user.RoleParent && !ch.OwnedBy(usr.ID)
}

func (b *Backend) listChildren(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	f := child.ListFilter{Page: page, Limit: limit}
	f.Normalize()
	search := strings.ToLower(c.QueryParam("search"))
	classID := c.QueryParam("classId")

	matches := make([]child.Child, 0, len(b.Children))
	for _, ch := range b.Children {
		if search != "" && !strings.Contains(strings.ToLower(ch.FullName()), search) {
			continue
		}
		if classID != "" && ch.Class.ID != classID {
			continue
		}
		if b.hidden(c, ch) {
			continue
		}
		matches = append(matches, ch)
	}
	total := len(matches)
	start, end := (f.Page-1)*f.Limit, f.Page*f.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, child.Page{
		Children:   matches[start:end],
		Pagination: child.Pagination{Page: f.Page, Limit: f.Limit, Total: total, Pages: (total + f.Limit - 1) / f.Limit},
	})
}

func (b *Backend) searchChildren(c echo.Context) error {
	q := strings.ToLower(c.QueryParam("q"))
	matches := make([]child.Child, 0)
	for _, ch := range b.Children {
		if strings.Contains(strings.ToLower(ch.FullName()), q) {
			matches = append(matches, ch)
		}
	}
	return c.JSON(http.StatusOK, matches)
}

func (b *Backend) childrenOf(kind roster.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		members := make([]child.Child, 0)
		for _, ch := range b.Children {
			if (kind == roster.KindClass && ch.Class.ID == id) || (kind == roster.KindGroup && ch.InGroup(id)) {
				members = append(members, ch)
			}
		}
		return c.JSON(http.StatusOK, members)
	}
}

func (b *Backend) getChild(c echo.Context) error {
	i := b.findChild(c.Param("id"))
	if i < 0 || b.hidden(c, b.Children[i]) {
		return notFound(c, "Child")
	}
	return c.JSON(http.StatusOK, b.Children[i])
}

func (b *Backend) registerChild(c echo.Context) error {
	var nc child.NewChild
	if err := c.Bind(&nc); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	ch := child.Child{
		ID:               b.nextID("c"),
		FirstName:        nc.FirstName,
		LastName:         nc.LastName,
		DateOfBirth:      nc.DateOfBirth,
		Gender:           nc.Gender,
		Class:            core.Ref{ID: nc.ClassID},
		Parent:           core.Ref{ID: nc.ParentID},
		Allergies:        nc.Allergies,
		MedicalNotes:     nc.MedicalNotes,
		EmergencyContact: nc.EmergencyContact,
	}
	for _, g := range nc.GroupIDs {
		ch.Groups = append(ch.Groups, core.Ref{ID: g})
	}
	b.Children = append(b.Children, ch)
	return c.JSON(http.StatusCreated, ch)
}

func (b *Backend) updateChild(c echo.Context) error {
	i := b.findChild(c.Param("id"))
	if i < 0 {
		return notFound(c, "Child")
	}
	var payload struct {
		child.UpdateChild
		ClassID string `json:"class"`
	}
	if err := c.Bind(&payload); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	ch := &b.Children[i]
	if payload.ClassID != "" {
		ch.Class = core.Ref{ID: payload.ClassID}
	}
	if uc := payload.UpdateChild; uc.FirstName != "" {
		ch.FirstName, ch.LastName, ch.DateOfBirth, ch.Gender = uc.FirstName, uc.LastName, uc.DateOfBirth, uc.Gender
		ch.Allergies, ch.MedicalNotes, ch.EmergencyContact = uc.Allergies, uc.MedicalNotes, uc.EmergencyContact
	}
	return c.JSON(http.StatusOK, *ch)
}

func (b *Backend) deleteChild(c echo.Context) error {
	i := b.findChild(c.Param("id"))
	if i < 0 {
		return notFound(c, "Child")
	}
	b.Children = append(b.Children[:i], b.Children[i+1:]...)
	return message(c, http.StatusOK, "Child removed")
}

func (b *Backend) uploadPhoto(c echo.Context) error {
	i := b.findChild(c.Param("id"))
	if i < 0 || b.hidden(c, b.Children[i]) {
		return notFound(c, "Child")
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return message(c, http.StatusBadRequest, "No file uploaded")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err = io.Copy(io.Discard, f); err != nil {
		return err
	}
	b.Children[i].Photo = "/uploads/" + fh.Filename
	return c.JSON(http.StatusOK, b.Children[i])
}

// rosters

func (b *Backend) rosters(kind roster.Kind) *[]roster.Roster {
	if kind == roster.KindGroup {
		return &b.Groups
	}
	return &b.Classes
}

func findRoster(rosters []roster.Roster, id string) int {
	for i, r := range rosters {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) rosterRoutes(g *echo.Group, kind roster.Kind) {
	what := kind.Title()
	g.GET("", func(c echo.Context) error { return c.JSON(http.StatusOK, orEmpty(*b.rosters(kind))) })
	g.POST("/init", func(c echo.Context) error { return message(c, http.StatusCreated, what+" initialized") })
	g.GET("/:id", func(c echo.Context) error {
		rosters := *b.rosters(kind)
		i := findRoster(rosters, c.Param("id"))
		if i < 0 {
			return notFound(c, what)
		}
		return c.JSON(http.StatusOK, rosters[i])
	})
	g.POST("", func(c echo.Context) error {
		var nr roster.NewRoster
		if err := c.Bind(&nr); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		r := roster.Roster{ID: b.nextID(kind.String()[:1]), Name: nr.Name, Description: nr.Description, AgeRange: nr.AgeRange}
		rosters := b.rosters(kind)
		*rosters = append(*rosters, r)
		return c.JSON(http.StatusCreated, r)
	})
	g.PUT("/:id", func(c echo.Context) error {
		rosters := *b.rosters(kind)
		i := findRoster(rosters, c.Param("id"))
		if i < 0 {
			return notFound(c, what)
		}
		var nr roster.NewRoster
		if err := c.Bind(&nr); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		rosters[i].Name, rosters[i].Description, rosters[i].AgeRange = nr.Name, nr.Description, nr.AgeRange
		return c.JSON(http.StatusOK, rosters[i])
	})
	g.POST("/:id/assign-teacher", func(c echo.Context) error {
		rosters := *b.rosters(kind)
		i := findRoster(rosters, c.Param("id"))
		if i < 0 {
			return notFound(c, what)
		}
		var ta roster.TeacherAssignment
		if err := c.Bind(&ta); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		if !rosters[i].HasTeacher(ta.TeacherID) {
			rosters[i].Teachers = append(rosters[i].Teachers, core.Ref{ID: ta.TeacherID})
		}
		return c.JSON(http.StatusOK, rosters[i])
	})
	g.POST("/:id/remove-teacher", func(c echo.Context) error {
		rosters := *b.rosters(kind)
		i := findRoster(rosters, c.Param("id"))
		if i < 0 {
			return notFound(c, what)
		}
		var ta roster.TeacherAssignment
		if err := c.Bind(&ta); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		kept := rosters[i].Teachers[:0]
		for _, t := range rosters[i].Teachers {
			if t.ID != ta.TeacherID {
				kept = append(kept, t)
			}
		}
		rosters[i].Teachers = kept
		return c.JSON(http.StatusOK, rosters[i])
	})
	if kind != roster.KindGroup {
		return
	}
	g.POST("/:id/add-child", func(c echo.Context) error {
		var m roster.Membership
		if err := c.Bind(&m); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		i := b.findChild(m.ChildID)
		if i < 0 {
			return notFound(c, "Child")
		}
		if !b.Children[i].InGroup(c.Param("id")) {
			b.Children[i].Groups = append(b.Children[i].Groups, core.Ref{ID: c.Param("id")})
		}
		return message(c, http.StatusOK, "Child added to group")
	})
	g.POST("/:id/remove-child", func(c echo.Context) error {
		var m roster.Membership
		if err := c.Bind(&m); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		i := b.findChild(m.ChildID)
		if i < 0 {
			return notFound(c, "Child")
		}
		kept := b.Children[i].Groups[:0]
		for _, g := range b.Children[i].Groups {
			if g.ID != c.Param("id") {
				kept = append(kept, g)
			}
		}
		b.Children[i].Groups = kept
		return message(c, http.StatusOK, "Child removed from group")
	})
}

// attendance

func (b *Backend) takeAttendance(kind roster.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var ns attendance.NewSession
		if err := c.Bind(&ns); err != nil {
			return message(c, http.StatusBadRequest, "invalid payload")
		}
		usr, _ := b.current(c)
		s := attendance.Session{ID: b.nextID("s"), Date: ns.Date, Type: kind, Notes: ns.Notes, TakenBy: core.Ref{ID: usr.ID, FirstName: usr.FirstName, LastName: usr.LastName}}
		if kind == roster.KindGroup {
			s.Group = &core.Ref{ID: ns.GroupID}
		} else {
			s.Class = &core.Ref{ID: ns.ClassID}
		}
		for _, rec := range ns.Records {
			s.Records = append(s.Records, attendance.Record{Child: core.Ref{ID: rec.ChildID}, Status: rec.Status, Notes: rec.Notes})
		}
		b.Sessions = append([]attendance.Session{s}, b.Sessions...)
		return c.JSON(http.StatusCreated, s)
	}
}

func (b *Backend) history(kind roster.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		sessions := make([]attendance.Session, 0)
		for _, s := range b.Sessions {
			if k, target := s.Target(); k == kind && target.ID == id {
				sessions = append(sessions, s)
			}
		}
		return c.JSON(http.StatusOK, sessions)
	}
}

func (b *Backend) childHistory(c echo.Context) error {
	if i := b.findChild(c.Param("id")); i >= 0 && b.hidden(c, b.Children[i]) {
		return notFound(c, "Child")
	}
	return c.JSON(http.StatusOK, orEmpty(b.ChildHistory[c.Param("id")]))
}

func (b *Backend) findSession(id string) int {
	for i, s := range b.Sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) getSession(c echo.Context) error {
	i := b.findSession(c.Param("id"))
	if i < 0 {
		return notFound(c, "Attendance record")
	}
	return c.JSON(http.StatusOK, b.Sessions[i])
}

func (b *Backend) updateSession(c echo.Context) error {
	i := b.findSession(c.Param("id"))
	if i < 0 {
		return notFound(c, "Attendance record")
	}
	var ns attendance.NewSession
	if err := c.Bind(&ns); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	s := &b.Sessions[i]
	s.Notes = ns.Notes
	s.Records = s.Records[:0]
	for _, rec := range ns.Records {
		s.Records = append(s.Records, attendance.Record{Child: core.Ref{ID: rec.ChildID}, Status: rec.Status, Notes: rec.Notes})
	}
	return c.JSON(http.StatusOK, *s)
}

func (b *Backend) report(c echo.Context) error {
	return c.JSON(http.StatusOK, b.Report)
}

// teachers

func (b *Backend) findTeacher(id string) int {
	for i, t := range b.Teachers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) getTeacher(c echo.Context) error {
	i := b.findTeacher(c.Param("id"))
	if i < 0 {
		return notFound(c, "Teacher")
	}
	return c.JSON(http.StatusOK, b.Teachers[i])
}

func (b *Backend) createTeacher(c echo.Context) error {
	var nt teacher.NewTeacher
	if err := c.Bind(&nt); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	t := teacher.Teacher{ID: b.nextID("t"), FirstName: nt.FirstName, LastName: nt.LastName, Email: nt.Email, PhoneNumber: nt.PhoneNumber, Role: user.RoleTeacher}
	b.Teachers = append(b.Teachers, t)
	b.addUser(user.User{ID: t.ID, FirstName: t.FirstName, LastName: t.LastName, Email: t.Email, Role: user.RoleTeacher}, nt.Password)
	return c.JSON(http.StatusCreated, t)
}

func (b *Backend) updateTeacher(c echo.Context) error {
	i := b.findTeacher(c.Param("id"))
	if i < 0 {
		return notFound(c, "Teacher")
	}
	var ut teacher.UpdateTeacher
	if err := c.Bind(&ut); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	t := &b.Teachers[i]
	t.FirstName, t.LastName, t.PhoneNumber = ut.FirstName, ut.LastName, ut.PhoneNumber
	if ut.IsActive != nil {
		t.IsActive = ut.IsActive
	}
	return c.JSON(http.StatusOK, *t)
}

func (b *Backend) deleteTeacher(c echo.Context) error {
	i := b.findTeacher(c.Param("id"))
	if i < 0 {
		return notFound(c, "Teacher")
	}
	inactive := false
	b.Teachers[i].IsActive = &inactive
	return message(c, http.StatusOK, "Teacher deactivated")
}

// notifications

func (b *Backend) notificationList() notification.List {
	list := notification.List{Notifications: orEmpty(b.Notifications)}
	for _, n := range b.Notifications {
		if !n.IsRead {
			list.UnreadCount++
		}
	}
	return list
}

func (b *Backend) listNotifications(c echo.Context) error {
	list := b.notificationList()
	if c.QueryParam("unreadOnly") == "true" {
		unread := make([]notification.Notification, 0, list.UnreadCount)
		for _, n := range list.Notifications {
			if !n.IsRead {
				unread = append(unread, n)
			}
		}
		list.Notifications = unread
	}
	return c.JSON(http.StatusOK, list)
}

func (b *Backend) readNotification(c echo.Context) error {
	for i := range b.Notifications {
		if b.Notifications[i].ID == c.Param("id") {
			b.Notifications[i].IsRead = true
			return c.JSON(http.StatusOK, b.Notifications[i])
		}
	}
	return notFound(c, "Notification")
}

func (b *Backend) readAllNotifications(c echo.Context) error {
	for i := range b.Notifications {
		b.Notifications[i].IsRead = true
	}
	return message(c, http.StatusOK, "All notifications marked as read")
}

func (b *Backend) deleteNotification(c echo.Context) error {
	for i, n := range b.Notifications {
		if n.ID == c.Param("id") {
			b.Notifications = append(b.Notifications[:i], b.Notifications[i+1:]...)
			return message(c, http.StatusOK, "Notification removed")
		}
	}
	return notFound(c, "Notification")
}

func (b *Backend) sendNotification(c echo.Context) error {
	var nn notification.NewNotification
	if err := c.Bind(&nn); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	usr, _ := b.current(c)
	n := notification.Notification{
		ID:           b.nextID("n"),
		Title:        nn.Title,
		Message:      nn.Message,
		Type:         nn.Type,
		RelatedChild: core.Ref{ID: nn.RelatedChildID},
		Sender:       core.Ref{ID: usr.ID, FirstName: usr.FirstName, LastName: usr.LastName},
	}
	return c.JSON(http.StatusCreated, n)
}

func (b *Backend) sendBulk(c echo.Context) error {
	var bn notification.BulkNotification
	if err := c.Bind(&bn); err != nil {
		return message(c, http.StatusBadRequest, "invalid payload")
	}
	return message(c, http.StatusCreated, strconv.Itoa(len(bn.RecipientIDs))+" notifications sent")
}
