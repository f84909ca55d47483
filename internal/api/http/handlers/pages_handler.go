package handlers

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/domain"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} | Gift Portal</title></head>
<body>
<main data-page="{{.Name}}">
<h1>{{.Title}}</h1>
{{if .User}}<p class="greeting">Signed in as {{.User.Name}} ({{.User.Email}})</p>{{end}}
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .AdminLogin}}<form method="post" action="/api/admin/authenticate">
<label>Username <input name="username" autocomplete="username"></label>
<label>Password <input name="password" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>{{end}}
</main>
</body>
</html>
`))

type pageData struct {
	Name       string
	Title      string
	User       *domain.UserIdentity
	Lines      []string
	AdminLogin bool
}

// PagesHandler renders the HTML shells behind the route gate.
type PagesHandler struct {
	auth auth.Authenticator
}

// NewPagesHandler constructs handler.
func NewPagesHandler(authenticator auth.Authenticator) *PagesHandler {
	return &PagesHandler{auth: authenticator}
}

// Home GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	if principalUser(c) == nil {
		return c.Redirect(auth.AccessDeniedPath, fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, pageData{
		Name:  "home",
		Title: "Request a gift",
		User:  principalUser(c),
		Lines: []string{"Choose a gift duration and tell us who should receive it."},
	})
}

// MySubmissions GET /my-submissions.
func (h *PagesHandler) MySubmissions(c *fiber.Ctx) error {
	if principalUser(c) == nil {
		return c.Redirect(auth.AccessDeniedPath, fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, pageData{
		Name:  "my-submissions",
		Title: "My submissions",
		User:  principalUser(c),
		Lines: []string{"Pending requests can still be edited or withdrawn."},
	})
}

// AccessDenied GET /access-denied.
func (h *PagesHandler) AccessDenied(c *fiber.Ctx) error {
	return render(c, fiber.StatusForbidden, pageData{
		Name:  "access-denied",
		Title: "Access Denied",
		Lines: []string{
			"This application can only be accessed through the authorized company portal.",
			"Please contact your system administrator if you believe this is an error.",
		},
	})
}

// AdminLogin GET /admin. Admins who already hold a session go straight to the dashboard.
func (h *PagesHandler) AdminLogin(c *fiber.Ctx) error {
	if h.auth.IsAdmin(c) {
		return c.Redirect(auth.AdminDashboardPath, fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, pageData{
		Name:       "admin-login",
		Title:      "Admin sign in",
		AdminLogin: true,
	})
}

// AdminDashboard GET /admin/dashboard.
func (h *PagesHandler) AdminDashboard(c *fiber.Ctx) error {
	if !h.auth.IsAdmin(c) {
		return c.Redirect(auth.AdminAccessDeniedPath, fiber.StatusFound)
	}
	return render(c, fiber.StatusOK, pageData{
		Name:  "admin-dashboard",
		Title: "Gift requests",
		Lines: []string{"Review, process or cancel submitted gift requests."},
	})
}

// AdminAccessDenied GET /admin/access-denied.
func (h *PagesHandler) AdminAccessDenied(c *fiber.Ctx) error {
	return render(c, fiber.StatusForbidden, pageData{
		Name:  "admin-access-denied",
		Title: "Admin access required",
		Lines: []string{"Sign in through the admin portal to continue."},
	})
}

func principalUser(c *fiber.Ctx) *domain.UserIdentity {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.User
	}
	return nil
}

func render(c *fiber.Ctx, status int, data pageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
