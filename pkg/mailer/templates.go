package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const welcomeTpl = `<html><body>
<p>Hi {{.FullName}},</p>
<p>Your account <strong>@{{.Username}}</strong> is ready. You can sign in with your
username or email address.</p>
<p>— The Vidora team</p>
</body></html>`

var templates = map[string]*template.Template{
	"welcome": template.Must(template.New("welcome").Parse(welcomeTpl)),
}

var subjects = map[string]string{
	"welcome": "Welcome to Vidora",
}

// Render returns subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subjects[name], buf.String(), nil
}
