package notification

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"log/slog"

	"bizdir/internal/domain/service"

	"github.com/pkg/errors"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body>
	<h2>Welcome, {{.PartnerName}}!</h2>
	<p>Your business <strong>{{.BusinessName}}</strong> has been approved and is now listed on the {{.PlanType}} plan
	(up to {{.MaxCoupons}} coupons and {{.MaxPhotos}} photos).</p>
	{{- if .IdentityCreated}}
	<p>Sign in with the following credentials and change your password after the first login:</p>
	<ul>
		<li>Email: {{.To}}</li>
		<li>Temporary password: <code>{{.Password}}</code></li>
	</ul>
	{{- else}}
	<p>Sign in with your existing account ({{.To}}); your password has not changed.</p>
	{{- end}}
	<p><a href="{{.LoginURL}}">Open the partner portal</a></p>
	{{- with .QRCode}}
	<p><img src="{{.}}" alt="Login QR code" width="160" height="160"></p>
	{{- end}}
</body>
</html>`))

type welcomeView struct {
	service.WelcomeEmail
	QRCode template.URL
}

// welcomeRenderer renders the partner welcome email with an inline QR code of the login URL.
type welcomeRenderer struct {
	qr     service.QRCodeService
	logger *slog.Logger
}

// NewWelcomeRenderer is the constructor for welcomeRenderer.
func NewWelcomeRenderer(qr service.QRCodeService, logger *slog.Logger) service.WelcomeRenderer {
	return &welcomeRenderer{qr: qr, logger: logger}
}

func (r *welcomeRenderer) RenderWelcome(email service.WelcomeEmail) (string, string, error) {
	view := welcomeView{WelcomeEmail: email}

	// The QR code is decoration; the mail goes out without it.
	if r.qr != nil && email.LoginURL != "" {
		png, err := r.qr.GenerateLoginQR(email.LoginURL)
		if err != nil {
			r.logger.Warn("Failed to render login QR code", slog.Any("error", err))
		} else {
			view.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
	}

	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, view); err != nil {
		return "", "", errors.Wrap(err, "failed to render welcome email")
	}

	return "Your business " + email.BusinessName + " is approved", buf.String(), nil
}
