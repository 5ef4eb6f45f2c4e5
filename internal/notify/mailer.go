package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/wneessen/go-mail"

	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

const verificationSubject = "Verify email"

const textTemplate = `Hi {{.Email}},

Confirm your email, please open the link {{.Link}}

If you did not create an account, you can ignore this email.
`

const htmlTemplate = `<p>Hi {{.Email}},</p>
<p><a target="_blank" href="{{.Link}}">Confirm your email</a></p>
`

// sender is satisfied by *mail.Client.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

type templateData struct {
	Email string
	Link  string
}

var _ model.Notifier = (*Mailer)(nil)

// Mailer sends verification emails over SMTP.
type Mailer struct {
	sender  sender
	from    string
	baseURL string
	text    *template.Template
	html    *htmltemplate.Template
	logger  *logger.Logger
}

// NewMailer builds an SMTP client from cfg.
func NewMailer(cfg SMTPConfig, logger *logger.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newMailer(client, cfg.From, cfg.BaseURL, logger), nil
}

func newMailer(s sender, from, baseURL string, logger *logger.Logger) *Mailer {
	return &Mailer{
		sender:  s,
		from:    from,
		baseURL: baseURL,
		text:    template.Must(template.New("text").Parse(textTemplate)),
		html:    htmltemplate.Must(htmltemplate.New("html").Parse(htmlTemplate)),
		logger:  logger,
	}
}

// SendVerification mails the verification link for token to email.
func (m *Mailer) SendVerification(ctx context.Context, email, token string) error {
	text, html, err := m.render(email, token)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	msg.Subject(verificationSubject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	m.logger.Debug("Mailer: verification email sent", "email", email)
	return nil
}

func (m *Mailer) render(email, token string) (string, string, error) {
	data := templateData{Email: email, Link: VerificationLink(m.baseURL, token)}

	var text, html bytes.Buffer
	if err := m.text.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}
	if err := m.html.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("failed to render html body: %w", err)
	}
	return text.String(), html.String(), nil
}
