package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"eventhub/internal/models"
)

// EmailConfig represents email service configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	BaseURL      string
	ResetTTL     time.Duration
}

// emailTemplate renders one message as both HTML and plain text
type emailTemplate struct {
	subject string
	html    *template.Template
	text    *texttemplate.Template
}

// EmailService sends transactional email over SMTP
type EmailService struct {
	config    EmailConfig
	templates map[string]*emailTemplate
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new SMTP email service
func NewEmailService(config EmailConfig) *EmailService {
	if config.FromName == "" {
		config.FromName = "EventHub"
	}
	if config.ResetTTL <= 0 {
		config.ResetTTL = time.Hour
	}
	return &EmailService{
		config:    config,
		templates: defaultEmailTemplates(),
		sendMail:  smtp.SendMail,
	}
}

type welcomeData struct {
	Name      string
	LoginLink string
}

type passwordResetData struct {
	Name      string
	ResetLink string
	ExpiresIn string
}

type bookingConfirmationData struct {
	Name       string
	Booking    *models.Booking
	EventTitle string
	EventDate  string
	TotalPrice string
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(to, name string) error {
	return s.send("welcome", to, welcomeData{
		Name:      name,
		LoginLink: s.link("/login", nil),
	})
}

// SendPasswordResetEmail sends the one-time reset link
func (s *EmailService) SendPasswordResetEmail(to, name, token string) error {
	return s.send("password_reset", to, passwordResetData{
		Name:      name,
		ResetLink: s.link("/reset-password", url.Values{"token": {token}}),
		ExpiresIn: s.config.ResetTTL.String(),
	})
}

// SendBookingConfirmation confirms a new booking
func (s *EmailService) SendBookingConfirmation(to, name string, booking *models.Booking) error {
	data := bookingConfirmationData{
		Name:       name,
		Booking:    booking,
		EventTitle: fmt.Sprintf("event #%d", booking.EventID),
		TotalPrice: strconv.FormatFloat(booking.TotalPrice, 'f', 2, 64),
	}
	if booking.Event != nil {
		data.EventTitle = booking.Event.Title
		data.EventDate = booking.Event.Date.Format("Monday, January 2, 2006 at 3:04 PM")
	}
	return s.send("booking_confirmation", to, data)
}

func (s *EmailService) link(path string, query url.Values) string {
	link := strings.TrimRight(s.config.BaseURL, "/") + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return link
}

func (s *EmailService) send(templateName, to string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template %s not found", templateName)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, data); err != nil {
		return fmt.Errorf("failed to render text template: %w", err)
	}

	message := s.createMIMEMessage(to, tmpl.subject, htmlBuf.String(), textBuf.String())

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.FromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// createMIMEMessage builds a multipart/alternative message with text and HTML parts
func (s *EmailService) createMIMEMessage(to, subject, htmlBody, textBody string) string {
	boundary := fmt.Sprintf("eventhub-%d", time.Now().UnixNano())

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.String()
}

func defaultEmailTemplates() map[string]*emailTemplate {
	parse := func(name, subject, html, text string) *emailTemplate {
		return &emailTemplate{
			subject: subject,
			html:    template.Must(template.New(name).Parse(html)),
			text:    texttemplate.Must(texttemplate.New(name).Parse(text)),
		}
	}

	return map[string]*emailTemplate{
		"welcome": parse("welcome", "Welcome to EventHub",
			`<p>Hi {{.Name}},</p>
<p>Your account is ready. <a href="{{.LoginLink}}">Sign in</a> to browse and book events.</p>`,
			`Hi {{.Name}},

Your account is ready. Sign in at {{.LoginLink}} to browse and book events.
`),
		"password_reset": parse("password_reset", "Reset your EventHub password",
			`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. <a href="{{.ResetLink}}">Choose a new password</a>.</p>
<p>The link expires in {{.ExpiresIn}}. If you did not ask for this, ignore this email.</p>`,
			`Hi {{.Name}},

We received a request to reset your password. Choose a new one here:
{{.ResetLink}}

The link expires in {{.ExpiresIn}}. If you did not ask for this, ignore this email.
`),
		"booking_confirmation": parse("booking_confirmation", "Your EventHub booking is confirmed",
			`<p>Hi {{.Name}},</p>
<p>Booking #{{.Booking.ID}} for <strong>{{.EventTitle}}</strong> is confirmed.</p>
<ul>
<li>Tickets: {{.Booking.Quantity}}</li>
<li>Total: {{.TotalPrice}}</li>{{if .EventDate}}
<li>Date: {{.EventDate}}</li>{{end}}
</ul>`,
			`Hi {{.Name}},

Booking #{{.Booking.ID}} for {{.EventTitle}} is confirmed.
Tickets: {{.Booking.Quantity}}
Total: {{.TotalPrice}}
{{if .EventDate}}Date: {{.EventDate}}
{{end}}`),
	}
}
