package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/config"
)

//go:embed templates/*
var templateFS embed.FS

const (
	dialTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second
)

// EmailService defines the interface for sending emails
type EmailService interface {
	SendProjectInvitation(ctx context.Context, to, inviterEmail, projectName, inviteLink string) error
}

type transportFunc func(ctx context.Context, from, to string, msg []byte) error

type emailServiceImpl struct {
	cfg           config.SMTPConfig
	htmlTemplates *htmltemplate.Template
	textTemplates *texttemplate.Template
	transport     transportFunc
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	return newEmailService(cfg)
}

func newEmailService(cfg config.SMTPConfig) (*emailServiceImpl, error) {
	htmlTmpl, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html email templates: %w", err)
	}
	textTmpl, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text email templates: %w", err)
	}

	if !cfg.Configured() {
		slog.Warn("SMTP configuration missing. Emails will not be sent.")
	}

	s := &emailServiceImpl{
		cfg:           cfg,
		htmlTemplates: htmlTmpl,
		textTemplates: textTmpl,
	}
	s.transport = s.sendSMTP
	return s, nil
}

type projectInvitationData struct {
	InviterEmail string
	ProjectName  string
	InviteLink   string
}

// SendProjectInvitation delivers an invite link to the invitee. When SMTP is
// not configured the link is logged and nil is returned.
func (s *emailServiceImpl) SendProjectInvitation(ctx context.Context, to, inviterEmail, projectName, inviteLink string) error {
	if !s.cfg.Configured() {
		slog.WarnContext(ctx, "Email transport not configured, invite link not sent",
			"to", to,
			"invite_link", inviteLink,
		)
		return nil
	}

	data := projectInvitationData{
		InviterEmail: inviterEmail,
		ProjectName:  projectName,
		InviteLink:   inviteLink,
	}

	var htmlBody bytes.Buffer
	if err := s.htmlTemplates.ExecuteTemplate(&htmlBody, "project_invitation.html", data); err != nil {
		return fmt.Errorf("failed to execute html template: %w", err)
	}
	var textBody bytes.Buffer
	if err := s.textTemplates.ExecuteTemplate(&textBody, "project_invitation.txt", data); err != nil {
		return fmt.Errorf("failed to execute text template: %w", err)
	}

	subject := fmt.Sprintf("Invitation to collaborate on %s", projectName)
	msg, err := s.buildMessage(to, subject, textBody.String(), htmlBody.String())
	if err != nil {
		return err
	}

	if err := s.transport(ctx, s.cfg.From, to, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to send invite email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.InfoContext(ctx, "Email sent successfully", "to", to, "subject", subject)
	return nil
}

// buildMessage renders a multipart/alternative message with a plain text and
// an HTML part.
func (s *emailServiceImpl) buildMessage(to, subject, textBody, htmlBody string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{`text/plain; charset="UTF-8"`, textBody},
		{`text/html; charset="UTF-8"`, htmlBody},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create message part: %w", err)
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to encode message part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode message part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}

	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

// sendSMTP performs a single delivery attempt. Implicit TLS is used for
// SMTP_SECURE or port 465, STARTTLS otherwise when the server offers it.
func (s *emailServiceImpl) sendSMTP(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.ImplicitTLS() {
		dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: dialTimeout}, Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		dialer := &net.Dialer{Timeout: dialTimeout}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(sendTimeout)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !s.cfg.ImplicitTLS() {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	return client.Quit()
}
