package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 30px;">
  <div style="max-width: 500px; margin: auto; background: #ffffff; padding: 25px; border-radius: 8px; text-align: center;">
    <h1 style="color: #333;">Email Verification</h1>
    <p style="color: #555; font-size: 16px;">Click the button below to verify your email</p>
    <a href="{{.Link}}" style="display: inline-block; margin-top: 20px; padding: 12px 20px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: bold;">Verify Email</a>
    <p style="margin-top: 20px; font-size: 12px; color: #999;">If you didn't request this, please ignore this email.</p>
  </div>
</div>
`))

var otpTemplate = template.Must(template.New("otp").Parse(`
<div style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 30px;">
  <div style="max-width: 500px; margin: auto; background: #ffffff; padding: 25px; border-radius: 8px; text-align: center;">
    <h1 style="color: #333;">Password Reset</h1>
    <p style="color: #555; font-size: 16px;">Your one-time password is</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold; color: #4f46e5;">{{.OTP}}</p>
    <p style="margin-top: 20px; font-size: 12px; color: #999;">It expires in 10 minutes. If you didn't request this, please ignore this email.</p>
  </div>
</div>
`))

// SMTPMailer implements Mailer over SMTP with gomail
type SMTPMailer struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	frontendURL string
	logger      *logrus.Logger
}

// NewSMTP creates an SMTP mailer. frontendURL is the base the verification
// link points at.
func NewSMTP(host string, port int, username, password, from, frontendURL string, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		from:        from,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// SendVerification mails the verification link asynchronously
func (m *SMTPMailer) SendVerification(email, token string) {
	link := fmt.Sprintf("%s/verify/%s", m.frontendURL, token)

	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		m.logger.WithError(err).Error("Failed to render verification mail")
		return
	}

	m.send(email, "Email Verification", body.String())
}

// SendOTP mails a password-reset OTP asynchronously
func (m *SMTPMailer) SendOTP(email, otp string) {
	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct{ OTP string }{OTP: otp}); err != nil {
		m.logger.WithError(err).Error("Failed to render OTP mail")
		return
	}

	m.send(email, "Password Reset OTP", body.String())
}

// send delivers in a goroutine so mail latency never delays a response
func (m *SMTPMailer) send(to, subject, htmlBody string) {
	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", htmlBody)

		dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
		if err := dialer.DialAndSend(msg); err != nil {
			m.logger.WithError(err).WithField("to", to).Error("Failed to send mail")
			return
		}
		m.logger.WithField("to", to).Debug("Mail sent")
	}()
}
