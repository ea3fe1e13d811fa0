package notifier

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
)

// SMTPMailer delivers seller notifications over SMTP
type SMTPMailer struct {
	cfg *config.Config
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTP.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.cfg.SMTP.Host, m.cfg.SMTP.Port, m.cfg.SMTP.Username, m.cfg.SMTP.Password)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	return d.DialAndSend(msg)
}

// SendReviewNotification tells a seller that one of their products
// received a new review
func (m *SMTPMailer) SendReviewNotification(to, storeName string, rating int) error {
	subject := "Your product received a new review"
	body := fmt.Sprintf(`
		<h2>New Review</h2>
		<p>Hello %s,</p>
		<p>A customer just left a <strong>%d-star</strong> review on one of your products.</p>
		<p>Log in to your seller dashboard to read it and respond.</p>
		<p>Best regards,<br>The Marketplace Team</p>
	`, storeName, rating)

	return m.send(to, subject, body)
}
