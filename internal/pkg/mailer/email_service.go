package mailer

import (
	"fmt"
	"html"
	"net/url"

	"gopkg.in/gomail.v2"
)

// VerificationMail carries what the result email shows.
type VerificationMail struct {
	StudentName  string
	Code         string
	DocumentType string
	Institution  string
	Status       string
	Confidence   int
}

type IEmailService interface {
	SendVerificationResult(toEmail string, mail VerificationMail) error
	SendNotification(toEmail, title, message string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

// ResultLink points the student at the result page of one verification.
func ResultLink(clientURL, code string) string {
	return fmt.Sprintf("%s/verification-results?code=%s", clientURL, url.QueryEscape(code))
}

func (s *emailService) message(toEmail, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) SendVerificationResult(toEmail string, mail VerificationMail) error {
	link := ResultLink(s.clientURL, mail.Code)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your verification %s is %s</h2>
			<p>Hello %s,</p>
			<p>Your %s from %s has been processed with %d%% confidence.</p>
			<a href="%s" style="background-color: #1E3A8A; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Results</a>
			<p>Or copy this link:</p>
			<p>%s</p>
		</div>
	`,
		html.EscapeString(mail.Code), html.EscapeString(mail.Status),
		html.EscapeString(mail.StudentName),
		html.EscapeString(mail.DocumentType), html.EscapeString(mail.Institution), mail.Confidence,
		link, link)

	if err := s.dialer.DialAndSend(s.message(toEmail, "Verification "+mail.Code+" "+mail.Status, body)); err != nil {
		return fmt.Errorf("send verification result to %s: %w", toEmail, err)
	}
	return nil
}

func (s *emailService) SendNotification(toEmail, title, message string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>%s</p>
		</div>
	`, html.EscapeString(title), html.EscapeString(message))

	if err := s.dialer.DialAndSend(s.message(toEmail, title, body)); err != nil {
		return fmt.Errorf("send notification to %s: %w", toEmail, err)
	}
	return nil
}
