package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendOTP(toEmail, otp string) error
	SendSessionResults(toEmail, sessionTitle string, winners []ResultLine) error
}

// ResultLine is one winner row in the results mail.
type ResultLine struct {
	Title    string
	YesVotes int
	NoVotes  int
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendOTP(toEmail, otp string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Verification Code")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to Agora!</h2>
			<p>Your verification code is:</p>
			<h1 style="color: #4CAF50; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in 15 minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, otp)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendSessionResults(toEmail, sessionTitle string, winners []ResultLine) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Results: %s", sessionTitle))

	var rows strings.Builder
	if len(winners) == 0 {
		rows.WriteString("<p>No proposal reached a majority this time.</p>")
	} else {
		rows.WriteString("<ul>")
		for _, w := range winners {
			rows.WriteString(fmt.Sprintf("<li><b>%s</b> &mdash; %d yes / %d no</li>", w.Title, w.YesVotes, w.NoVotes))
		}
		rows.WriteString("</ul>")
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>The session "%s" has closed</h2>
			%s
			<p>Thank you for participating.</p>
		</div>
	`, sessionTitle, rows.String())
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}
