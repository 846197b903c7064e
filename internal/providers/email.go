package providers

import (
	"fmt"
	"net/smtp"
	"time"

	"solar-analytics/internal/config"
	"solar-analytics/internal/models"
)

// SendEmail mails an alert to the configured operator address.
func SendEmail(alert models.Alert, cfg config.Config) error {
	smtpServer := cfg.Email.SMTPServer
	smtpPort := cfg.Email.SMTPPort
	username := cfg.Email.Username
	password := cfg.Email.Password
	recipient := cfg.Email.Recipient

	if smtpServer == "" || smtpPort == 0 || username == "" || password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}
	if recipient == "" {
		return fmt.Errorf("missing EMAIL_RECIPIENT")
	}

	subject := fmt.Sprintf("[%s] %s alert", alert.Severity, alert.Type)
	body := fmt.Sprintf("%s\n\nEvent: %s\nThreshold: %.2f\nValue: %.2f",
		alert.Message,
		alert.EventTime.Format(time.RFC3339),
		alert.ThresholdValue,
		alert.ActualValue,
	)
	message := fmt.Sprintf("Subject: %s\n\n%s", subject, body)

	auth := smtp.PlainAuth("", username, password, smtpServer)
	to := []string{recipient}
	addr := fmt.Sprintf("%s:%d", smtpServer, smtpPort)

	err := smtp.SendMail(addr, auth, username, to, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	return nil
}
