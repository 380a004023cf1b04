// send.go
package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/jordan-wright/email"

	"superstore-dashboard/src/config"
)

// SendReport mails the formatted summary text, attaching the report
// workbook when the file exists.
func SendReport(cfg *config.Config, body, attachmentPath string) error {
	from := cfg.SendEmail.Username
	if from == "" || len(cfg.SendEmail.To) == 0 {
		return fmt.Errorf("report mail is not configured")
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("Superstore Dashboard <%s>", from)
	e.To = cfg.SendEmail.To
	e.Subject = cfg.SendEmail.Subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := os.Stat(attachmentPath); err == nil {
			if _, err := e.AttachFile(attachmentPath); err != nil {
				return fmt.Errorf("failed to attach report workbook: %w", err)
			}
		}
	}

	smtpAddr := cfg.SendEmail.Server
	if !strings.Contains(smtpAddr, ":") {
		smtpAddr += ":465" // default SSL port
	}
	host := strings.Split(smtpAddr, ":")[0]

	err := e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", from, cfg.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return fmt.Errorf("failed to send report mail via %s: %w", smtpAddr, err)
	}
	return nil
}
