package mails

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/mail"
	"time"

	gomail "github.com/go-mail/mail/v2"
	gobreaker "github.com/sony/gobreaker/v2"
)

//go:embed "templates"
var templateFS embed.FS

const retryDelay = 500 * time.Millisecond

// Mailer delivers templated mails over SMTP.
type Mailer struct {
	Dialer       *gomail.Dialer
	Sender       string
	RetriesCount int
}

func New(host string, port int, timeout time.Duration, username, password, sender string, retriesCount int) *Mailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.Timeout = timeout
	return &Mailer{
		Dialer:       dialer,
		Sender:       sender,
		RetriesCount: max(retriesCount, 1),
	}
}

// parseEmailTmpl renders the subject, plainBody and htmlBody blocks of tmplName.
func parseEmailTmpl(tmplName string, tmplData any) (map[string]string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		return nil, err
	}
	tmplPartials := map[string]string{
		"subject":   "",
		"plainBody": "",
		"htmlBody":  "",
	}
	for key := range tmplPartials {
		buff := new(bytes.Buffer)
		if err = tmpl.ExecuteTemplate(buff, key, tmplData); err != nil {
			return nil, err
		}
		tmplPartials[key] = buff.String()
	}
	return tmplPartials, nil
}

func (m *Mailer) Send(recipient string, tmplName string, tmplData any) error {
	tmplPartials, err := parseEmailTmpl(tmplName, tmplData)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("Subject", tmplPartials["subject"])
	msg.SetBody("text/plain", tmplPartials["plainBody"])
	msg.AddAlternative("text/html", tmplPartials["htmlBody"])
	for i := 0; i < m.RetriesCount; i++ {
		err = m.Dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
		time.Sleep(retryDelay)
	}
	return err
}

// ApiMailer delivers templated mails through an HTTP sending API
// accepting a JSON payload and a bearer token.
type ApiMailer struct {
	URL          string
	ApiToken     string
	Sender       string
	RetriesCount int
	Client       *http.Client
	// Breaker, when set, stops calls to the API after repeated failures.
	Breaker *gobreaker.CircuitBreaker[struct{}]
}

const breakerFailures = 5

func NewApiMailer(url, apiToken, sender string, retriesCount int) *ApiMailer {
	return &ApiMailer{
		URL:          url,
		ApiToken:     apiToken,
		Sender:       sender,
		RetriesCount: retriesCount,
		Breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "mail-api",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
		}),
	}
}

func (m *ApiMailer) Send(recipient string, tmplName string, tmplData any) error {
	tmplPartials, err := parseEmailTmpl(tmplName, tmplData)
	if err != nil {
		return err
	}
	from, err := mail.ParseAddress(m.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.Sender, err)
	}
	payload, err := json.Marshal(map[string]any{
		"from":    map[string]string{"email": from.Address, "name": from.Name},
		"to":      []map[string]string{{"email": recipient}},
		"subject": tmplPartials["subject"],
		"text":    tmplPartials["plainBody"],
		"html":    tmplPartials["htmlBody"],
	})
	if err != nil {
		return err
	}
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	for i := 0; i < max(m.RetriesCount, 1); i++ {
		if i > 0 {
			time.Sleep(retryDelay)
		}
		err = m.attempt(client, payload)
		if err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			return err
		}
	}
	return err
}

func (m *ApiMailer) attempt(client *http.Client, payload []byte) error {
	if m.Breaker == nil {
		return m.post(client, payload)
	}
	_, err := m.Breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.post(client, payload)
	})
	return err
}

func (m *ApiMailer) post(client *http.Client, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, m.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.ApiToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var bodyParsed map[string]any
	if err := json.Unmarshal(body, &bodyParsed); err == nil {
		if apiErrs, ok := bodyParsed["errors"]; ok {
			return fmt.Errorf("failed to send email: %v", apiErrs)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}
	return nil
}
