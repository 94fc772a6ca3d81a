// Package notify sends installation reports to a webhook
package notify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/template"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
)

const reportTmpl = `autoinst {{if .Failed}}failed{{else}}completed{{end}} on {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}
source: {{.Source}}
directory: {{.Dir}}
{{- if .Version}}
version: {{.Version}}
{{- end}}
{{- if .Python}}
python: {{.Python}}
{{- end}}
{{- if .Failed}}
error: {{.Error}}
{{- end}}
`

// Params for the service
type Params struct {
	Webhook string
	Headers []string
	Timeout time.Duration
}

// Report describes an installer run
type Report struct {
	Source  string
	Dir     string
	Version string
	Python  string
	Err     error
}

// Service delivers reports to the webhook
type Service struct {
	destinations []notify.Notifier
	webhook      string
	host         string
}

// NewService makes notification service, returns nil if no webhook set
func NewService(p Params) *Service {
	if p.Webhook == "" {
		return nil
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	log.Printf("[DEBUG] webhook notifications enabled")
	wh := notify.NewWebhook(notify.WebhookParams{Timeout: p.Timeout, Headers: p.Headers})
	return &Service{destinations: []notify.Notifier{wh}, webhook: p.Webhook, host: host}
}

// Send report to the webhook
func (s *Service) Send(ctx context.Context, r Report) error {
	text, err := s.MakeReport(r)
	if err != nil {
		return err
	}
	if err := notify.Send(ctx, s.destinations, s.webhook, text); err != nil {
		return fmt.Errorf("can't send report: %w", err)
	}
	return nil
}

// MakeReport renders report text
func (s *Service) MakeReport(r Report) (string, error) {
	data := struct {
		Report
		Failed bool
		Error  string
		Host   string
		TS     time.Time
	}{Report: r, Failed: r.Err != nil, Host: s.host, TS: time.Now()}
	if r.Err != nil {
		data.Error = r.Err.Error()
	}

	t, err := template.New("report").Parse(reportTmpl)
	if err != nil {
		return "", fmt.Errorf("can't parse report template: %w", err)
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}
