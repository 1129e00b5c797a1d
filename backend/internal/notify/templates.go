package notify

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

// Template names
const (
	TemplateOfferFirst              = "offer_first"
	TemplateOfferRecurring          = "offer_recurring"
	TemplateOfferRejected           = "offer_rejected"
	TemplateOfferCancelled          = "offer_cancelled"
	TemplateOfferCancelledLate      = "offer_cancelled_short_notice"
	TemplatePlacementAccepted       = "placement_accepted"
	TemplateGoingToWorkCheck        = "going_to_work_check"
	TemplateTimeSheetSubmitReminder = "timesheet_submit_reminder"
	TemplateTimeSheetApproved       = "timesheet_approved"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Mon 02 Jan") },
	"time": func(t time.Time) string { return t.Format("15:04") },
}

// Renderer turns a template name plus data into message text
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the built-in message templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("messages").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("notify: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("notify: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}
