package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/models"
)

type noticeTemplate struct {
	title string
	body  string
}

// noticeTemplates has one entry per event type; Renderer fails fast on a missing key.
var noticeTemplates = map[models.EventType]noticeTemplate{
	models.EventIncidentReported: {"New incident reported: {{.Record.ReportNumber}}",
		"Incident {{.Record.ReportNumber}} ({{.Record.Severity}}) was reported: {{.Record.Title}}. Investigation deadline {{.Deadline}}."},
	models.EventIncidentApproved: {"Incident approved: {{.Record.ReportNumber}}",
		"Incident {{.Record.ReportNumber}} was approved and is open for corrective actions."},
	models.EventIncidentRejected: {"Incident rejected: {{.Record.ReportNumber}}",
		"Incident {{.Record.ReportNumber}} was rejected. Remarks: {{.Record.ApprovalRemarks}}"},
	models.EventIncidentResolved: {"Incident resolved: {{.Record.ReportNumber}}",
		"All action items of incident {{.Record.ReportNumber}} are completed. It can now be closed."},
	models.EventIncidentClosed: {"Incident closed: {{.Record.ReportNumber}}",
		"Incident {{.Record.ReportNumber}} was closed."},
	models.EventIncidentOverdue: {"Incident overdue: {{.Record.ReportNumber}}",
		"Incident {{.Record.ReportNumber}} passed its deadline {{.Deadline}} and is still {{.Record.Status}}."},

	models.EventHazardReported: {"New hazard reported: {{.Record.ReportNumber}}",
		"Hazard {{.Record.ReportNumber}} ({{.Record.Severity}}) was reported: {{.Record.Title}}. Action deadline {{.Deadline}}."},
	models.EventHazardApproved: {"Hazard approved: {{.Record.ReportNumber}}",
		"Hazard {{.Record.ReportNumber}} was approved and is open for corrective actions."},
	models.EventHazardRejected: {"Hazard rejected: {{.Record.ReportNumber}}",
		"Hazard {{.Record.ReportNumber}} was rejected. Remarks: {{.Record.ApprovalRemarks}}"},
	models.EventHazardResolved: {"Hazard resolved: {{.Record.ReportNumber}}",
		"All action items of hazard {{.Record.ReportNumber}} are completed. It can now be closed."},
	models.EventHazardClosed: {"Hazard closed: {{.Record.ReportNumber}}",
		"Hazard {{.Record.ReportNumber}} was closed."},
	models.EventHazardOverdue: {"Hazard overdue: {{.Record.ReportNumber}}",
		"Hazard {{.Record.ReportNumber}} passed its deadline {{.Deadline}} and is still {{.Record.Status}}."},

	models.EventActionItemAssigned: {"Action item assigned on {{.Record.ReportNumber}}",
		"A corrective action was added to {{.Record.ReportNumber}}: {{.Item.Description}} (target {{.TargetDate}})."},
	models.EventActionItemCompleted: {"Action item completed on {{.Record.ReportNumber}}",
		"Corrective action completed on {{.Record.ReportNumber}}: {{.Item.Description}}."},
}

const htmlLayout = `<p>{{.Body}}</p><p style="color:#666">Report {{.ReportNumber}}</p>`

// Rendered is the complete content of one notice
type Rendered struct {
	Title    string
	Body     string
	HTMLBody string
}

// Renderer turns notices into titles and bodies
type Renderer struct {
	titles map[models.EventType]*template.Template
	bodies map[models.EventType]*template.Template
	html   *htmltemplate.Template
}

// NewRenderer parses every notice template
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		titles: make(map[models.EventType]*template.Template, len(noticeTemplates)),
		bodies: make(map[models.EventType]*template.Template, len(noticeTemplates)),
	}
	for ev, nt := range noticeTemplates {
		title, err := template.New(string(ev) + "_title").Option("missingkey=error").Parse(nt.title)
		if err != nil {
			return nil, fmt.Errorf("parse title for %s: %w", ev, err)
		}
		body, err := template.New(string(ev) + "_body").Option("missingkey=error").Parse(nt.body)
		if err != nil {
			return nil, fmt.Errorf("parse body for %s: %w", ev, err)
		}
		r.titles[ev] = title
		r.bodies[ev] = body
	}
	html, err := htmltemplate.New("layout").Parse(htmlLayout)
	if err != nil {
		return nil, fmt.Errorf("parse html layout: %w", err)
	}
	r.html = html
	return r, nil
}

type noticeView struct {
	Record     *models.Record
	Item       *models.ActionItem
	Deadline   string
	TargetDate string
}

// Render produces the full content of a notice or an error; partial output is never returned
func (r *Renderer) Render(n models.Notice) (Rendered, error) {
	title, ok := r.titles[n.Type]
	if !ok {
		return Rendered{}, fmt.Errorf("no template for event %s", n.Type)
	}
	if n.Record == nil {
		return Rendered{}, fmt.Errorf("notice %s has no record", n.Type)
	}
	view := noticeView{Record: n.Record, Item: n.Item, Deadline: lifecycle.DateString(n.Record.Deadline)}
	if n.Item != nil {
		view.TargetDate = lifecycle.DateString(n.Item.TargetDate)
	} else {
		view.Item = &models.ActionItem{}
	}

	var tb, bb, hb bytes.Buffer
	if err := title.Execute(&tb, view); err != nil {
		return Rendered{}, fmt.Errorf("render title: %w", err)
	}
	if err := r.bodies[n.Type].Execute(&bb, view); err != nil {
		return Rendered{}, fmt.Errorf("render body: %w", err)
	}
	if err := r.html.Execute(&hb, map[string]string{
		"Body":         bb.String(),
		"ReportNumber": n.Record.ReportNumber,
	}); err != nil {
		return Rendered{}, fmt.Errorf("render html: %w", err)
	}
	return Rendered{Title: tb.String(), Body: bb.String(), HTMLBody: hb.String()}, nil
}
