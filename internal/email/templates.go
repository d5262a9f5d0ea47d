package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

// StageData carries the lead attributes available to stage templates.
type StageData struct {
	FirstName        string
	Company          string
	FacilitySize     int
	ProjectedSavings int64
	Score            int
	Tier             string
	DemoURL          string
}

type stageEmailData struct {
	baseEmailData
	FirstName        string
	Company          string
	FacilitySize     int
	SavingsFormatted string
	Score            int
	Tier             string
}

type salesAlertEmailData struct {
	baseEmailData
	Email            string
	Company          string
	Track            string
	Reason           string
	Score            int
	Tier             string
	SavingsFormatted string
}

// Renderer produces subject and HTML body for a stage template id.
// Rendering is pure: same template id and data always yield the same output.
type Renderer struct {
	demoURL string
}

// NewRenderer creates a renderer. demoURL is the demo booking link injected
// into every call-to-action.
func NewRenderer(demoURL string) *Renderer {
	return &Renderer{demoURL: demoURL}
}

// RenderStage renders the stage email for the given template id.
// An unknown template id is a configuration error, reported before any send.
func (r *Renderer) RenderStage(templateID string, data StageData) (subject, html string, err error) {
	subject, ok := stageSubjects[templateID]
	if !ok {
		return "", "", fmt.Errorf("unknown stage template %q", templateID)
	}

	ctaURL := data.DemoURL
	if ctaURL == "" {
		ctaURL = r.demoURL
	}

	html, err = renderEmailTemplate(templateID+".html", stageEmailData{
		baseEmailData: baseEmailData{
			Title:    subject,
			Heading:  subject,
			CTALabel: "Book a demo",
			CTAURL:   ctaURL,
		},
		FirstName:        data.FirstName,
		Company:          data.Company,
		FacilitySize:     data.FacilitySize,
		SavingsFormatted: formatCurrencyUSD(data.ProjectedSavings),
		Score:            data.Score,
		Tier:             data.Tier,
	})
	if err != nil {
		return "", "", err
	}

	return subject, html, nil
}

// SalesAlertData carries the fields for an internal sales alert.
type SalesAlertData struct {
	Email            string
	Company          string
	Track            string
	Reason           string
	Score            int
	Tier             string
	ProjectedSavings int64
}

// RenderSalesAlert renders the internal hot-lead alert email.
func (r *Renderer) RenderSalesAlert(data SalesAlertData) (subject, html string, err error) {
	subject = fmt.Sprintf(subjectSalesAlertFmt, data.Email)
	html, err = renderEmailTemplate("sales_alert.html", salesAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: "Lead ready for outreach",
		},
		Email:            data.Email,
		Company:          data.Company,
		Track:            data.Track,
		Reason:           data.Reason,
		Score:            data.Score,
		Tier:             data.Tier,
		SavingsFormatted: formatCurrencyUSD(data.ProjectedSavings),
	})
	if err != nil {
		return "", "", err
	}
	return subject, html, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(dollars int64) string {
	return fmt.Sprintf("$%d", dollars)
}
