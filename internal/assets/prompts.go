// Package assets provides embedded prompt templates.
//
// Templates are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed prompts
var promptFS embed.FS

// BrandIdentity is the AI Weekend brand guide, as JSON.
//
//go:embed prompts/brand-identity.json
var BrandIdentity string

// WeeklyPlannerSystemPrompt is the system message of the weekly planner.
//
//go:embed prompts/weekly-planner-system.txt
var WeeklyPlannerSystemPrompt string

// MonthlyPlannerSystemPrompt is the system message of the monthly planner.
//
//go:embed prompts/monthly-planner-system.txt
var MonthlyPlannerSystemPrompt string

// StrategistSystemPrompt is the system message of the strategist.
//
//go:embed prompts/strategist-system.txt
var StrategistSystemPrompt string

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	brandImageTmpl    = template.Must(template.ParseFS(promptFS, "prompts/brand-image.txt"))
	weeklyPlannerTmpl = template.Must(template.ParseFS(promptFS, "prompts/weekly-planner.txt"))
	strategistTmpl    = template.Must(template.ParseFS(promptFS, "prompts/strategist.txt"))
)

var monthlyPlannerTmpl = template.Must(template.New("monthly-planner.txt").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(promptFS, "prompts/monthly-planner.txt"))

// BrandPrompt places the user's request ahead of the brand guide.
func BrandPrompt(userInput string) string {
	return render(brandImageTmpl, struct {
		UserInput string
		Brand     string
	}{userInput, BrandIdentity})
}

// WeeklyPlannerData is the input of the weekly planner prompt.
type WeeklyPlannerData struct {
	HighLevel    string
	BrandContext string
	Resources    []string
	// Days are the JSON keys the model must fill, in order.
	Days []string
}

// RenderWeeklyPlannerPrompt renders the user message of the weekly planner.
func RenderWeeklyPlannerPrompt(d WeeklyPlannerData) string {
	return render(weeklyPlannerTmpl, d)
}

// MonthlyPlannerData is the input of the monthly planner prompt.
type MonthlyPlannerData struct {
	Strategy     string
	BrandContext string
	MonthName    string
	// Weeks are the JSON keys the model must fill, in order.
	Weeks []string
}

// RenderMonthlyPlannerPrompt renders the user message of the monthly planner.
func RenderMonthlyPlannerPrompt(d MonthlyPlannerData) string {
	return render(monthlyPlannerTmpl, d)
}

// StrategistData is the input of the strategist prompt.
type StrategistData struct {
	CompanyInfo   string
	CampaignFocus string
	MonthName     string
}

// RenderStrategistPrompt renders the user message of the strategist.
func RenderStrategistPrompt(d StrategistData) string {
	return render(strategistTmpl, d)
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Execution errors are not expected with these templates; return
	// whatever was rendered.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
