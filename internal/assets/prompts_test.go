package assets

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBrandIdentityIsJSON(t *testing.T) {
	var v map[string]any
	if err := json.Unmarshal([]byte(BrandIdentity), &v); err != nil {
		t.Fatalf("brand identity is not valid JSON: %v", err)
	}
	if _, ok := v["brandIdentity"]; !ok {
		t.Error("missing brandIdentity key")
	}
}

func TestBrandPrompt(t *testing.T) {
	got := BrandPrompt("Poster for the Rosario hackathon")

	if !strings.HasPrefix(got, "Poster for the Rosario hackathon\n") {
		t.Errorf("user input should come first, got %q", got[:40])
	}
	if !strings.Contains(got, `"tagline": "Impulsando el futuro, hoy."`) {
		t.Error("brand guide missing from prompt")
	}
	if strings.Contains(got, "&#") || strings.Contains(got, "&quot;") {
		t.Error("prompt must not be HTML-escaped")
	}
}

func TestRenderWeeklyPlannerPrompt(t *testing.T) {
	got := RenderWeeklyPlannerPrompt(WeeklyPlannerData{
		HighLevel:    "Launch week for the Mendoza edition",
		BrandContext: "AI Weekend, bold and playful",
		Resources:    []string{"resources_content/avatars/mascot.webp", "resources_content/images/venue.jpg"},
		Days:         []string{"lunes", "martes"},
	})

	for _, want := range []string{
		"Launch week for the Mendoza edition",
		"BRAND CONTEXT:\nAI Weekend, bold and playful",
		"- resources_content/avatars/mascot.webp\n",
		"- resources_content/images/venue.jpg\n",
		`"lunes": {`,
		`"martes": {`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	noBrand := RenderWeeklyPlannerPrompt(WeeklyPlannerData{HighLevel: "x", Days: []string{"lunes"}})
	if strings.Contains(noBrand, "BRAND CONTEXT") {
		t.Error("brand section should be omitted when empty")
	}
}

func TestRenderMonthlyPlannerPrompt(t *testing.T) {
	got := RenderMonthlyPlannerPrompt(MonthlyPlannerData{
		Strategy:  "Sell out the Córdoba edition",
		MonthName: "septiembre",
		Weeks:     []string{"semana_1", "semana_2"},
	})

	for _, want := range []string{
		"MONTHLY STRATEGY FOR septiembre:\nSell out the Córdoba edition",
		"into 2 coherent",
		`"semana_1": {`,
		`"week_number": 1,`,
		`"semana_2": {`,
		`"week_number": 2,`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "BRAND CONTEXT") {
		t.Error("brand section should be omitted when empty")
	}
}

func TestRenderStrategistPrompt(t *testing.T) {
	got := RenderStrategistPrompt(StrategistData{
		CompanyInfo:   "AI Weekend runs hackathons across Argentina",
		CampaignFocus: "Student ambassadors",
	})

	for _, want := range []string{
		"COMPANY INFORMATION:\nAI Weekend runs hackathons across Argentina",
		"CAMPAIGN FOCUS:\nStudent ambassadors",
		`"brand_context"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "monthly strategy for") {
		t.Error("month clause should be omitted when no month is given")
	}
}
