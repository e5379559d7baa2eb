package planner

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/assets"
	"github.com/fpang/creatia/internal/jsonutil"
)

// Thresholds of ValidateCompanyInfo.
const (
	MinCompanyInfoLength = 100
	MinKeyTerms          = 3
)

// KeyTerms are the words a usable company description mentions.
var KeyTerms = []string{"marca", "brand", "producto", "servicio", "cliente", "audiencia", "objetivo"}

// StrategyRequest is the input of the strategist.
type StrategyRequest struct {
	CompanyInfo   string `json:"company_info"`
	CampaignFocus string `json:"campaign_focus,omitempty"`
	MonthName     string `json:"month_name,omitempty"`
}

// Strategy is a monthly strategy plus the brand context later steps reuse.
type Strategy struct {
	MonthlyStrategy string `json:"monthly_strategy"`
	BrandContext    string `json:"brand_context"`
}

// Strategy writes a monthly strategy from a free-form company description.
func (p *Planner) Strategy(ctx context.Context, req StrategyRequest) (*Strategy, error) {
	if strings.TrimSpace(req.CompanyInfo) == "" {
		return nil, fmt.Errorf("company info must not be empty")
	}

	prompt := assets.RenderStrategistPrompt(assets.StrategistData{
		CompanyInfo:   req.CompanyInfo,
		CampaignFocus: req.CampaignFocus,
		MonthName:     req.MonthName,
	})

	log.Info().
		Int("company_info_length", utf8.RuneCountInString(req.CompanyInfo)).
		Bool("campaign_focus", req.CampaignFocus != "").
		Msg("Generating monthly strategy")

	reply, err := p.chat.CompleteJSON(ctx, ChatRequest{
		System:    assets.StrategistSystemPrompt,
		User:      prompt,
		MaxTokens: StrategyMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate strategy: %w", err)
	}

	s, err := jsonutil.ParseJSON[Strategy](reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse strategy: %w", err)
	}
	if strings.TrimSpace(s.MonthlyStrategy) == "" || strings.TrimSpace(s.BrandContext) == "" {
		return nil, fmt.Errorf("strategy reply is missing monthly_strategy or brand_context")
	}
	return &s, nil
}

// InfoCheck is the verdict of ValidateCompanyInfo.
type InfoCheck struct {
	Valid         bool     `json:"valid"`
	Message       string   `json:"message"`
	FoundElements []string `json:"found_elements,omitempty"`
	Length        int      `json:"length"`
}

// ValidateCompanyInfo reports whether info is rich enough for Strategy: at
// least MinCompanyInfoLength characters and MinKeyTerms of KeyTerms.
func ValidateCompanyInfo(info string) InfoCheck {
	check := InfoCheck{Length: utf8.RuneCountInString(info)}
	if utf8.RuneCountInString(strings.TrimSpace(info)) < MinCompanyInfoLength {
		check.Message = fmt.Sprintf("The company information is too short. It needs at least %d characters.", MinCompanyInfoLength)
		return check
	}

	lower := strings.ToLower(info)
	check.FoundElements = []string{}
	for _, term := range KeyTerms {
		if strings.Contains(lower, term) {
			check.FoundElements = append(check.FoundElements, term)
		}
	}
	if len(check.FoundElements) < MinKeyTerms {
		check.Message = "The company information looks incomplete. Describe the brand, products or services, audience and goals."
		return check
	}

	check.Valid = true
	check.Message = "The company information is enough to generate a strategy."
	return check
}
