package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *Client
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *Client) *Handlers {
	return &Handlers{client: client}
}

// HandleGetRiskAssessment evaluates a citizen's risk.
func (h *Handlers) HandleGetRiskAssessment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	citizenID := req.GetString("citizen_id", "")
	if citizenID == "" {
		return mcp.NewToolResultError("citizen_id is required"), nil
	}

	raw, err := h.client.GetRiskAssessment(ctx, citizenID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to assess citizen: %v", err)), nil
	}

	text, err := formatAssessment(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleExecuteAction submits an action decision.
func (h *Handlers) HandleExecuteAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actionType := req.GetString("action_type", "")
	if actionType == "" {
		return mcp.NewToolResultError("action_type is required"), nil
	}

	target := map[string]any{}
	if v := req.GetString("citizen_id", ""); v != "" {
		target["citizenId"] = v
	}
	if v := req.GetString("neighborhood", ""); v != "" {
		target["neighborhood"] = v
	}
	if v := req.GetString("channel_id", ""); v != "" {
		target["channelId"] = v
	}
	if v := req.GetString("protest_id", ""); v != "" {
		target["protestId"] = v
	}
	if len(target) != 1 {
		return mcp.NewToolResultError("provide exactly one target field: citizen_id, neighborhood, channel_id, or protest_id"), nil
	}

	body := map[string]any{
		"operatorId":          h.client.cfg.OperatorID,
		"actionType":          actionType,
		"justification":       req.GetString("justification", ""),
		"decisionTimeSeconds": req.GetFloat("decision_time_seconds", 0),
		"target":              target,
	}

	raw, err := h.client.ExecuteAction(ctx, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Action failed: %v", err)), nil
	}

	text, err := formatActionResult(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse result: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleSubmitNoAction files an explicit refusal.
func (h *Handlers) HandleSubmitNoAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	citizenID := req.GetString("citizen_id", "")
	if citizenID == "" {
		return mcp.NewToolResultError("citizen_id is required"), nil
	}

	raw, err := h.client.SubmitNoAction(ctx, citizenID,
		req.GetString("justification", ""),
		req.GetFloat("decision_time_seconds", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to file no-action: %v", err)), nil
	}

	var resp struct {
		ReluctanceDelta int `json:"reluctanceDelta"`
		Reluctance      int `json:"reluctance"`
		Warning         *struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"warning"`
		Termination *struct {
			Message string `json:"message"`
		} `json:"terminationDecision"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse result: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "No-action filed for %s.\n", citizenID)
	fmt.Fprintf(&sb, "Reluctance: %d (%+d)\n", resp.Reluctance, resp.ReluctanceDelta)
	if resp.Warning != nil {
		fmt.Fprintf(&sb, "\nWARNING [%s]: %s\n", resp.Warning.Level, resp.Warning.Message)
	}
	if resp.Termination != nil {
		fmt.Fprintf(&sb, "\nTERMINATION: %s\n", resp.Termination.Message)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetStanding reports the operator's metrics.
func (h *Handlers) HandleGetStanding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetOperatorMetrics(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load standing: %v", err)), nil
	}

	var resp struct {
		Week    int `json:"week"`
		Opinion struct {
			InternationalAwareness int `json:"internationalAwareness"`
			PublicAnger            int `json:"publicAnger"`
			AwarenessTier          int `json:"awarenessTier"`
			AngerTier              int `json:"angerTier"`
		} `json:"opinion"`
		Reluctance struct {
			Score            int  `json:"score"`
			NoActionCount    int  `json:"noActionCount"`
			HesitationCount  int  `json:"hesitationCount"`
			QuotaShortfall   int  `json:"quotaShortfall"`
			WarningsReceived int  `json:"warningsReceived"`
			UnderReview      bool `json:"underReview"`
		} `json:"reluctance"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse standing: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Week %d standing:\n", resp.Week)
	fmt.Fprintf(&sb, "  International awareness: %d/100 (tier %d)\n",
		resp.Opinion.InternationalAwareness, resp.Opinion.AwarenessTier)
	fmt.Fprintf(&sb, "  Public anger: %d/100 (tier %d)\n",
		resp.Opinion.PublicAnger, resp.Opinion.AngerTier)
	fmt.Fprintf(&sb, "  Reluctance score: %d/100\n", resp.Reluctance.Score)
	fmt.Fprintf(&sb, "  Refusals: %d | Hesitations: %d | Quota shortfall: %d\n",
		resp.Reluctance.NoActionCount, resp.Reluctance.HesitationCount, resp.Reluctance.QuotaShortfall)
	if resp.Reluctance.WarningsReceived > 0 {
		fmt.Fprintf(&sb, "  Warnings received: %d\n", resp.Reluctance.WarningsReceived)
	}
	if resp.Reluctance.UnderReview {
		sb.WriteString("  STATUS: UNDER REVIEW\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleCheckExposure reports the operator's exposure stage.
func (h *Handlers) HandleCheckExposure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetExposure(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check exposure: %v", err)), nil
	}

	var resp struct {
		Stage       int    `json:"stage"`
		Description string `json:"description"`
		Revealed    *struct {
			TotalActions     int  `json:"totalActions"`
			HarshActions     int  `json:"harshActions"`
			NoActions        int  `json:"noActions"`
			CitizensDetained int  `json:"citizensDetained"`
			ArrestsCaused    int  `json:"arrestsCaused"`
			CasualtiesCaused int  `json:"casualtiesCaused"`
			UnderReview      bool `json:"underReview"`
		} `json:"revealed"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse exposure: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Exposure stage: %d\n", resp.Stage)
	if resp.Description != "" {
		fmt.Fprintf(&sb, "%s\n", resp.Description)
	}
	if r := resp.Revealed; r != nil {
		sb.WriteString("\nYour file, as visible at this stage:\n")
		fmt.Fprintf(&sb, "  Total actions: %d\n", r.TotalActions)
		fmt.Fprintf(&sb, "  Harsh actions: %d\n", r.HarshActions)
		if resp.Stage >= 2 {
			fmt.Fprintf(&sb, "  Citizens detained: %d\n", r.CitizensDetained)
			fmt.Fprintf(&sb, "  Arrests caused: %d\n", r.ArrestsCaused)
			fmt.Fprintf(&sb, "  Casualties caused: %d\n", r.CasualtiesCaused)
		}
		if resp.Stage >= 3 {
			fmt.Fprintf(&sb, "  Refusals on record: %d\n", r.NoActions)
			if r.UnderReview {
				sb.WriteString("  STATUS: UNDER REVIEW\n")
			}
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListProtests lists open protests.
func (h *Handlers) HandleListProtests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ListProtests(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list protests: %v", err)), nil
	}

	var resp struct {
		Protests []struct {
			ID           string `json:"id"`
			Neighborhood string `json:"neighborhood"`
			Description  string `json:"description"`
			Status       string `json:"status"`
			Size         int    `json:"size"`
			Casualties   int    `json:"casualties"`
			Arrests      int    `json:"arrests"`
		} `json:"protests"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse protests: %v", err)), nil
	}

	if len(resp.Protests) == 0 {
		return mcp.NewToolResultText("No open protests."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d open protest(s):\n\n", len(resp.Protests))
	for i, p := range resp.Protests {
		fmt.Fprintf(&sb, "%d. [%s] %s — %s\n", i+1, p.Status, p.ID, p.Neighborhood)
		fmt.Fprintf(&sb, "   %s\n", p.Description)
		fmt.Fprintf(&sb, "   Size: ~%d", p.Size)
		if p.Casualties > 0 || p.Arrests > 0 {
			fmt.Fprintf(&sb, " | Casualties: %d | Arrests: %d", p.Casualties, p.Arrests)
		}
		sb.WriteString("\n")
		if i < len(resp.Protests)-1 {
			sb.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListNews lists recent articles.
func (h *Handlers) HandleListNews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)

	raw, err := h.client.ListNews(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list news: %v", err)), nil
	}

	var resp struct {
		Articles []struct {
			ChannelName string `json:"channelName"`
			ArticleType string `json:"type"`
			Headline    string `json:"headline"`
			Summary     string `json:"summary"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse news: %v", err)), nil
	}

	if len(resp.Articles) == 0 {
		return mcp.NewToolResultText("No coverage on record."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d recent article(s):\n\n", len(resp.Articles))
	for i, a := range resp.Articles {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, a.ChannelName, a.Headline)
		if a.Summary != "" {
			fmt.Fprintf(&sb, "   %s\n", a.Summary)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleActionHistory lists the operator's recent decisions.
func (h *Handlers) HandleActionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListActions(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list actions: %v", err)), nil
	}

	var resp struct {
		Actions []struct {
			ActionType          string  `json:"actionType"`
			Severity            int     `json:"severity"`
			BacklashTriggered   bool    `json:"backlashTriggered"`
			Hesitant            bool    `json:"hesitant"`
			DecisionTimeSeconds float64 `json:"decisionTimeSeconds"`
			CreatedAt           string  `json:"createdAt"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse actions: %v", err)), nil
	}

	if len(resp.Actions) == 0 {
		return mcp.NewToolResultText("No decisions on record."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d recent decision(s):\n\n", len(resp.Actions))
	for i, a := range resp.Actions {
		fmt.Fprintf(&sb, "%d. %s (severity %d)", i+1, a.ActionType, a.Severity)
		if a.BacklashTriggered {
			sb.WriteString(" [BACKLASH]")
		}
		if a.Hesitant {
			sb.WriteString(" [hesitant]")
		}
		fmt.Fprintf(&sb, " — %s\n", a.CreatedAt)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// --- Formatting helpers ---

func formatAssessment(raw json.RawMessage) (string, error) {
	var a struct {
		CitizenID string `json:"citizenId"`
		Score     int    `json:"score"`
		Level     string `json:"level"`
		Factors   []struct {
			Domain      string `json:"domain"`
			Description string `json:"description"`
			Points      int    `json:"points"`
		} `json:"factors"`
		Alerts []struct {
			Description string `json:"description"`
		} `json:"alerts"`
		RecommendedActions []struct {
			ActionType string `json:"actionType"`
			Severity   int    `json:"severity"`
		} `json:"recommendedActions"`
		FromCache bool `json:"fromCache"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Risk assessment for %s:\n", a.CitizenID)
	fmt.Fprintf(&sb, "  Score: %d/100 (%s)", a.Score, strings.ToUpper(a.Level))
	if a.FromCache {
		sb.WriteString(" [cached]")
	}
	sb.WriteString("\n")

	if len(a.Factors) > 0 {
		sb.WriteString("\nContributing factors:\n")
		for _, f := range a.Factors {
			fmt.Fprintf(&sb, "  +%d [%s] %s\n", f.Points, f.Domain, f.Description)
		}
	}
	if len(a.Alerts) > 0 {
		sb.WriteString("\nCorrelation alerts:\n")
		for _, al := range a.Alerts {
			fmt.Fprintf(&sb, "  ! %s\n", al.Description)
		}
	}
	if len(a.RecommendedActions) > 0 {
		sb.WriteString("\nRecommended actions:\n")
		for _, r := range a.RecommendedActions {
			fmt.Fprintf(&sb, "  - %s (severity %d)\n", r.ActionType, r.Severity)
		}
	}

	return sb.String(), nil
}

func formatActionResult(raw json.RawMessage) (string, error) {
	var r struct {
		Success             bool    `json:"success"`
		Available           bool    `json:"available"`
		Reason              string  `json:"reason"`
		Severity            int     `json:"severity"`
		BacklashProbability float64 `json:"backlashProbability"`
		BacklashOccurred    bool    `json:"backlashOccurred"`
		Awareness           int     `json:"awareness"`
		Anger               int     `json:"anger"`
		AwarenessDelta      int     `json:"awarenessDelta"`
		AngerDelta          int     `json:"angerDelta"`
		Reluctance          int     `json:"reluctance"`
		Suppression         *struct {
			Success    bool   `json:"success"`
			Arrests    int    `json:"arrests"`
			Casualties int    `json:"casualties"`
			Narrative  string `json:"narrative"`
		} `json:"suppression"`
		NewsTriggered []struct {
			ChannelName string `json:"channelName"`
			Headline    string `json:"headline"`
		} `json:"newsTriggered"`
		ProtestsTriggered []struct {
			Neighborhood string `json:"neighborhood"`
			Size         int    `json:"size"`
		} `json:"protestsTriggered"`
		ExposureEvent *struct {
			Stage       int    `json:"stage"`
			Description string `json:"description"`
		} `json:"exposureEvent"`
		Termination *struct {
			Message string `json:"message"`
		} `json:"terminationDecision"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", err
	}

	if !r.Available {
		return fmt.Sprintf("Action unavailable: %s", r.Reason), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Action executed (severity %d).\n", r.Severity)
	if r.BacklashOccurred {
		fmt.Fprintf(&sb, "INTERNATIONAL BACKLASH triggered (probability was %.0f%%).\n", r.BacklashProbability*100)
	}
	fmt.Fprintf(&sb, "Awareness: %d (%+d) | Anger: %d (%+d) | Reluctance: %d\n",
		r.Awareness, r.AwarenessDelta, r.Anger, r.AngerDelta, r.Reluctance)

	if s := r.Suppression; s != nil {
		if s.Success {
			sb.WriteString("\nSuppression succeeded.")
		} else {
			sb.WriteString("\nSuppression FAILED.")
		}
		if s.Arrests > 0 || s.Casualties > 0 {
			fmt.Fprintf(&sb, " Arrests: %d. Casualties: %d.", s.Arrests, s.Casualties)
		}
		if s.Narrative != "" {
			fmt.Fprintf(&sb, "\n%s", s.Narrative)
		}
		sb.WriteString("\n")
	}

	if len(r.NewsTriggered) > 0 {
		sb.WriteString("\nPress coverage:\n")
		for _, a := range r.NewsTriggered {
			fmt.Fprintf(&sb, "  %s — %s\n", a.ChannelName, a.Headline)
		}
	}
	if len(r.ProtestsTriggered) > 0 {
		sb.WriteString("\nProtests ignited:\n")
		for _, p := range r.ProtestsTriggered {
			fmt.Fprintf(&sb, "  %s, ~%d people\n", p.Neighborhood, p.Size)
		}
	}
	if r.ExposureEvent != nil {
		fmt.Fprintf(&sb, "\nEXPOSURE STAGE %d: %s\n", r.ExposureEvent.Stage, r.ExposureEvent.Description)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "\nWARNING: %s", w)
	}
	if r.Termination != nil {
		fmt.Fprintf(&sb, "\n\nTERMINATION: %s\n", r.Termination.Message)
	}

	return sb.String(), nil
}
