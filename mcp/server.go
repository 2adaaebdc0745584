// Package mcp provides MCP (Model Context Protocol) tool adapters for
// Pacer. It allows MCP-compatible agent frameworks to drive a learner's
// review sessions: selecting cards, grading outcomes, planning
// intervals, and inspecting the learner profile.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/pacer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with Pacer tools.
type Server struct {
	client    *pacer.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with Pacer tools registered.
func NewServer(client *pacer.Client) *Server {
	s := &Server{
		client: client,
	}

	s.mcpServer = server.NewMCPServer(
		"pacer",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "pacer_review", Description: "Select the cards most worth studying right now, mixing urgent reviews with new material"},
		{Name: "pacer_grade", Description: "Grade a review outcome and fold it into the card's schedule"},
		{Name: "pacer_plan", Description: "Predict the optimal next review interval for one or more cards"},
		{Name: "pacer_record", Description: "Record a raw learning event into the profile pipeline"},
		{Name: "pacer_profile", Description: "Inspect the current learner profile"},
		{Name: "pacer_stats", Description: "Show store statistics for the current learner"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "pacer_review":
		return s.handleReview(ctx, args)
	case "pacer_grade":
		return s.handleGrade(ctx, args)
	case "pacer_plan":
		return s.handlePlan(ctx, args)
	case "pacer_record":
		return s.handleRecord(ctx, args)
	case "pacer_profile":
		return s.handleProfile(ctx, args)
	case "pacer_stats":
		return s.handleStats(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	// pacer_review
	s.mcpServer.AddTool(mcp.NewTool("pacer_review",
		mcp.WithDescription("Select the cards most worth studying right now from a candidate pool. Returns cards with session references (C1, C2, ...) that can be used for grading."),
		mcp.WithArray("candidates",
			mcp.Description("Card IDs eligible for this session"),
			mcp.WithStringItems(),
			mcp.Required(),
		),
		mcp.WithNumber("count",
			mcp.Description("Maximum number of cards to return (default: 10)"),
		),
		mcp.WithBoolean("include_new",
			mcp.Description("Fill remaining slots with never-studied cards (default: true)"),
		),
	), s.mcpHandleReview)

	// pacer_grade
	s.mcpServer.AddTool(mcp.NewTool("pacer_grade",
		mcp.WithDescription("Grade a review outcome. Accepts a session ref (C1, C2, ...) or a card ID. Updates the card's ease factor, interval, and next review time."),
		mcp.WithString("card",
			mcp.Description("Session ref or card ID of the reviewed card"),
			mcp.Required(),
		),
		mcp.WithBoolean("correct",
			mcp.Description("Whether the learner recalled the card correctly"),
			mcp.Required(),
		),
		mcp.WithBoolean("hint_used",
			mcp.Description("Whether a hint was needed"),
		),
		mcp.WithNumber("response_time_ms",
			mcp.Description("Response latency in milliseconds"),
		),
	), s.mcpHandleGrade)

	// pacer_plan
	s.mcpServer.AddTool(mcp.NewTool("pacer_plan",
		mcp.WithDescription("Predict the optimal next review interval for one or more cards using the learner profile. Falls back to a deterministic baseline when adaptive prediction is unavailable."),
		mcp.WithArray("cards",
			mcp.Description("Session refs or card IDs to plan"),
			mcp.WithStringItems(),
			mcp.Required(),
		),
		mcp.WithBoolean("apply",
			mcp.Description("Persist the planned schedule into each card's record (default: false)"),
		),
	), s.mcpHandlePlan)

	// pacer_record
	s.mcpServer.AddTool(mcp.NewTool("pacer_record",
		mcp.WithDescription("Record a raw learning event. Events accumulate in a buffer and periodically update the learner profile."),
		mcp.WithString("card",
			mcp.Description("Card ID the event refers to"),
			mcp.Required(),
		),
		mcp.WithString("action",
			mcp.Description("Kind of study attempt: learn, review, or quiz"),
			mcp.Required(),
		),
		mcp.WithString("result",
			mcp.Description("Outcome: correct, incorrect, or partial"),
			mcp.Required(),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Learner's self-reported confidence 0.0-1.0 (default: 1.0)"),
		),
		mcp.WithNumber("time_taken_ms",
			mcp.Description("Response latency in milliseconds"),
		),
	), s.mcpHandleRecord)

	// pacer_profile
	s.mcpServer.AddTool(mcp.NewTool("pacer_profile",
		mcp.WithDescription("Inspect the current learner profile: cognitive style, memory pattern, behavior, knowledge, and emotional state. Read-only."),
	), s.mcpHandleProfile)

	// pacer_stats
	s.mcpServer.AddTool(mcp.NewTool("pacer_stats",
		mcp.WithDescription("Show statistics for the current learner's store. Read-only."),
	), s.mcpHandleStats)
}

// MCP handlers that wrap internal handlers

func (s *Server) mcpHandleReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleReview(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleGrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleGrade(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handlePlan(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleRecord(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleProfile(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleStats(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleReview(ctx context.Context, args map[string]any) (*ToolResult, error) {
	candidates := toStringSlice(args["candidates"])
	if len(candidates) == 0 {
		return &ToolResult{Content: "candidates is required", IsError: true}, nil
	}

	opts := pacer.SelectOptions{
		Count:      10,
		IncludeNew: true,
	}
	if count, ok := args["count"].(float64); ok && count > 0 {
		opts.Count = int(count)
	}
	if includeNew, ok := args["include_new"].(bool); ok {
		opts.IncludeNew = includeNew
	}

	selection, err := s.client.SelectCards(candidates, opts)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("review failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: formatSelection(selection)}, nil
}

func (s *Server) handleGrade(ctx context.Context, args map[string]any) (*ToolResult, error) {
	card, ok := args["card"].(string)
	if !ok || card == "" {
		return &ToolResult{Content: "card is required", IsError: true}, nil
	}
	correct, ok := args["correct"].(bool)
	if !ok {
		return &ToolResult{Content: "correct is required", IsError: true}, nil
	}

	params := pacer.GradeParams{
		CardID:  card,
		Correct: correct,
	}
	if hint, ok := args["hint_used"].(bool); ok {
		params.HintUsed = hint
	}
	if ms, ok := args["response_time_ms"].(float64); ok {
		params.ResponseTimeMs = int(ms)
	}

	record, err := s.client.Grade(ctx, params)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("grade failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: formatRecord(record)}, nil
}

func (s *Server) handlePlan(ctx context.Context, args map[string]any) (*ToolResult, error) {
	cards := toStringSlice(args["cards"])
	if len(cards) == 0 {
		return &ToolResult{Content: "cards is required", IsError: true}, nil
	}

	var plans []pacer.ReviewPlan
	if len(cards) == 1 {
		plans = []pacer.ReviewPlan{s.client.Plan(ctx, cards[0])}
	} else {
		plans = s.client.PlanBatch(ctx, cards)
	}

	if apply, ok := args["apply"].(bool); ok && apply {
		for _, plan := range plans {
			if err := s.client.ApplyPlan(plan); err != nil {
				return &ToolResult{Content: fmt.Sprintf("apply plan for %s failed: %v", plan.CardID, err), IsError: true}, nil
			}
		}
	}

	return &ToolResult{Content: formatPlans(plans)}, nil
}

func (s *Server) handleRecord(ctx context.Context, args map[string]any) (*ToolResult, error) {
	card, ok := args["card"].(string)
	if !ok || card == "" {
		return &ToolResult{Content: "card is required", IsError: true}, nil
	}
	action, ok := args["action"].(string)
	if !ok || action == "" {
		return &ToolResult{Content: "action is required", IsError: true}, nil
	}
	result, ok := args["result"].(string)
	if !ok || result == "" {
		return &ToolResult{Content: "result is required", IsError: true}, nil
	}

	event := pacer.LearningEvent{
		CardID:     card,
		Action:     pacer.EventAction(action),
		Result:     pacer.EventResult(result),
		Confidence: 1,
	}
	if conf, ok := args["confidence"].(float64); ok {
		event.Confidence = conf
	}
	if ms, ok := args["time_taken_ms"].(float64); ok {
		event.TimeTakenMs = int(ms)
	}

	if err := s.client.RecordEvent(ctx, event); err != nil {
		return &ToolResult{Content: fmt.Sprintf("record failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: fmt.Sprintf("Recorded %s/%s event for %s", action, result, card)}, nil
}

func (s *Server) handleProfile(ctx context.Context, args map[string]any) (*ToolResult, error) {
	return &ToolResult{Content: formatProfile(s.client.Profile())}, nil
}

func (s *Server) handleStats(ctx context.Context, args map[string]any) (*ToolResult, error) {
	stats, err := s.client.Stats()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("stats failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Learner: %s\n", stats.LearnerID)
	fmt.Fprintf(&sb, "Records: %d\n", stats.RecordCount)
	fmt.Fprintf(&sb, "Pending events: %d\n", stats.PendingEvents)
	fmt.Fprintf(&sb, "Profile version: %d\n", stats.ProfileVersion)
	if !stats.LastUpdate.IsZero() {
		fmt.Fprintf(&sb, "Last update: %s\n", stats.LastUpdate.Format(time.RFC3339))
	}
	return &ToolResult{Content: sb.String()}, nil
}

// Formatting functions

func formatSelection(selection []pacer.SelectedCard) string {
	if len(selection) == 0 {
		return "No cards selected."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Selected %d cards for this session:\n\n", len(selection))
	for _, card := range selection {
		marker := ""
		if card.New {
			marker = " (new)"
		}
		fmt.Fprintf(&sb, "[%s] %s%s\n", card.SessionRef, card.CardID, marker)
		fmt.Fprintf(&sb, "    Priority: %.0f\n\n", card.Score)
	}
	sb.WriteString("Use pacer_grade with session refs (C1, C2, ...) after each review.")
	return sb.String()
}

func formatRecord(r *pacer.LearningRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Graded %s:\n", r.CardID)
	fmt.Fprintf(&sb, "  Ease factor: %.2f\n", r.EaseFactor)
	fmt.Fprintf(&sb, "  Interval: %d days\n", r.Interval)
	fmt.Fprintf(&sb, "  Next review: %s\n", r.NextReviewAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Mastery: %s\n", r.MasteryLevel)
	fmt.Fprintf(&sb, "  Reviews: %d (%d correct, %d wrong)", r.ReviewCount, r.CorrectCount, r.WrongCount)
	return sb.String()
}

func formatPlans(plans []pacer.ReviewPlan) string {
	var sb strings.Builder
	for _, plan := range plans {
		source := "adaptive"
		if plan.Fallback {
			source = "baseline"
		}
		fmt.Fprintf(&sb, "%s: review in %dh (%s, %s, confidence %.2f)\n",
			plan.CardID, plan.IntervalHours, source, plan.Difficulty, plan.Confidence)
		fmt.Fprintf(&sb, "  %s\n", plan.Reasoning)
	}
	return sb.String()
}

func formatProfile(p *pacer.LearnerProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Learner profile (version %d):\n", p.Version)
	fmt.Fprintf(&sb, "  Cognitive: visual %.2f, verbal %.2f, contextual %.2f\n",
		p.CognitiveStyle.Visual, p.CognitiveStyle.Verbal, p.CognitiveStyle.Contextual)
	fmt.Fprintf(&sb, "  Memory: short-term %.2f, long-term %.2f, stability %.2f, optimal interval %dh\n",
		p.MemoryPattern.ShortTermRetention, p.MemoryPattern.LongTermRetention,
		p.MemoryPattern.Stability, p.MemoryPattern.OptimalIntervalH)
	fmt.Fprintf(&sb, "  Behavior: preferred hour %d, mean response %.0f ms, consistency %.2f\n",
		p.Behavior.PreferredHour, p.Behavior.MeanResponseMs, p.Behavior.ConsistencyScore)
	fmt.Fprintf(&sb, "  Knowledge: %d items", p.Knowledge.VocabularySize)
	if len(p.Knowledge.WeakTopics) > 0 {
		fmt.Fprintf(&sb, ", weak: %s", strings.Join(p.Knowledge.WeakTopics, ", "))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Emotional: confidence %.2f, motivation %.2f, frustration %.2f, flow %.2f",
		p.Emotional.Confidence, p.Emotional.Motivation, p.Emotional.Frustration, p.Emotional.FlowScore)
	return sb.String()
}

// toStringSlice converts various array types to []string.
// Handles []any, []string, and nil.
func toStringSlice(v any) []string {
	if v == nil {
		return nil
	}

	switch arr := v.(type) {
	case []string:
		return arr
	case []any:
		result := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}
