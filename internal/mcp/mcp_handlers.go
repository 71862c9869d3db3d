package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/livemeasure/core/gate"
	"github.com/huangsam/livemeasure/core/live"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	mgr      contract.StoreManager
	computer *live.Computer
}

func (h *toolHandler) handleRefreshMeasures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("project", ""); p != "" {
		cfg.ProjectKey = p
	}
	if c := request.GetString("components", ""); c != "" {
		cfg.Components = splitList(c)
	}

	batches, err := live.SelectBatches(ctx, h.mgr.GetMeasureStore(), live.Selection{
		ProjectKey: cfg.ProjectKey,
		Patterns:   cfg.Components,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid selection: %v", err)), nil
	}

	events, err := h.computer.RefreshAll(ctx, batches, cfg.Workers)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(live.Results(events), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetMeasures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("component", "")
	if key == "" {
		return mcp.NewToolResultError("component is required"), nil
	}

	store := h.mgr.GetMeasureStore()
	component, ok, err := store.FindComponentByKey(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown component %q", key)), nil
	}

	records, err := store.SelectMeasureRecords(ctx, component.UUID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading measures failed: %v", err)), nil
	}
	if wanted := splitList(request.GetString("metrics", "")); len(wanted) > 0 {
		records = filterRecords(records, wanted)
	}

	jsonData, _ := json.MarshalIndent(struct {
		Component schema.Component       `json:"component"`
		Measures  []schema.MeasureRecord `json:"measures"`
	}{component, records}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetQualityGate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("project", "")
	if key == "" {
		return mcp.NewToolResultError("project is required"), nil
	}

	store := h.mgr.GetMeasureStore()
	project, ok, err := store.FindComponentByKey(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if !ok || !project.IsRoot() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown project %q", key)), nil
	}

	records, err := store.SelectMeasureRecords(ctx, project.UUID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading measures failed: %v", err)), nil
	}
	details, found, err := gate.DetailsFromRecords(records)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("project %q has no quality gate status yet; run refresh_measures first", key)), nil
	}

	jsonData, _ := json.MarshalIndent(details, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func filterRecords(records []schema.MeasureRecord, metrics []string) []schema.MeasureRecord {
	keep := make(map[string]struct{}, len(metrics))
	for _, m := range metrics {
		keep[m] = struct{}{}
	}
	out := make([]schema.MeasureRecord, 0, len(records))
	for _, r := range records {
		if _, ok := keep[r.MetricKey]; ok {
			out = append(out, r)
		}
	}
	return out
}
