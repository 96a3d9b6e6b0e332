package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/core"
	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	analyze core.ExecutorFunc
}

// requestConfig clones the base config and applies the shared period_type argument.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if pt := request.GetString("period_type", ""); pt != "" {
		cfg.PeriodType = schema.PeriodType(strings.ToLower(pt))
		if _, ok := schema.ValidPeriodTypes[cfg.PeriodType]; !ok {
			return nil, fmt.Errorf("invalid period type '%s'. must be weekly, monthly, quarterly", pt)
		}
	}
	return cfg, nil
}

func (h *toolHandler) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.Period = request.GetString("period", "")
	if cfg.Period != "" && !schema.ValidPeriodKey(cfg.PeriodType, cfg.Period) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid %s period key '%s'", cfg.PeriodType, cfg.Period)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}

	if request.GetBool("refresh", false) {
		// stdout carries the protocol, so the run stays quiet
		if err := h.analyze(core.WithSuppressOutput(ctx), cfg, h.mgr); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
	}

	view, err := core.GetLeaderboardResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("leaderboard unavailable: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetContributor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.Contributor = strings.TrimSpace(request.GetString("name", ""))
	if cfg.Contributor == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	view, err := core.GetContributorResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("contributor lookup failed: %v", err)), nil
	}
	if len(view.Periods) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no %s records for %s", cfg.PeriodType, cfg.Contributor)), nil
	}

	jsonData, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListPeriods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	periods, err := core.GetPeriodResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("period listing failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(periods, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
