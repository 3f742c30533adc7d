package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/memory"
)

// handleConvertTest runs a single conversion through the engine.
func (s *Server) handleConvertTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputCode, err := request.RequireString("input_code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input_code"), nil
	}

	res := s.engine.Convert(ctx, inputCode)
	if !res.Success {
		return mcp.NewToolResultError(fmt.Sprintf(
			"conversion failed: %s", strings.Join(res.Issues, "; "),
		)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", res.Strategy))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", res.Confidence))
	sb.WriteString(fmt.Sprintf("Input hash: %s\n", res.InputHash))
	sb.WriteString(fmt.Sprintf("Execution time: %.2fs\n", res.ExecutionTime))
	sb.WriteString("\n")
	sb.WriteString(res.Code)

	return mcp.NewToolResultText(sb.String()), nil
}

// handleFindSimilar searches the knowledge base for structurally similar conversions.
func (s *Server) handleFindSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputCode, err := request.RequireString("input_code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input_code"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	exemplars, err := s.engine.Similar(ctx, inputCode, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("similarity search failed: %v", err)), nil
	}

	if len(exemplars) == 0 {
		return mcp.NewToolResultText("No similar conversions found. The knowledge base fills as conversions succeed."), nil
	}

	return mcp.NewToolResultText(formatExemplars(exemplars)), nil
}

// handleEngineStatus reports the engine's aggregate state.
func (s *Server) handleEngineStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.engine.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode status: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// handleSubmitFeedback attaches a quality score to a stored conversion.
func (s *Server) handleSubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputHash, err := request.RequireString("input_hash")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input_hash"), nil
	}

	score := request.GetFloat("score", 0)
	if score < 1 || score > 5 {
		return mcp.NewToolResultError("score must be between 1 and 5"), nil
	}

	if err := s.engine.Feedback(ctx, inputHash, score); err != nil {
		if errors.Is(err, memory.ErrCaseNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no conversion found with input hash %q", inputHash)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("feedback failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Feedback recorded for %s (score %.1f).", inputHash, score)), nil
}

// formatExemplars converts similarity results into a rich text format optimized
// for AI agent consumption.
func formatExemplars(exemplars []knowledge.Exemplar) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d similar conversion(s):\n", len(exemplars)))

	for i, ex := range exemplars {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Hash: %s\n", ex.InputHash))
		if ex.Strategy != "" {
			sb.WriteString(fmt.Sprintf("Strategy: %s\n", ex.Strategy))
		}
		sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", ex.Confidence))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", ex.Similarity*100))

		sb.WriteString("\nCypress:\n")
		sb.WriteString(ex.InputCode)
		sb.WriteString("\n\nPlaywright:\n")
		sb.WriteString(ex.OutputCode)
		sb.WriteString("\n")
	}

	return sb.String()
}
