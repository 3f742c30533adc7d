package mcp

import "github.com/mark3labs/mcp-go/mcp"

// convertTestTool defines the convert_test MCP tool.
var convertTestTool = mcp.NewTool("convert_test",
	mcp.WithDescription("Convert a Cypress test to Playwright. Returns the converted code along with the strategy used, confidence, and the input hash for feedback."),
	mcp.WithString("input_code",
		mcp.Required(),
		mcp.Description("Cypress test source code to convert"),
	),
)

// findSimilarTool defines the find_similar_conversions MCP tool.
var findSimilarTool = mcp.NewTool("find_similar_conversions",
	mcp.WithDescription("Search previously converted tests for ones structurally similar to the given Cypress code."),
	mcp.WithString("input_code",
		mcp.Required(),
		mcp.Description("Cypress test source to match against"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)

// engineStatusTool defines the get_engine_status MCP tool.
var engineStatusTool = mcp.NewTool("get_engine_status",
	mcp.WithDescription("Get the engine's current status: capabilities, per-strategy performance, tool success rates, learned patterns, and reflection summary."),
)

// submitFeedbackTool defines the submit_feedback MCP tool.
var submitFeedbackTool = mcp.NewTool("submit_feedback",
	mcp.WithDescription("Attach a quality score to a completed conversion, identified by the input hash returned from convert_test."),
	mcp.WithString("input_hash",
		mcp.Required(),
		mcp.Description("Input hash of the conversion to score"),
	),
	mcp.WithNumber("score",
		mcp.Required(),
		mcp.Description("Quality score from 1 to 5"),
	),
)
