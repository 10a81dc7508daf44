package mcp

import "github.com/mark3labs/mcp-go/mcp"

// rememberFactTool defines the remember_fact MCP tool.
var rememberFactTool = mcp.NewTool("remember_fact",
	mcp.WithDescription("Store a fact about a user so the companion can reference it in future conversations. Upserts by (user, type, key)."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user the fact belongs to"),
	),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Short identifier for the fact, e.g. 'name' or 'occupation'"),
	),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("The fact itself"),
	),
	mcp.WithString("memory_type",
		mcp.Description("Category of the memory (default fact)"),
		mcp.Enum("fact", "preference", "goal", "concern", "achievement", "interest"),
	),
	mcp.WithNumber("importance",
		mcp.Description("Importance from 1 to 5 (default 3)"),
	),
)

// recallMemoriesTool defines the recall_memories MCP tool.
var recallMemoriesTool = mcp.NewTool("recall_memories",
	mcp.WithDescription("Recall what the companion knows about a user. With a query, searches semantically; without one, lists memories by importance."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user to recall memories for"),
	),
	mcp.WithString("query",
		mcp.Description("Natural language query to search memories semantically"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of memories to return (default 10)"),
	),
)

// getConversationStateTool defines the get_conversation_state MCP tool.
var getConversationStateTool = mcp.NewTool("get_conversation_state",
	mcp.WithDescription("Get a user's conversation state: onboarding stage, whether onboarding is complete, and how many messages have been exchanged."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user whose state to fetch"),
	),
)
