package mcp

import "github.com/mark3labs/mcp-go/mcp"

// uploadDocumentTool defines the upload_document MCP tool.
var uploadDocumentTool = mcp.NewTool("upload_document",
	mcp.WithDescription("Ingest a document (txt, pdf, csv, xlsx, docx) so questions can be asked about it. Give either a file path or a name with inline text content."),
	mcp.WithString("path",
		mcp.Description("Path to a file on the local disk"),
	),
	mcp.WithString("name",
		mcp.Description("Document name when passing inline content, e.g. notes.txt"),
	),
	mcp.WithString("content",
		mcp.Description("Inline text content of the document"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the ingested documents with their summaries."),
)

// askDocumentTool defines the ask_document MCP tool.
var askDocumentTool = mcp.NewTool("ask_document",
	mcp.WithDescription("Ask a question answered from one document's content. The document keeps its own conversation history."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Name of an ingested document"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Question about the document"),
	),
)

// askGeneralTool defines the ask_general MCP tool.
var askGeneralTool = mcp.NewTool("ask_general",
	mcp.WithDescription("Continue the general conversation, not grounded in any document."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Message to send"),
	),
	mcp.WithString("model",
		mcp.Description("Chat model to use (defaults to the session model)"),
	),
	mcp.WithNumber("temperature",
		mcp.Description("Sampling temperature between 0 and 1"),
		mcp.Min(0),
		mcp.Max(1),
	),
)

// getHistoryTool defines the get_history MCP tool.
var getHistoryTool = mcp.NewTool("get_history",
	mcp.WithDescription("Get a document's conversation, or the general conversation when no document is given."),
	mcp.WithString("document",
		mcp.Description("Name of an ingested document"),
	),
)

// clearHistoryTool defines the clear_history MCP tool.
var clearHistoryTool = mcp.NewTool("clear_history",
	mcp.WithDescription("Clear a document's conversation, or the general conversation when no document is given."),
	mcp.WithString("document",
		mcp.Description("Name of an ingested document"),
	),
)

// removeDocumentTool defines the remove_document MCP tool.
var removeDocumentTool = mcp.NewTool("remove_document",
	mcp.WithDescription("Remove a document together with its index and conversation."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Name of an ingested document"),
	),
)

// setModelTool defines the set_model MCP tool.
var setModelTool = mcp.NewTool("set_model",
	mcp.WithDescription("Select the chat model and temperature used for document questions."),
	mcp.WithString("model",
		mcp.Required(),
		mcp.Description("Chat model name"),
	),
	mcp.WithNumber("temperature",
		mcp.Description("Sampling temperature between 0 and 1"),
		mcp.Min(0),
		mcp.Max(1),
	),
)
