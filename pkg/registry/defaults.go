package registry

import (
	"context"
	"os"
)

// LoadDefaults seeds the registry with the platform's built-in integration
// servers. Endpoints can be overridden per server with the corresponding
// *_MCP_URL environment variable; everything else is fixed configuration.
func (r *Registry) LoadDefaults(ctx context.Context) error {
	defaults := defaultServers()
	for _, reg := range defaults {
		if _, err := r.Register(ctx, reg); err != nil {
			return err
		}
	}
	logf("Loaded %d default servers", len(defaults))
	return nil
}

func endpointFromEnv(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func defaultServers() []Registration {
	return []Registration{
		{
			Name:        "database-mcp",
			Version:     "1.0.0",
			Description: "Database operations MCP server",
			Endpoint:    endpointFromEnv("DATABASE_MCP_URL", "http://localhost:8010"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "query_transcripts", Description: "Query transcripts from database"},
				{Name: "get_transcript", Description: "Get a specific transcript by ID"},
				{Name: "execute_sql", Description: "Execute read-only SQL query"},
				{Name: "list_audio_files", Description: "List audio files"},
			},
			Resources: []Resource{
				{URI: "db://schemas", Name: "Database Schemas"},
			},
			Metadata: map[string]string{"category": "infrastructure"},
		},
		{
			Name:        "github-mcp",
			Version:     "1.0.0",
			Description: "GitHub integration MCP server",
			Endpoint:    endpointFromEnv("GITHUB_MCP_URL", "http://localhost:8011"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "create_issue", Description: "Create a GitHub issue"},
				{Name: "list_issues", Description: "List GitHub issues"},
				{Name: "list_pull_requests", Description: "List pull requests"},
				{Name: "search_code", Description: "Search code in repositories"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "slack-mcp",
			Version:     "1.0.0",
			Description: "Slack integration MCP server",
			Endpoint:    endpointFromEnv("SLACK_MCP_URL", "http://localhost:8012"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "send_message", Description: "Send a Slack message"},
				{Name: "list_channels", Description: "List Slack channels"},
				{Name: "get_channel_history", Description: "Get channel message history"},
				{Name: "search_messages", Description: "Search Slack messages"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "teams-mcp",
			Version:     "1.0.0",
			Description: "Microsoft Teams integration MCP server",
			Endpoint:    endpointFromEnv("TEAMS_MCP_URL", "http://localhost:8013"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "send_channel_message", Description: "Send a Teams channel message"},
				{Name: "list_teams", Description: "List Teams"},
				{Name: "list_channels", Description: "List channels in a team"},
				{Name: "get_channel_messages", Description: "Get channel messages"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "gmail-mcp",
			Version:     "1.0.0",
			Description: "Gmail integration MCP server",
			Endpoint:    endpointFromEnv("GMAIL_MCP_URL", "http://localhost:8014"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "list_messages", Description: "List Gmail messages"},
				{Name: "get_message", Description: "Get a specific email"},
				{Name: "send_email", Description: "Send an email"},
				{Name: "search_emails", Description: "Search emails"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "drive-mcp",
			Version:     "1.0.0",
			Description: "Google Drive integration MCP server",
			Endpoint:    endpointFromEnv("DRIVE_MCP_URL", "http://localhost:8015"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "list_files", Description: "List Drive files"},
				{Name: "get_file", Description: "Get file metadata"},
				{Name: "download_file", Description: "Download file content"},
				{Name: "search_files", Description: "Search files"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "clickup-mcp",
			Version:     "1.0.0",
			Description: "ClickUp integration MCP server",
			Endpoint:    endpointFromEnv("CLICKUP_MCP_URL", "http://localhost:8016"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "list_tasks", Description: "List ClickUp tasks"},
				{Name: "get_task", Description: "Get task details"},
				{Name: "create_task", Description: "Create a new task"},
				{Name: "update_task", Description: "Update a task"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "azure-devops-mcp",
			Version:     "1.0.0",
			Description: "Azure DevOps integration MCP server",
			Endpoint:    endpointFromEnv("AZURE_DEVOPS_MCP_URL", "http://localhost:8017"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "list_work_items", Description: "List work items"},
				{Name: "get_work_item", Description: "Get work item details"},
				{Name: "list_sprints", Description: "List sprints"},
				{Name: "get_sprint", Description: "Get sprint details"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "zoom-mcp",
			Version:     "1.0.0",
			Description: "Zoom integration MCP server",
			Endpoint:    endpointFromEnv("ZOOM_MCP_URL", "http://localhost:8018"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "list_meetings", Description: "List Zoom meetings"},
				{Name: "get_meeting", Description: "Get meeting details"},
				{Name: "get_recording", Description: "Get meeting recording"},
				{Name: "get_transcript", Description: "Get meeting transcript"},
			},
			Metadata: map[string]string{"category": "integration", "requires_auth": "true"},
		},
		{
			Name:        "neo4j-mcp",
			Version:     "1.0.0",
			Description: "Neo4j knowledge graph MCP server",
			Endpoint:    endpointFromEnv("NEO4J_MCP_URL", "http://localhost:8019"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "query_graph", Description: "Execute Cypher query"},
				{Name: "find_entities", Description: "Find entities by name"},
				{Name: "find_paths", Description: "Find paths between entities"},
				{Name: "add_entity", Description: "Add an entity to the graph"},
			},
			Metadata: map[string]string{"category": "infrastructure"},
		},
		{
			Name:        "chromadb-mcp",
			Version:     "1.0.0",
			Description: "ChromaDB vector search MCP server",
			Endpoint:    endpointFromEnv("CHROMADB_MCP_URL", "http://localhost:8020"),
			Transport:   "http",
			Tools: []Tool{
				{Name: "search", Description: "Semantic vector search"},
				{Name: "add_documents", Description: "Add documents to collection"},
				{Name: "delete_documents", Description: "Delete documents"},
				{Name: "get_collection_stats", Description: "Get collection statistics"},
			},
			Metadata: map[string]string{"category": "infrastructure"},
		},
	}
}
