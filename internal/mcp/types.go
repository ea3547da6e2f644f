// Package mcp exposes repository ingestion as Model Context Protocol tools.
package mcp

// IngestRepositoryInput defines the input parameters for the ingest_repository tool.
type IngestRepositoryInput struct {
	// Owner is the repository owner (user or organization).
	Owner string `json:"owner" jsonschema:"Repository owner, e.g. golang"`
	// Repo is the repository name.
	Repo string `json:"repo" jsonschema:"Repository name, e.g. go"`
	// Token authorizes GitHub API calls. It is never stored or logged.
	Token string `json:"token" jsonschema:"GitHub access token used to read the repository"`
}

// IngestRepositoryOutput reports the outcome of one ingestion run.
type IngestRepositoryOutput struct {
	Success         bool   `json:"success"`
	ChunksProcessed int    `json:"chunksProcessed"`
	Message         string `json:"message"`
	Repository      string `json:"repository"`
	Collection      string `json:"collection"`
}

// CollectionStatusInput defines the input parameters for the collection_status tool.
type CollectionStatusInput struct {
	Owner string `json:"owner" jsonschema:"Repository owner"`
	Repo  string `json:"repo" jsonschema:"Repository name"`
}

// CollectionStatusOutput describes the vector collection of one repository.
type CollectionStatusOutput struct {
	Collection string `json:"collection"`
	Exists     bool   `json:"exists"`
	Points     uint64 `json:"points"`
}
