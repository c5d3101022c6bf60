package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// defaultRunLimit caps list_runs when no limit is given.
const defaultRunLimit = 10

// ImportItemInput is the input schema for the import_item tool.
type ImportItemInput struct {
	Name         string            `json:"name" jsonschema:"the object name (cmis:name)"`
	Type         string            `json:"type" jsonschema:"object type id, optionally followed by comma separated P: aspects"`
	Destination  string            `json:"destination,omitempty" jsonschema:"parent folder as a node reference or repository path"`
	Site         string            `json:"site,omitempty" jsonschema:"site short name; items without a destination go to a data list of this site"`
	Content      string            `json:"content,omitempty" jsonschema:"text content for document types"`
	Mimetype     string            `json:"mimetype,omitempty" jsonschema:"content mimetype; derived from the name when omitted"`
	Properties   map[string]string `json:"properties,omitempty" jsonschema:"additional property values keyed by property id"`
	Associations map[string]string `json:"associations,omitempty" jsonschema:"comma separated target ids keyed by association type"`
	Overwrite    *bool             `json:"overwrite,omitempty" jsonschema:"update an existing object of the same name instead of skipping it"`
}

// ImportItemOutput is the output schema for the import_item tool.
type ImportItemOutput struct {
	Name     string   `json:"name"`
	ObjectID string   `json:"object_id,omitempty"`
	Action   string   `json:"action"`
	Stage    string   `json:"stage,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []RunOutput `json:"runs"`
	Count int         `json:"count"`
}

// RunOutput summarises one import run.
type RunOutput struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Overwrite bool   `json:"overwrite"`
	Total     int    `json:"total"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// DataListsInput is the input schema for the data_lists tool.
type DataListsInput struct {
	Site     string `json:"site" jsonschema:"site short name"`
	ItemType string `json:"item_type,omitempty" jsonschema:"data list item type; lists the container when omitted"`
	Create   bool   `json:"create,omitempty" jsonschema:"create the container or list when missing"`
}

// DataListsOutput is the output schema for the data_lists tool.
type DataListsOutput struct {
	Lists []ObjectOutput `json:"lists"`
	Count int            `json:"count"`
}

// ObjectOutput identifies a repository object.
type ObjectOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TypeID string `json:"type_id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "import_item",
		Description: "Create or update a single object in the content repository",
	}, s.handleImportItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List recent import runs with their outcome counts",
	}, s.handleListRuns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "data_lists",
		Description: "Find a site's data list container or its data lists for an item type",
	}, s.handleDataLists)
}

// handleImportItem handles the import_item tool invocation.
// Item failures are reported in the output; only a failed session is an error.
// A lost repository is reported as an item failure and the next call reconnects.
func (s *Server) handleImportItem(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportItemInput,
) (*mcp.CallToolResult, ImportItemOutput, error) {
	item, err := buildItem(input)
	if err != nil {
		return nil, ImportItemOutput{}, err
	}

	session, err := s.session(ctx, input.Overwrite)
	if err != nil {
		return nil, ImportItemOutput{}, fmt.Errorf("opening session: %w", err)
	}

	result, err := session.Import.Import(ctx, item)
	s.forget(err)
	if result == nil {
		return nil, ImportItemOutput{}, fmt.Errorf("importing %q: no result", input.Name)
	}
	return nil, newImportItemOutput(result), nil
}

func buildItem(input ImportItemInput) (*domain.ImportItem, error) {
	item, err := domain.NewImportItem(input.Name, input.Type)
	if err != nil {
		return nil, err
	}
	item.SetDestination(input.Destination)
	item.Site = input.Site
	item.Mimetype = input.Mimetype
	if input.Content != "" {
		item.Content = domain.TextContent(input.Content)
	}
	if err := item.SetProperties(input.Properties); err != nil {
		return nil, err
	}
	for assocType, targets := range input.Associations {
		item.AddAssociation(assocType, targets)
	}
	return item, nil
}

func newImportItemOutput(r *domain.ImportResult) ImportItemOutput {
	out := ImportItemOutput{
		Name:     r.Name,
		ObjectID: r.ObjectID,
		Action:   string(r.Action),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.Stage = string(domain.StageOf(r.Err))
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Message)
	}
	return out
}

// handleListRuns handles the list_runs tool invocation.
func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	if s.ports.Runs == nil {
		return nil, ListRunsOutput{Runs: []RunOutput{}}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := s.ports.Runs.List(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("listing runs: %w", err)
	}

	output := ListRunsOutput{
		Runs:  make([]RunOutput, len(runs)),
		Count: len(runs),
	}
	for i := range runs {
		output.Runs[i] = newRunOutput(&runs[i])
	}
	return nil, output, nil
}

func newRunOutput(run *domain.ImportRun) RunOutput {
	out := RunOutput{
		ID:        run.ID,
		StartedAt: run.StartedAt.Format(timeLayout),
		Overwrite: run.Overwrite,
		Total:     run.Summary.Total,
		Created:   run.Summary.Created,
		Updated:   run.Summary.Updated,
		Skipped:   run.Summary.Skipped,
		Failed:    run.Summary.Failed,
	}
	if !run.EndedAt.IsZero() {
		out.EndedAt = run.EndedAt.Format(timeLayout)
	}
	return out
}

// handleDataLists handles the data_lists tool invocation.
func (s *Server) handleDataLists(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DataListsInput,
) (*mcp.CallToolResult, DataListsOutput, error) {
	if input.Site == "" {
		return nil, DataListsOutput{}, fmt.Errorf("%w: site is required", domain.ErrInvalidInput)
	}

	session, err := s.session(ctx, nil)
	if err != nil {
		return nil, DataListsOutput{}, fmt.Errorf("opening session: %w", err)
	}

	var objects []domain.RepositoryObject
	if input.ItemType == "" {
		container, err := session.DataLists.Container(ctx, input.Site, input.Create)
		if err != nil {
			s.forget(err)
			return nil, DataListsOutput{}, fmt.Errorf("finding data list container: %w", err)
		}
		objects = []domain.RepositoryObject{*container}
	} else {
		objects, err = session.DataLists.Lists(ctx, input.Site, input.ItemType, input.Create)
		if err != nil {
			s.forget(err)
			return nil, DataListsOutput{}, fmt.Errorf("finding data lists: %w", err)
		}
	}

	output := DataListsOutput{
		Lists: make([]ObjectOutput, len(objects)),
		Count: len(objects),
	}
	for i := range objects {
		output.Lists[i] = ObjectOutput{
			ID:     objects[i].ID,
			Name:   objects[i].Name,
			TypeID: objects[i].TypeID,
		}
	}
	return nil, output, nil
}
