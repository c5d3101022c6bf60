package domain

import "time"

// Action is what the importer did with an item.
type Action string

// Import actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// WarningKind classifies a non-fatal condition.
type WarningKind string

// Warning kinds.
const (
	// WarnContentUpdateUnsupported means properties were updated but the
	// content stream could not be replaced.
	WarnContentUpdateUnsupported WarningKind = "content_update_unsupported"

	// WarnRelationshipExists means the relationship was already present.
	WarnRelationshipExists WarningKind = "relationship_exists"

	// WarnRelationshipTargetMissing means a target id was not in the identity cache.
	WarnRelationshipTargetMissing WarningKind = "relationship_target_missing"

	// WarnRelationshipFailed means the repository rejected the relationship.
	WarnRelationshipFailed WarningKind = "relationship_failed"
)

// Warning is a logged, non-fatal condition attached to an item result.
type Warning struct {
	Kind    WarningKind
	Target  string
	Message string
}

// LinkStatus is the outcome of linking one association target.
type LinkStatus string

// Link statuses.
const (
	LinkCreated       LinkStatus = "created"
	LinkAlreadyExists LinkStatus = "already_exists"
	LinkTargetMissing LinkStatus = "target_missing"
	LinkFailed        LinkStatus = "failed"
)

// LinkResult reports one (association type, target) pair.
type LinkResult struct {
	AssociationType string
	TargetID        string
	Status          LinkStatus
	Err             error
}

// Warning returns the warning for a non-created link, or nil.
func (r LinkResult) Warning() *Warning {
	w := &Warning{Target: r.TargetID}
	switch r.Status {
	case LinkCreated:
		return nil
	case LinkAlreadyExists:
		w.Kind = WarnRelationshipExists
		w.Message = "relationship " + r.AssociationType + " already exists"
	case LinkTargetMissing:
		w.Kind = WarnRelationshipTargetMissing
		w.Message = "no object cached for id " + r.TargetID
	default:
		w.Kind = WarnRelationshipFailed
		w.Message = "relationship " + r.AssociationType + " not created"
		if r.Err != nil {
			w.Message += ": " + r.Err.Error()
		}
	}
	return w
}

// ImportResult is the definitive outcome for one item.
type ImportResult struct {
	// Position is the item's index in its batch.
	Position int

	// Name is the item's name.
	Name string

	// ObjectID is the repository id of the created, updated or existing object.
	ObjectID string

	// Action is what happened.
	Action Action

	// Links holds one entry per association target.
	Links []LinkResult

	// Warnings are non-fatal conditions.
	Warnings []Warning

	// Err is the failure reason when Action is ActionFailed.
	Err error
}

// Succeeded returns true if the item did not fail.
func (r *ImportResult) Succeeded() bool {
	return r.Action != ActionFailed
}

// BatchSummary counts item outcomes.
type BatchSummary struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Add counts one result.
func (s *BatchSummary) Add(action Action) {
	s.Total++
	switch action {
	case ActionCreated:
		s.Created++
	case ActionUpdated:
		s.Updated++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
	}
}

// BatchResult is the outcome of an ImportAll call.
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Summary   BatchSummary
	Results   []ImportResult
}
