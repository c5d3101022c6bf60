package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// Ensure ImportService implements the interface.
var _ driving.ImportService = (*ImportService)(nil)

// ImportService runs items through validation, destination and type
// resolution, the merge policy, association linking and caching.
// Calls are serialised: later items depend on ids cached by earlier ones.
type ImportService struct {
	mu sync.Mutex

	gateway        driven.RepositoryGateway
	cache          driven.IdentityCache
	journal        driven.RunJournal
	overwrite      bool
	secondaryTypes bool

	destinations *DestinationResolver
	types        *TypeResolver
	merge        *MergePolicy
	content      ContentBuilder
	linker       *AssociationLinker

	newRunID func() string
	now      func() time.Time
}

// NewImportService creates an import service for one repository session.
// gateway may be nil, in which case every call fails with
// domain.ErrRepositoryUnavailable. journal is optional.
func NewImportService(
	gateway driven.RepositoryGateway,
	cache driven.IdentityCache,
	journal driven.RunJournal,
	overwrite bool,
) *ImportService {
	types := NewTypeResolver(gateway)
	return &ImportService{
		gateway:      gateway,
		cache:        cache,
		journal:      journal,
		overwrite:    overwrite,
		destinations: NewDestinationResolver(gateway, cache, types),
		types:        types,
		merge:        NewMergePolicy(gateway),
		linker:       NewAssociationLinker(gateway, cache),
		newRunID:     defaultRunID,
		now:          time.Now,
	}
}

// SetRunIDGenerator sets the function used to name import runs.
func (s *ImportService) SetRunIDGenerator(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.newRunID = fn
	}
}

// SetSecondaryTypes controls how aspects reach existing objects on update.
// When enabled they are sent as cmis:secondaryObjectTypeIds, merged with
// the object's current ones. Otherwise they are left as they are.
func (s *ImportService) SetSecondaryTypes(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secondaryTypes = enabled
}

// Destinations returns the resolver shared with this service's cache.
func (s *ImportService) Destinations() *DestinationResolver {
	return s.destinations
}

// Types returns the type resolver shared with this service.
func (s *ImportService) Types() *TypeResolver {
	return s.types
}

// Import processes a single item.
func (s *ImportService) Import(ctx context.Context, item *domain.ImportItem) (*domain.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.importItem(ctx, 0, item)
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

// ImportAll processes items in order, continuing past item failures.
// "@key" references are resolved against keys imported earlier in the batch.
// The run stops early only when the session is lost or ctx is done.
func (s *ImportService) ImportAll(ctx context.Context, items []*domain.ImportItem) (*domain.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gateway == nil {
		return nil, &domain.ImportError{Stage: domain.StageSession, Err: domain.ErrRepositoryUnavailable}
	}

	batch := &domain.BatchResult{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
		Results:   make([]domain.ImportResult, 0, len(items)),
	}
	logger.Section(fmt.Sprintf("Import run %s: %d items", batch.RunID, len(items)))

	keys := make(keyIndex)
	var runErr error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("import run stopped after %d of %d items: %w", i, len(items), err)
			break
		}
		if item != nil {
			keys.resolve(item)
		}

		res := s.importItem(ctx, i, item)
		batch.Results = append(batch.Results, *res)
		batch.Summary.Add(res.Action)

		if item != nil && item.Key != "" && res.ObjectID != "" {
			keys[item.Key] = res.ObjectID
		}
		if isUnavailable(res.Err) {
			runErr = res.Err
			break
		}
	}
	batch.EndedAt = s.now()

	s.record(ctx, batch)
	return batch, runErr
}

// importItem drives one item through the state machine. The result is never nil.
func (s *ImportService) importItem(ctx context.Context, pos int, item *domain.ImportItem) *domain.ImportResult {
	res := &domain.ImportResult{Position: pos}
	if item != nil {
		res.Name = item.Name()
	}

	if s.gateway == nil {
		return s.fail(res, domain.StageSession, domain.ErrRepositoryUnavailable)
	}

	// Validate
	if item == nil || !item.IsValid() {
		return s.fail(res, domain.StageValidate,
			fmt.Errorf("%w: a name and a destination or site are required", domain.ErrValidation))
	}

	// Resolve destination
	dest, err := s.destinations.Resolve(ctx, item)
	if err != nil {
		return s.fail(res, domain.StageDestination, err)
	}

	// Resolve type
	def, err := s.types.Resolve(ctx, item.Type())
	if err != nil {
		return s.fail(res, domain.StageType, err)
	}

	// Merge
	existing, err := s.merge.FindChild(ctx, dest, res.Name)
	if err != nil {
		return s.fail(res, domain.StageMerge, err)
	}

	var obj *domain.RepositoryObject
	switch decision := Decide(existing, s.overwrite, !item.Content.IsAbsent()); decision {
	case DecisionSkip:
		logger.Info("Existing item not updated: %s", res.Name)
		res.Action = domain.ActionSkipped
		res.ObjectID = existing.ID
		// Later items may name it as a destination or association target.
		s.cache.PutObject(existing)
		return res

	case DecisionCreate:
		obj, err = s.create(ctx, item, dest, def)
		if err != nil {
			return s.fail(res, domain.StageMerge, err)
		}
		res.Action = domain.ActionCreated

	default:
		var warning *domain.Warning
		obj, warning, err = s.update(ctx, item, existing, decision == DecisionUpdateContent)
		if err != nil {
			return s.fail(res, domain.StageMerge, err)
		}
		if warning != nil {
			res.Warnings = append(res.Warnings, *warning)
		}
		res.Action = domain.ActionUpdated
	}
	res.ObjectID = obj.ID

	// Link
	if assocs := item.Associations(); len(assocs) > 0 {
		res.Links = s.linker.Link(ctx, obj.ID, assocs)
		res.Warnings = append(res.Warnings, linkWarnings(res.Links)...)
	}

	// Cache
	s.cache.PutObject(obj)
	return res
}

// create makes a new object of the kind the item's type and content call for.
func (s *ImportService) create(
	ctx context.Context,
	item *domain.ImportItem,
	dest *domain.RepositoryObject,
	def *domain.TypeDefinition,
) (*domain.RepositoryObject, error) {
	name := item.Name()
	props := item.Properties()

	if def.BaseType == domain.BaseFolder {
		if !item.Content.IsAbsent() {
			logger.Warn("Content ignored for folder %s", name)
		}
		logger.Info("Creating folder: %s", name)
		id, err := s.gateway.CreateFolder(ctx, props, dest.ID)
		if err != nil {
			return nil, fmt.Errorf("create folder: %w", err)
		}
		return s.fetch(ctx, id)
	}

	if !item.Content.IsAbsent() {
		stream, err := s.content.Build(item, true)
		if err != nil {
			return nil, err
		}
		logger.Info("Creating document: %s (%s)", name, stream.MimeType)
		obj, err := s.gateway.CreateDocument(ctx, props, dest.ID, stream, domain.VersioningMajor)
		if err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
		return obj, nil
	}

	logger.Info("Creating item: %s", name)
	id, err := s.gateway.CreateItem(ctx, props, dest.ID)
	if err != nil {
		if errors.Is(err, domain.ErrContentAlreadyExists) {
			logger.Warn("Content already exists: %s", name)
		}
		return nil, fmt.Errorf("create item: %w", err)
	}
	return s.fetch(ctx, id)
}

// update applies the item's properties to existing and, when withContent,
// replaces its content stream. A stream the object cannot hold is a warning.
func (s *ImportService) update(
	ctx context.Context,
	item *domain.ImportItem,
	existing *domain.RepositoryObject,
	withContent bool,
) (*domain.RepositoryObject, *domain.Warning, error) {
	name := item.Name()
	logger.Info("Updating node: %s", name)

	// The primary type of an existing object is fixed.
	props := item.Properties()
	delete(props, domain.PropObjectTypeID)
	if aspects := item.Type().Aspects; len(aspects) > 0 {
		if s.secondaryTypes {
			props[domain.PropSecondaryObjectTypeIDs] = strings.Join(
				mergeAspects(secondaryTypeIDs(existing), aspects), ",")
		} else {
			logger.Warn("Aspects not applied to existing %s: %s", name, strings.Join(aspects, ","))
		}
	}

	obj, err := s.gateway.UpdateProperties(ctx, existing.ID, props)
	if err != nil {
		return nil, nil, fmt.Errorf("update properties: %w", err)
	}
	if obj == nil {
		obj = existing
	}
	if !withContent {
		return obj, nil, nil
	}

	stream, err := s.content.Build(item, false)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Updating content on %s with content (%s)", obj, stream.MimeType)

	outcome, err := s.gateway.SetContentStream(ctx, obj.ID, stream, true)
	if errors.Is(err, domain.ErrStreamNotSupported) {
		outcome, err = domain.OutcomeUnsupported, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("set content stream: %w", err)
	}
	if outcome == domain.OutcomeUnsupported {
		w := &domain.Warning{
			Kind:    domain.WarnContentUpdateUnsupported,
			Target:  obj.ID,
			Message: "unable to update content of " + name,
		}
		logger.Warn("%s", w.Message)
		return obj, w, nil
	}
	return obj, nil, nil
}

// secondaryTypeIDs returns the secondary types an object already carries.
func secondaryTypeIDs(obj *domain.RepositoryObject) []string {
	switch v := obj.Properties[domain.PropSecondaryObjectTypeIDs].(type) {
	case []any:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			if str, ok := id.(string); ok && str != "" {
				ids = append(ids, str)
			}
		}
		return ids
	case []string:
		return v
	case string:
		return splitTargets(v)
	}
	return nil
}

// mergeAspects appends the aspects not already present, keeping order.
func mergeAspects(current, aspects []string) []string {
	out := append([]string(nil), current...)
	for _, a := range aspects {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *ImportService) fetch(ctx context.Context, id string) (*domain.RepositoryObject, error) {
	obj, err := s.gateway.GetObject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get created object %s: %w", id, err)
	}
	return obj, nil
}

func (s *ImportService) fail(res *domain.ImportResult, stage domain.Stage, err error) *domain.ImportResult {
	res.Action = domain.ActionFailed
	res.Err = &domain.ImportError{Stage: stage, Item: res.Name, Err: err}
	logger.Error("%v", res.Err)
	return res
}

// record saves a finished run to the journal. Failures are only logged.
func (s *ImportService) record(ctx context.Context, batch *domain.BatchResult) {
	logger.Info("Import run %s: %d created, %d updated, %d skipped, %d failed",
		batch.RunID, batch.Summary.Created, batch.Summary.Updated, batch.Summary.Skipped, batch.Summary.Failed)
	if s.journal == nil {
		return
	}

	// Cancelled runs are recorded too.
	ctx = context.WithoutCancel(ctx)

	run := &domain.ImportRun{
		ID:        batch.RunID,
		StartedAt: batch.StartedAt,
		EndedAt:   batch.EndedAt,
		Overwrite: s.overwrite,
		Summary:   batch.Summary,
	}
	if err := s.journal.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to save import run %s: %v", batch.RunID, err)
		return
	}

	records := make([]domain.ItemRecord, len(batch.Results))
	for i := range batch.Results {
		records[i] = domain.NewItemRecord(batch.RunID, &batch.Results[i])
	}
	if err := s.journal.SaveItems(ctx, records); err != nil {
		logger.Warn("Failed to save import results for run %s: %v", batch.RunID, err)
	}
}

func defaultRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
