package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"morphcore/internal/blob"
	"morphcore/internal/catalog"
	"morphcore/internal/cross"
	"morphcore/internal/report"
	"morphcore/pkg/domain"
)

const (
	opRegisterSpecies = "register_species"
	opUpdateSpecies   = "update_species"
	opUpsertSpecies   = "upsert_species"
	opDeleteSpecies   = "delete_species"
	opLoadCatalog     = "load_catalog"
	opResolve         = "resolve"
	opParseParent     = "parse_parent"
	opCross           = "cross"
	opCrossText       = "cross_text"
	opImportBundle    = "import_bundle"
	opExportBundle    = "export_bundle"
	opListBundles     = "list_bundles"
	opInstallPlugin   = "install_plugin"
)

type auditMetadata struct {
	entity EntityType
	action Action
}

// auditedOperations lists the catalog mutations that produce audit entries.
var auditedOperations = map[string]auditMetadata{
	opRegisterSpecies: {entity: EntitySpecies, action: ActionCreate},
	opUpdateSpecies:   {entity: EntitySpecies, action: ActionUpdate},
	opUpsertSpecies:   {entity: EntitySpecies, action: ActionUpdate},
	opDeleteSpecies:   {entity: EntitySpecies, action: ActionDelete},
	opImportBundle:    {entity: EntitySpecies, action: ActionUpdate},
}

// Service coordinates catalog storage, compiled catalog caching, plugins and
// cross evaluation. It is safe for concurrent use.
type Service struct {
	store    PersistentStore
	engine   *RulesEngine
	cache    *catalogCache
	blobs    blob.Store
	prefixes *catalog.Prefixes
	maxGenes int

	mu      sync.Mutex
	plugins map[string]PluginMetadata

	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

type serviceOptions struct {
	clock     Clock
	clockSet  bool
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	blobs     blob.Store
	prefixes  *catalog.Prefixes
	maxGenes  int
	cacheSize int
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:     ClockFunc(nil),
		logger:    noopLogger{},
		audit:     noopAuditRecorder{},
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		maxGenes:  cross.DefaultMaxGenes,
		cacheSize: DefaultCatalogCacheSize,
	}
}

// WithClock overrides the time source used for durations and audit timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
			o.clockSet = true
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink for catalog mutations.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithBlobStore enables bundle import and export against store.
func WithBlobStore(store blob.Store) ServiceOption {
	return func(o *serviceOptions) {
		o.blobs = store
	}
}

// WithResolverPrefixes replaces the prefix vocabulary used to index state tokens.
func WithResolverPrefixes(p catalog.Prefixes) ServiceOption {
	return func(o *serviceOptions) {
		o.prefixes = &p
	}
}

// WithMaxGenes caps the genes a single cross may combine. Non-positive values
// are ignored; the service always runs the engine with a cap.
func WithMaxGenes(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxGenes = n
		}
	}
}

// WithCatalogCacheSize bounds the compiled catalog cache.
func WithCatalogCacheSize(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

type rulesEngineProvider interface {
	RulesEngine() *RulesEngine
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

// NewService constructs a service backed by the supplied store. Plugin rules
// are registered on the store's rules engine when it exposes one.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.clockSet {
		if p, ok := store.(nowFuncProvider); ok {
			if fn := p.NowFunc(); fn != nil {
				o.clock = ClockFunc(fn)
			}
		}
	}
	var engine *RulesEngine
	if p, ok := store.(rulesEngineProvider); ok {
		engine = p.RulesEngine()
	}
	return &Service{
		store:    store,
		engine:   engine,
		cache:    newCatalogCache(o.cacheSize),
		blobs:    o.blobs,
		prefixes: o.prefixes,
		maxGenes: o.maxGenes,
		plugins:  make(map[string]PluginMetadata),
		clock:    o.clock,
		logger:   o.logger,
		audit:    o.audit,
		metrics:  o.metrics,
		tracer:   o.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine selects the default catalog rules.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// MaxGenes returns the configured gene cap for a single cross.
func (s *Service) MaxGenes() int {
	return s.maxGenes
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	span.End(err)
	duration := s.clock.Now().Sub(start)
	if duration < 0 {
		duration = 0
	}
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		s.recordAudit(ctx, op, entityID, duration, err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", duration)
	s.recordAudit(ctx, op, entityID, duration, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

func (s *Service) logViolations(op string, res Result) {
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", v.Severity, "entity_id", v.EntityID, "message", v.Message)
	}
}

// RegisterSpecies persists a new species catalog.
func (s *Service) RegisterSpecies(ctx context.Context, species Species) (Species, Result, error) {
	var (
		created Species
		res     Result
	)
	err := s.run(ctx, opRegisterSpecies, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateSpecies(species)
			return err
		})
		return strings.TrimSpace(species.Slug), err
	})
	s.logViolations(opRegisterSpecies, res)
	return created, res, err
}

// UpdateSpecies mutates a stored species. The revision advances on success.
func (s *Service) UpdateSpecies(ctx context.Context, slug string, mutator func(*Species) error) (Species, Result, error) {
	var (
		updated Species
		res     Result
	)
	err := s.run(ctx, opUpdateSpecies, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateSpecies(slug, mutator)
			return err
		})
		return slug, err
	})
	s.logViolations(opUpdateSpecies, res)
	return updated, res, err
}

// UpsertSpecies creates the species or replaces the name, genes and aliases
// of an existing one.
func (s *Service) UpsertSpecies(ctx context.Context, species Species) (Species, Result, error) {
	var (
		out Species
		res Result
	)
	err := s.run(ctx, opUpsertSpecies, func(ctx context.Context) (string, error) {
		var err error
		out, res, err = s.upsertSpecies(ctx, species)
		return strings.TrimSpace(species.Slug), err
	})
	s.logViolations(opUpsertSpecies, res)
	return out, res, err
}

func (s *Service) upsertSpecies(ctx context.Context, species Species) (Species, Result, error) {
	species.Slug = strings.TrimSpace(species.Slug)
	var out Species
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		if _, exists := tx.FindSpecies(species.Slug); exists {
			replacement := species.Clone()
			out, err = tx.UpdateSpecies(species.Slug, func(cur *Species) error {
				cur.Name = replacement.Name
				cur.Genes = replacement.Genes
				cur.Aliases = replacement.Aliases
				return nil
			})
			return err
		}
		out, err = tx.CreateSpecies(species)
		return err
	})
	return out, res, err
}

// DeleteSpecies removes a species catalog.
func (s *Service) DeleteSpecies(ctx context.Context, slug string) (Result, error) {
	var res Result
	err := s.run(ctx, opDeleteSpecies, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteSpecies(slug)
		})
		if err == nil {
			s.cache.evict(slug)
		}
		return slug, err
	})
	return res, err
}

// Species returns a stored species by slug.
func (s *Service) Species(slug string) (Species, bool) {
	return s.store.GetSpecies(slug)
}

// ListSpecies returns every stored species ordered by slug.
func (s *Service) ListSpecies() []Species {
	return s.store.ListSpecies()
}

// Catalog returns the compiled catalog for the current revision of a species.
func (s *Service) Catalog(ctx context.Context, slug string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := s.run(ctx, opLoadCatalog, func(context.Context) (string, error) {
		var err error
		cat, err = s.compiledCatalog(slug)
		return slug, err
	})
	return cat, err
}

func (s *Service) compiledCatalog(slug string) (*catalog.Catalog, error) {
	species, ok := s.store.GetSpecies(slug)
	if !ok {
		return nil, domain.ErrNotFound{Entity: EntitySpecies, ID: slug}
	}
	if cat, ok := s.cache.get(species); ok {
		return cat, nil
	}
	var opts []catalog.Option
	if s.prefixes != nil {
		opts = append(opts, catalog.WithPrefixes(*s.prefixes))
	}
	cat, err := catalog.Compile(species, opts...)
	if err != nil {
		return nil, err
	}
	s.cache.add(species, cat)
	s.logger.Debug("catalog compiled", "species", slug, "revision", species.Revision, "genes", cat.Len())
	return cat, nil
}

// Resolve returns ranked (gene, state) candidates for free text.
func (s *Service) Resolve(ctx context.Context, slug, text string) ([]catalog.Candidate, error) {
	var out []catalog.Candidate
	err := s.run(ctx, opResolve, func(context.Context) (string, error) {
		cat, err := s.compiledCatalog(slug)
		if err != nil {
			return slug, err
		}
		out = cat.Resolve(text)
		return slug, nil
	})
	return out, err
}

// ParseParent reads a free-text parent description into a selection.
func (s *Service) ParseParent(ctx context.Context, slug, text string) (catalog.ParseResult, error) {
	var out catalog.ParseResult
	err := s.run(ctx, opParseParent, func(context.Context) (string, error) {
		cat, err := s.compiledCatalog(slug)
		if err != nil {
			return slug, err
		}
		out, err = cat.ParseParent(text)
		return slug, err
	})
	return out, err
}

// CrossRequest pairs two parent selections within one species.
type CrossRequest struct {
	Species string
	Parent1 ParentSelection
	Parent2 ParentSelection
}

// Cross runs the engine for req and assembles the result tables.
func (s *Service) Cross(ctx context.Context, req CrossRequest) (report.Report, error) {
	var out report.Report
	err := s.run(ctx, opCross, func(context.Context) (string, error) {
		var err error
		out, err = s.cross(req)
		return req.Species, err
	})
	return out, err
}

func (s *Service) cross(req CrossRequest) (report.Report, error) {
	cat, err := s.compiledCatalog(req.Species)
	if err != nil {
		return report.Report{}, err
	}
	res, err := cross.Run(cat, req.Parent1, req.Parent2, s.maxGenes)
	if err != nil {
		return report.Report{}, err
	}
	return report.Assemble(res)
}

// TextCross is the outcome of a cross between two free-text parents.
type TextCross struct {
	Report  report.Report
	Parent1 catalog.ParseResult
	Parent2 catalog.ParseResult
}

// CrossText parses both parent descriptions and crosses them. Phrases that
// match nothing fail the call with an InputError listing them.
func (s *Service) CrossText(ctx context.Context, slug, parent1, parent2 string) (TextCross, error) {
	var out TextCross
	err := s.run(ctx, opCrossText, func(context.Context) (string, error) {
		cat, err := s.compiledCatalog(slug)
		if err != nil {
			return slug, err
		}
		if out.Parent1, err = cat.ParseParent(parent1); err != nil {
			return slug, fmt.Errorf("parent 1: %w", err)
		}
		if out.Parent2, err = cat.ParseParent(parent2); err != nil {
			return slug, fmt.Errorf("parent 2: %w", err)
		}
		unresolved := append(append([]string(nil), out.Parent1.Unresolved...), out.Parent2.Unresolved...)
		if len(unresolved) > 0 {
			return slug, &domain.InputError{Reason: "unrecognized parent description", Phrases: unresolved}
		}
		out.Report, err = s.cross(CrossRequest{Species: slug, Parent1: out.Parent1.Selection, Parent2: out.Parent2.Selection})
		return slug, err
	})
	return out, err
}

// InstallPlugin registers the plugin's rules on the store's rules engine and
// seeds its species catalogs. Seeds never replace a stored species.
func (s *Service) InstallPlugin(ctx context.Context, plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin is nil")
	}
	var meta PluginMetadata
	err := s.run(ctx, opInstallPlugin, func(ctx context.Context) (string, error) {
		name := plugin.Name()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.plugins[name]; exists {
			return name, fmt.Errorf("plugin %s already registered", name)
		}
		registry := NewPluginRegistry()
		if err := plugin.Register(registry); err != nil {
			return name, fmt.Errorf("register plugin %s: %w", name, err)
		}
		rules := registry.Rules()
		if len(rules) > 0 && s.engine == nil {
			return name, fmt.Errorf("plugin %s contributes rules but the store exposes no rules engine", name)
		}
		for _, rule := range rules {
			s.engine.Register(rule)
		}
		for _, species := range registry.Species() {
			if _, exists := s.store.GetSpecies(species.Slug); exists {
				continue
			}
			if _, _, err := s.RegisterSpecies(ctx, species); err != nil {
				return name, fmt.Errorf("plugin %s seed %s: %w", name, species.Slug, err)
			}
		}
		meta = newPluginMetadata(plugin, registry)
		s.plugins[name] = meta
		s.logger.Info("plugin installed", "plugin", name, "version", meta.Version, "species", meta.Species, "rules", meta.Rules)
		return name, nil
	})
	return meta, err
}

// RegisteredPlugins returns metadata for installed plugins ordered by name.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		meta.Species = append([]string(nil), meta.Species...)
		meta.Rules = append([]string(nil), meta.Rules...)
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
