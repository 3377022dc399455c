// Package host implements the embedder-facing surface of spec §6: create
// a document, load source into it, run its `#[main]` functions, call a
// function by graph path, run its `#[test]` functions, export it through
// a registered format, and flush its deadpool. It is the one package
// that wires graphstore, vm, process, library, stdlib, and bstf together
// into a single embeddable unit — every other package only knows its
// own concern.
//
// Grounded on the teacher repo's functional-options construction
// (graph.GraphOption, generalized here as host.Option) and
// internal/trace logging convention, plus original_source/src/runtime/runtime.rs's
// Runtime::test report shape (see host/test.go). The cobra CLI that
// drives this package lives in cmd/stofhost.
package host

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	billy "github.com/go-git/go-billy/v5"

	"github.com/stof-engine/stof/bstf"
	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	httplib "github.com/stof-engine/stof/library/http"
	fslib "github.com/stof-engine/stof/library/fs"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/stdlib"
	"github.com/stof-engine/stof/vm"
)

// Loader is the source-language front end's interface into the engine
// (spec §1: "the source-language parser... consumes text, produces
// instruction streams and graph edits" — deliberately out of scope
// here). A host wires in whatever Loader its embedding provides; this
// package never parses `.stof` text itself.
type Loader interface {
	Load(g *graphstore.Graph) error
}

// config holds the knobs set through the functional Options below
// (WithTickBudget, WithHTTPPool, ...), following the teacher's
// graph.GraphOption convention. It is unexported: hosts configure a
// Document only through those options.
type config struct {
	logger        *slog.Logger
	tickBudget    func(live int) int
	httpPoolSize  int
	httpTimeout   time.Duration
	fsRoot        billy.Filesystem
	idFunc        func() string
	skipStdlib    bool
	skipHTTP      bool
	skipFs        bool
	instrCodec    bstf.InstructionCodec
}

// Option configures a Document at construction time.
type Option func(*config)

// WithLogger installs a structured logger shared by the graph, the
// scheduler, and (transitively) every operation they log through
// internal/obslog.
func WithLogger(logger *slog.Logger) Option { return func(c *config) { c.logger = logger } }

// WithTickBudget overrides the scheduler's per-tick fair-share formula
// (default: SPEC_FULL.md's max(10, 500/live) rule).
func WithTickBudget(fn func(live int) int) Option {
	return func(c *config) { c.tickBudget = fn }
}

// WithHTTPPool sets the Http.fetch reactor's worker pool size (<=0 means
// unlimited) and per-request default timeout.
func WithHTTPPool(size int, timeout time.Duration) Option {
	return func(c *config) { c.httpPoolSize = size; c.httpTimeout = timeout }
}

// WithFilesystem installs the billy.Filesystem backing fs.read/fs.write.
// Defaults to an in-memory filesystem (memfs.New()) so a Document is
// usable without any host-side wiring; pass an osfs-rooted directory in
// production.
func WithFilesystem(fsRoot billy.Filesystem) Option { return func(c *config) { c.fsRoot = fsRoot } }

// WithIDFunc overrides both the graph's and the scheduler's id
// generator, mainly for deterministic tests.
func WithIDFunc(fn func() string) Option { return func(c *config) { c.idFunc = fn } }

// WithoutStdlib skips registering the Std/Number/String/List/Map/Set/
// Object scopes, for embedders that want to supply their own.
func WithoutStdlib() Option { return func(c *config) { c.skipStdlib = true } }

// WithoutHTTP skips registering the Http scope.
func WithoutHTTP() Option { return func(c *config) { c.skipHTTP = true } }

// WithoutFs skips registering the fs scope.
func WithoutFs() Option { return func(c *config) { c.skipFs = true } }

// WithInstructionCodec installs the codec used to round-trip function
// bodies through bstf export/import (spec §4.1). Defaults to a codec
// that discards bodies on export and restores empty ones on import,
// since the instruction-stream encoding is a vm-level concern a host
// without a real front end has no other source for.
func WithInstructionCodec(codec bstf.InstructionCodec) Option {
	return func(c *config) { c.instrCodec = codec }
}

// Document is one embeddable unit: a graph, the scheduler that runs
// processes over it, and the library registry those processes call
// into. It is the thing a host creates, loads source into, and runs.
type Document struct {
	Graph     *graphstore.Graph
	Scheduler *process.Scheduler
	Registry  *library.Registry

	cfg       config
	formats   map[string]Format
	httpClient *httplib.Client
}

// New constructs an empty Document with the standard library, Http, and
// fs scopes registered (each skippable via options), matching spec §6's
// "register library function" extension point being additive, not
// required, for a minimal embedding.
func New(opts ...Option) *Document {
	cfg := config{
		tickBudget: nil, // nil means "use process package's own default"
		fsRoot:     memfs.New(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var gopts []graphstore.Option
	if cfg.logger != nil {
		gopts = append(gopts, graphstore.WithLogger(cfg.logger))
	}
	if cfg.idFunc != nil {
		gopts = append(gopts, graphstore.WithIDFunc(cfg.idFunc))
	}
	g := graphstore.New(gopts...)

	reg := library.NewRegistry()
	if !cfg.skipStdlib {
		stdlib.Register(reg)
	}

	var client *httplib.Client
	if !cfg.skipHTTP {
		timeout := cfg.httpTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = httplib.NewClient(cfg.httpPoolSize, timeout)
		httplib.Register(reg, client)
	}
	if !cfg.skipFs {
		fslib.Register(reg, cfg.fsRoot)
	}

	var sopts []process.Option
	if cfg.logger != nil {
		sopts = append(sopts, process.WithLogger(cfg.logger))
	}
	if cfg.idFunc != nil {
		sopts = append(sopts, process.WithIDFunc(cfg.idFunc))
	}
	if cfg.tickBudget != nil {
		sopts = append(sopts, process.WithTickBudget(cfg.tickBudget))
	}
	sched := process.New(g, reg, sopts...)

	return &Document{
		Graph:      g,
		Scheduler:  sched,
		Registry:   reg,
		cfg:        cfg,
		formats:    make(map[string]Format),
		httpClient: client,
	}
}

// LoadSource runs loader against the document's graph (spec §6 "load
// source"). The front end that parses `.stof` text is an external
// collaborator (spec §1); this is the seam it plugs into.
func (d *Document) LoadSource(loader Loader) error {
	return loader.Load(d.Graph)
}

// RegisterLibrary installs fn under scope, extending the library
// surface beyond the default Std/Number/String/List/Map/Set/Object/
// Http/fs scopes (spec §6 "register library function").
func (d *Document) RegisterLibrary(scope string, fn vm.LibraryFunction) {
	d.Registry.Register(scope, fn)
}

// FlushDeadpool drains the one-tick buffer of recently-removed nodes
// and data records (spec §4.1 "Deadpool").
func (d *Document) FlushDeadpool() graphstore.Deadpool {
	return d.Graph.FlushDeadpool()
}
