package preview

import (
	"context"
	"sync"
	"time"

	"github.com/forgeide/forge/internal/errors"
	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/vfs"
)

// Result is the output of one regeneration pass.
type Result struct {
	Generation uint64
	Entry      Entry
	Document   string
	Map        *ModuleMap
	Errors     []errors.TransformError
	BuiltAt    time.Time
}

// Pipeline drives debounced preview regeneration. Tree mutations reset a
// quiet-period timer; a burst of edits collapses into a single rebuild
// using the content as of the last edit. A newer mutation supersedes a
// pending regeneration rather than queueing behind it, and a stale
// build's result is discarded if a newer build finished first.
type Pipeline struct {
	tree        *vfs.Tree
	transformer *Transformer
	generator   *Generator
	log         logging.Logger
	debounce    time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	target      string
	generation  uint64
	current     *Result
	subscribers []chan Result
}

// NewPipeline creates a pipeline over the given tree.
func NewPipeline(tree *vfs.Tree, transformer *Transformer, debounce time.Duration, log logging.Logger) *Pipeline {
	return &Pipeline{
		tree:        tree,
		transformer: transformer,
		generator:   NewGenerator(),
		log:         log.WithComponent("pipeline"),
		debounce:    debounce,
	}
}

// Start begins listening for tree mutations and performs the initial
// build. It returns immediately; regeneration happens on a quiet-period
// timer until ctx is done.
func (p *Pipeline) Start(ctx context.Context) {
	p.Rebuild()
	ch := p.tree.Watch()
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.mu.Lock()
				if p.timer != nil {
					p.timer.Stop()
				}
				p.mu.Unlock()
				return
			case <-ch:
				p.schedule()
			}
		}
	}()
}

// schedule resets the debounce timer. Mirrors the timer-reset shape of
// the disk watcher's debouncer.
func (p *Pipeline) schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		p.Rebuild()
	})
}

// SetTarget selects an explicit preview target and schedules a rebuild.
// An empty id restores automatic entry detection.
func (p *Pipeline) SetTarget(id string) {
	p.mu.Lock()
	p.target = id
	p.mu.Unlock()
	p.schedule()
}

// Rebuild runs one full pass synchronously against the current tree
// snapshot and returns its result. The stored "current" result only
// advances if no newer pass started in the meantime.
func (p *Pipeline) Rebuild() Result {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	target := p.target
	p.mu.Unlock()

	start := time.Now()
	entry := SelectEntry(p.tree, target)
	mm, transformErrs := p.transformer.Build(p.tree)
	doc := p.generator.Document(entry, mm, gen, transformErrs)

	if entry.Kind == EntryDocument {
		for _, ref := range LocalScriptRefs(entry.Node.Content) {
			if _, ok := mm.Lookup(ref); ok {
				continue
			}
			if _, ok := mm.Lookup(stripExtension(ref)); ok {
				continue
			}
			p.log.Warn(context.Background(), nil, "entry document references unknown script", "src", ref)
		}
	}

	res := Result{
		Generation: gen,
		Entry:      entry,
		Document:   doc,
		Map:        mm,
		Errors:     transformErrs,
		BuiltAt:    time.Now(),
	}

	p.mu.Lock()
	stale := gen != p.generation
	var subs []chan Result
	if !stale {
		p.current = &res
		subs = append(subs, p.subscribers...)
	}
	p.mu.Unlock()

	if stale {
		p.log.Debug(context.Background(), "discarding stale regeneration", "generation", gen)
		return res
	}

	p.log.Info(context.Background(), "preview regenerated",
		"generation", gen,
		"entry", entry.Path,
		"modules", len(mm.Modules),
		"styles", len(mm.Styles),
		"errors", len(transformErrs),
		"duration", time.Since(start).String(),
	)
	for _, ch := range subs {
		select {
		case ch <- res:
		default:
		}
	}
	return res
}

// Current returns the latest completed result.
func (p *Pipeline) Current() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Result{}, false
	}
	return *p.current, true
}

// IsStale reports whether a generation number refers to a superseded
// pass. The host uses this to discard sandbox messages that arrive after
// their document was regenerated.
func (p *Pipeline) IsStale(generation uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == nil || generation != p.current.Generation
}

// Subscribe returns a channel receiving every completed, non-stale
// result. Sends are non-blocking; slow consumers miss intermediate
// results, never the channel.
func (p *Pipeline) Subscribe() <-chan Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Result, 1)
	p.subscribers = append(p.subscribers, ch)
	return ch
}
