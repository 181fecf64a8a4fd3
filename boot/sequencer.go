// Package boot implements the BootSequencer described in spec.md §4.8: a
// fixed ten-step recipe that must execute identically on every launch,
// wiring together every collaborator package into one running core.
package boot

import (
	"context"
	"fmt"
	"log"

	"github.com/tabworks/panecore/bootconfig"
	"github.com/tabworks/panecore/cache"
	"github.com/tabworks/panecore/coordinator"
	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/fsactor"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/persist"
	"github.com/tabworks/panecore/runtimereg"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

// ActorHandle lets an external collaborator (git projector, forge actor)
// plug into steps 6 and 7 of the boot recipe without this package knowing
// its concrete type — both are genuinely out of scope (spec.md §2's
// "Out of scope (external collaborators)"); a nil hook is skipped with a
// trace line noting no collaborator was configured.
type ActorHandle func(ctx context.Context, bus *eventbus.Bus) (stop func(), err error)

// Hooks are the optional external-collaborator starters for steps the core
// does not implement itself.
type Hooks struct {
	StartGitProjector ActorHandle
	StartForgeActor   ActorHandle
}

// Result is everything a host process needs after a successful boot.
type Result struct {
	Config      bootconfig.Config
	Store       *workspace.Store
	Views       *view.Registry
	Surfaces    *surface.Policy
	Runtimes    *runtimereg.Registry
	Bus         *eventbus.Bus
	Coordinator *coordinator.Coordinator
	CacheStore  *cache.Store
	Cache       *cache.Coordinator
	FSSource    *fsactor.Source
	UI          persist.UIFile
	Persistor   *persist.Persistor

	stopFuncs []func()
}

// Shutdown runs every registered stop hook in reverse-start order.
func (r *Result) Shutdown() {
	for i := len(r.stopFuncs) - 1; i >= 0; i-- {
		r.stopFuncs[i]()
	}
}

// Sequencer runs the fixed boot recipe.
type Sequencer struct {
	ids           *id.Allocator
	cfg           bootconfig.Config
	workspaceID   string
	viewFactory   coordinator.ViewFactory
	surfaceFactory surface.Factory
	surfaceConfig coordinator.SurfaceConfigFor
	hooks         Hooks
	nowFn         func() int64
}

// New returns a Sequencer. viewFactory/surfaceFactory/surfaceConfig are the
// UI-layer hooks the coordinator needs to materialize live views and
// surfaces (spec.md §6 lists these as external collaborator interfaces).
func New(ids *id.Allocator, cfg bootconfig.Config, workspaceID string, viewFactory coordinator.ViewFactory, surfaceFactory surface.Factory, surfaceConfig coordinator.SurfaceConfigFor, hooks Hooks, nowFn func() int64) *Sequencer {
	return &Sequencer{
		ids: ids, cfg: cfg, workspaceID: workspaceID,
		viewFactory: viewFactory, surfaceFactory: surfaceFactory, surfaceConfig: surfaceConfig,
		hooks: hooks, nowFn: nowFn,
	}
}

// Run executes the ten-step recipe and restores pane views in stages.
func (s *Sequencer) Run(ctx context.Context) (*Result, error) {
	res := &Result{Config: s.cfg, Persistor: persist.New(s.cfg.WorkspaceRootDir, s.workspaceID)}

	// 1. load canonical store.
	log.Printf("boot: [1/10] loading canonical store")
	res.Store = workspace.New(s.ids)
	if err := res.Persistor.LoadWorkspace(res.Store); err != nil {
		return nil, fmt.Errorf("boot: load canonical store: %w", err)
	}

	// 2. load derived cache store.
	log.Printf("boot: [2/10] loading derived cache store")
	cacheStore, err := cache.Open(s.cfg.CacheDBPath)
	if err != nil {
		return nil, fmt.Errorf("boot: load cache store: %w", err)
	}
	res.CacheStore = cacheStore
	res.stopFuncs = append(res.stopFuncs, func() { cacheStore.Close() })

	// 3. load UI store.
	log.Printf("boot: [3/10] loading UI store")
	uiFile, err := res.Persistor.LoadUI()
	if err != nil {
		return nil, fmt.Errorf("boot: load UI store: %w", err)
	}
	res.UI = uiFile

	// 4. construct runtime event bus + orchestrator + registries.
	log.Printf("boot: [4/10] constructing event bus, coordinator, and registries")
	res.Bus = eventbus.New()
	res.Views = view.New()
	res.Surfaces = surface.New(s.ids, s.surfaceFactory, s.nowFn, int64(s.cfg.SurfaceTTLSeconds))
	res.Runtimes = runtimereg.New(s.ids)
	tracer, shutdownTracer, err := coordinator.NewTracer(coordinator.TracingConfig{
		Enabled:  s.cfg.TracingEnabled,
		Exporter: "stdout",
	})
	if err != nil {
		return nil, fmt.Errorf("boot: construct tracer: %w", err)
	}
	res.stopFuncs = append(res.stopFuncs, func() { shutdownTracer(context.Background()) })
	res.Coordinator = coordinator.New(s.ids, res.Store, res.Views, res.Surfaces, res.Runtimes, tracer, s.viewFactory, s.surfaceConfig)

	// 5. start filesystem actor.
	log.Printf("boot: [5/10] starting filesystem actor")
	fsSource, err := fsactor.New(res.Bus)
	if err != nil {
		return nil, fmt.Errorf("boot: start filesystem actor: %w", err)
	}
	res.FSSource = fsSource
	res.stopFuncs = append(res.stopFuncs, func() { fsSource.Close() })

	// 6. start git projector (external collaborator; no-op unless a hook is
	// configured — spec.md §2 lists it as out of scope for this core).
	log.Printf("boot: [6/10] starting git projector")
	if s.hooks.StartGitProjector != nil {
		stop, err := s.hooks.StartGitProjector(ctx, res.Bus)
		if err != nil {
			return nil, fmt.Errorf("boot: start git projector: %w", err)
		}
		if stop != nil {
			res.stopFuncs = append(res.stopFuncs, stop)
		}
	} else {
		log.Printf("boot: [6/10] no git projector hook configured, skipping")
	}

	// 7. start forge actor (same as step 6 — external collaborator).
	log.Printf("boot: [7/10] starting forge actor")
	if s.hooks.StartForgeActor != nil {
		stop, err := s.hooks.StartForgeActor(ctx, res.Bus)
		if err != nil {
			return nil, fmt.Errorf("boot: start forge actor: %w", err)
		}
		if stop != nil {
			res.stopFuncs = append(res.stopFuncs, stop)
		}
	} else {
		log.Printf("boot: [7/10] no forge actor hook configured, skipping")
	}

	// 8. start cache coordinator.
	log.Printf("boot: [8/10] starting cache coordinator")
	res.Cache = cache.New(res.Bus, res.Store, res.CacheStore, s.nowFn)
	stopCache := res.Cache.Start()
	res.stopFuncs = append(res.stopFuncs, stopCache)

	// 9. trigger initial topology sync: cue the filesystem actor with every
	// worktree root already known to the canonical store.
	log.Printf("boot: [9/10] triggering initial topology sync")
	for _, repo := range res.Store.AllRepos() {
		for _, wtID := range repo.Worktrees {
			wt := res.Store.Worktree(wtID)
			if wt == nil {
				continue
			}
			if err := res.FSSource.Register(wt.ID, repo.ID, wt.Path); err != nil {
				log.Printf("boot: topology sync: could not watch %s: %v", wt.Path, err)
			}
		}
	}

	// 10. signal ready for reactive UI, then restore pane views in stages.
	log.Printf("boot: [10/10] ready for reactive UI")
	res.Coordinator.RestoreAllViews(nil)

	return res, nil
}
