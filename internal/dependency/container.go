// Package dependency wires core npcgate services using go.uber.org/dig.
package dependency

import (
	"time"

	"go.uber.org/dig"

	"github.com/npcgate/npcgate/internal/agent"
	"github.com/npcgate/npcgate/internal/bus"
	"github.com/npcgate/npcgate/internal/completion"
	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/observability"
	"github.com/npcgate/npcgate/internal/schema"
	"github.com/npcgate/npcgate/internal/session"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	completer schema.Completer
	msgBus    *bus.MessageBus
	store     *session.Store
	sweeper   *session.Sweeper
	loop      *agent.Loop
	metrics   *observability.Metrics
}

func (c *Container) Completer() schema.Completer     { return c.completer }
func (c *Container) MessageBus() *bus.MessageBus     { return c.msgBus }
func (c *Container) Store() *session.Store           { return c.store }
func (c *Container) Sweeper() *session.Sweeper       { return c.sweeper }
func (c *Container) Loop() *agent.Loop               { return c.loop }
func (c *Container) Metrics() *observability.Metrics { return c.metrics }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		newCompleter,
		newMessageBus,
		newStore,
		newMetrics,
		newSweeper,
		newPersonas,
		newOrchestrator,
		newLoop,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		completer schema.Completer,
		msgBus *bus.MessageBus,
		store *session.Store,
		sweeper *session.Sweeper,
		loop *agent.Loop,
		metrics *observability.Metrics,
	) {
		result = &Container{
			completer: completer,
			msgBus:    msgBus,
			store:     store,
			sweeper:   sweeper,
			loop:      loop,
			metrics:   metrics,
		}
	})
	return result, err
}

func newCompleter(cfg *config.Config) schema.Completer {
	return completion.NewClient(completion.Params{
		APIKey:    cfg.Claude.APIKey,
		APIBase:   cfg.Claude.APIBase,
		Model:     cfg.Claude.Model,
		MaxTokens: cfg.Claude.MaxTokens,
		Timeout:   cfg.CompletionTimeout(),
	})
}

func newMessageBus() *bus.MessageBus {
	return bus.NewMessageBus(100)
}

func newStore(cfg *config.Config) *session.Store {
	return session.NewStore(cfg.NPC.HistoryPairs)
}

func newMetrics(store *session.Store) *observability.Metrics {
	return observability.NewMetrics("npcgate", func() float64 {
		return float64(store.Len())
	})
}

func newSweeper(cfg *config.Config, store *session.Store, metrics *observability.Metrics) *session.Sweeper {
	s := session.NewSweeper(store, cfg.IdleTimeout(), time.Minute)
	s.OnEvict(func(removed int) {
		metrics.EvictedSessions.Add(float64(removed))
	})
	return s
}

func newPersonas(cfg *config.Config) (*config.PersonaRegistry, error) {
	return config.LoadPersonas(cfg.PersonasPath(), cfg.NPC.DefaultPersonality)
}

func newOrchestrator(store *session.Store, completer schema.Completer) *agent.Orchestrator {
	return agent.NewOrchestrator(store, completer)
}

func newLoop(
	msgBus *bus.MessageBus,
	orch *agent.Orchestrator,
	personas *config.PersonaRegistry,
	cfg *config.Config,
	metrics *observability.Metrics,
) *agent.Loop {
	return agent.NewLoop(msgBus, orch, personas, agent.Settings{
		DefaultPersonality: cfg.NPC.DefaultPersonality,
		FallbackReply:      cfg.NPC.FallbackReply,
	}, metrics)
}
