package wire_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/config"
	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/infrastructure/persistence/memory"
	"story-loop-api/internal/wire"
)

var _ = Describe("Providers", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = &config.Config{}
		cfg.Workflow.MinApprovals = 2
		cfg.Workflow.PitchPoolSize = 5
		cfg.Workflow.MaxPages = 96
		cfg.Workflow.Weights = config.WeightsConfig{ApproveKeyword: 2, ApproveDemographic: 1, DenyKeyword: -1}
	})

	Describe("ProvideJobStore", func() {
		It("should default to the in-memory store", func() {
			store, err := wire.ProvideJobStore(cfg, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(store).To(BeAssignableToTypeOf(memory.NewJobStore()))
		})

		It("should require a redis connection for the redis store", func() {
			cfg.Jobs.Store = "redis"
			_, err := wire.ProvideJobStore(cfg, nil, nil)
			Expect(err).To(MatchError(ContainSubstring("redis")))
		})

		It("should require a postgres connection for the postgres store", func() {
			cfg.Jobs.Store = " Postgres "
			_, err := wire.ProvideJobStore(cfg, nil, nil)
			Expect(err).To(MatchError(ContainSubstring("postgres")))
		})

		It("should reject unknown backends", func() {
			cfg.Jobs.Store = "etcd"
			_, err := wire.ProvideJobStore(cfg, nil, nil)
			Expect(err).To(MatchError(ContainSubstring("unknown jobs.store")))
		})
	})

	Describe("ProvideDecisionLog", func() {
		It("should default to the in-memory log", func() {
			log, err := wire.ProvideDecisionLog(cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(log).NotTo(BeNil())
		})

		It("should require a postgres connection", func() {
			cfg.Jobs.DecisionLog = "postgres"
			_, err := wire.ProvideDecisionLog(cfg, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("optional collaborators", func() {
		It("should return nil interfaces when redis is absent", func() {
			cfg.Messaging.RedisStream.Enabled = true
			cfg.Security.RateLimit.Enabled = true
			Expect(wire.ProvideEventPublisher(cfg, nil)).To(BeNil())
			Expect(wire.ProvideRateLimiter(cfg, nil)).To(BeNil())
		})

		It("should skip postgres when no component stores there", func() {
			client, cleanup, err := wire.ProvidePostgresClient(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(client).To(BeNil())
			cleanup()
		})
	})

	Describe("ProvidePolicy", func() {
		It("should map workflow settings", func() {
			p := wire.ProvidePolicy(cfg)
			Expect(p.MinApprovals).To(Equal(2))
			Expect(p.PitchPoolSize).To(Equal(5))
			Expect(p.MaxPages).To(Equal(96))
			Expect(p.Weights.ApproveKeyword).To(Equal(2))
			Expect(p.Weights.DenyKeyword).To(Equal(-1))
			Expect(p.Weights.DenyDemographic).To(Equal(0))
		})
	})

	Describe("ProvideCovers", func() {
		It("should fall back to the built-in catalog", func() {
			Expect(wire.ProvideCovers(cfg)).To(Equal(entity.DefaultCovers()))
		})

		It("should use configured covers", func() {
			cfg.Workflow.Covers = []config.CoverConfig{{ID: 9, Name: "Tide", Style: "wash", Mood: "calm", Palette: []string{"#000"}}}
			covers := wire.ProvideCovers(cfg)
			Expect(covers).To(HaveLen(1))
			Expect(covers[0].ID).To(Equal(9))
			Expect(covers[0].Palette).To(Equal([]string{"#000"}))
		})
	})

	Describe("ProvideLLMOptions", func() {
		It("should leave temperature unset when not configured", func() {
			cfg.Workflow.LLM.Provider = " openai "
			opts := wire.ProvideLLMOptions(cfg)
			Expect(opts.Provider).To(Equal("openai"))
			Expect(opts.Temperature).To(BeNil())
		})

		It("should carry a configured temperature", func() {
			cfg.Workflow.LLM.Temperature = 0.5
			opts := wire.ProvideLLMOptions(cfg)
			Expect(opts.Temperature).NotTo(BeNil())
			Expect(*opts.Temperature).To(BeNumerically("~", 0.5, 0.001))
		})
	})

	Describe("ProvideHealthHandler", func() {
		It("should report ready with no external connections", func() {
			h := wire.ProvideHealthHandler(cfg, nil, nil)
			Expect(h).NotTo(BeNil())
		})
	})

	Describe("ProvideGenerationManager", func() {
		It("should build a manager over the configured store", func() {
			store, err := wire.ProvideJobStore(cfg, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			m := wire.ProvideGenerationManager(cfg, store, nil, nil, wire.ProvideLLMOptions(cfg))
			Expect(m.Running()).To(Equal(0))
			Expect(m.Shutdown(context.Background())).To(Succeed())
		})
	})
})
