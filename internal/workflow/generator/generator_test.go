package generator_test

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/components/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/workflow/generator"
	wfmodel "story-loop-api/internal/workflow/model"
	apperrors "story-loop-api/pkg/errors"
)

const attributesJSON = `{"primary":["hopeful","warm"],"secondary":["acoustic"],"vibe":"sunrise","emotional":{"uplifting":0.8,"peaceful":0.6},"genre_hints":["folk"]}`

const tracksJSON = "```json\n" + `{"tracks":[{"title":"Here Comes the Sun","artist":"The Beatles","reason":"bright","attributes":["hopeful"],"emotional":{"uplifting":0.9}}]}` + "\n```"

var cover = entity.CoverOption{ID: 4, Name: "Hearth", Style: "warm", Mood: "emotional"}

var _ = Describe("LLMGenerator", func() {
	var (
		ctx  context.Context
		chat *scriptedModel
		gen  *generator.LLMGenerator
	)

	BeforeEach(func() {
		ctx = context.Background()
		chat = &scriptedModel{}
		gen = generator.NewLLMGenerator(&staticFactory{model: chat}, generator.Config{TrackCount: 3})
	})

	Describe("AnalyzeIntent", func() {
		It("should build the genome from two calls", func() {
			chat.replies = []string{attributesJSON, tracksJSON}

			genome, err := gen.AnalyzeIntent(ctx, &wfmodel.IntentInput{Cover: cover, Intent: "coming home"})

			Expect(err).NotTo(HaveOccurred())
			Expect(genome.Profile.Primary).To(Equal([]string{"hopeful", "warm"}))
			Expect(genome.Profile.Emotional).To(HaveKeyWithValue("uplifting", 0.8))
			Expect(genome.Tracks).To(HaveLen(1))
			Expect(genome.Tracks[0].Artist).To(Equal("The Beatles"))
			Expect(chat.prompts[0]).To(ContainSubstring("coming home"))
			Expect(chat.prompts[1]).To(ContainSubstring("Suggest 3 songs"))
			Expect(chat.prompts[1]).To(ContainSubstring("uplifting 0.80"))
		})

		It("should return a GenerationError for malformed output", func() {
			chat.replies = []string{`not json at all`}

			_, err := gen.AnalyzeIntent(ctx, &wfmodel.IntentInput{Cover: cover, Intent: "x"})

			Expect(apperrors.IsGeneration(err)).To(BeTrue())
		})

		It("should return a GenerationError for non-conforming output", func() {
			chat.replies = []string{`{"primary":[],"secondary":[],"emotional":{}}`}

			_, err := gen.AnalyzeIntent(ctx, &wfmodel.IntentInput{Cover: cover, Intent: "x"})

			Expect(apperrors.IsGeneration(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("primary must not be empty"))
		})
	})

	It("should generate a pitch pool", func() {
		chat.replies = []string{`{"pitches":[{"title":"Tide","synopsis":"s","keywords":["sea"],"demographics":["adult"],"core":["return"]},{"title":"Ember","synopsis":"s","keywords":["fire"],"demographics":["teen"],"core":["hope"]}]}`}

		pitches, err := gen.GeneratePitches(ctx, &wfmodel.PitchInput{Cover: cover, Intent: "x", Count: 2, MaxPages: 40})

		Expect(err).NotTo(HaveOccurred())
		Expect(pitches).To(HaveLen(2))
		Expect(pitches[0].ID).To(BeEmpty())
		Expect(pitches[1].Keywords).To(Equal([]string{"fire"}))
		Expect(chat.prompts[0]).To(ContainSubstring("at most 40 pages"))
	})

	It("should refine a pitch from the preference state", func() {
		chat.replies = []string{`{"title":"Harbor","synopsis":"s","keywords":["home"],"demographics":["adult"],"core":["belonging"]}`}

		p, err := gen.RefinePitch(ctx, &wfmodel.RefineInput{
			Cover:         cover,
			Intent:        "x",
			Weights:       entity.WeightedTermSet{"home": 5, "sea": 2},
			ApprovedCores: []string{"return"},
			Exclude:       []string{"Tide"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(p.Title).To(Equal("Harbor"))
		Expect(chat.prompts[0]).To(ContainSubstring("home (5), sea (2)"))
		Expect(chat.prompts[0]).To(ContainSubstring("- Tide"))
	})

	It("should create a renumbered structure", func() {
		chat.replies = []string{`{"title":"Tide","synopsis":"s","chapters":[{"number":3,"title":"One","summary":"a","target_pages":2},{"number":7,"title":"Two","summary":"b","target_pages":1}]}`}

		s, err := gen.CreateStructure(ctx, &wfmodel.StructureInput{Cover: cover, MaxPages: 24})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Chapters[0].Number).To(Equal(1))
		Expect(s.Chapters[1].Number).To(Equal(2))
		Expect(s.TotalPages()).To(Equal(3))
	})

	Describe("WriteChapter", func() {
		var structure *entity.Structure

		BeforeEach(func() {
			structure = &entity.Structure{Title: "Tide", Chapters: []entity.Chapter{{Number: 1, Title: "One", TargetPages: 2}}}
		})

		It("should size max tokens from the target pages", func() {
			chat.replies = []string{"  Once upon a tide.  "}

			text, err := gen.WriteChapter(ctx, &wfmodel.ChapterInput{Structure: structure, Chapter: structure.Chapters[0], TargetWords: 500})

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Once upon a tide."))
			Expect(*model.GetCommonOptions(nil, chat.calls[0]...).MaxTokens).To(Equal(2 * generator.TokensPerPage))
			Expect(chat.prompts[0]).To(ContainSubstring("500"))
		})

		It("should keep an explicit max tokens", func() {
			chat.replies = []string{"text"}
			limit := 64

			_, err := gen.WriteChapter(ctx, &wfmodel.ChapterInput{
				Structure:  structure,
				Chapter:    structure.Chapters[0],
				LLMOptions: wfmodel.LLMOptions{MaxTokens: &limit},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(*model.GetCommonOptions(nil, chat.calls[0]...).MaxTokens).To(Equal(64))
		})

		It("should wrap upstream failures", func() {
			_, err := gen.WriteChapter(ctx, &wfmodel.ChapterInput{Structure: structure, Chapter: structure.Chapters[0]})

			Expect(apperrors.IsGeneration(err)).To(BeTrue())
		})
	})
})

var _ = Describe("CachedGenerator", func() {
	var (
		ctx   context.Context
		inner *countingGenerator
		cache *memoryCache
		gen   *generator.CachedGenerator
		in    *wfmodel.IntentInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		inner = &countingGenerator{}
		cache = newMemoryCache()
		gen = generator.NewCachedGenerator(inner, cache, time.Hour)
		in = &wfmodel.IntentInput{Cover: cover, Intent: "coming home"}
	})

	It("should reuse the genome for the same cover and intent", func() {
		first, err := gen.AnalyzeIntent(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		second, err := gen.AnalyzeIntent(ctx, in)
		Expect(err).NotTo(HaveOccurred())

		Expect(inner.Calls()).To(Equal(1))
		Expect(second.Profile.Primary).To(Equal(first.Profile.Primary))
	})

	It("should key on the intent", func() {
		other := &wfmodel.IntentInput{Cover: cover, Intent: "leaving home"}

		Expect(generator.GenomeKey(in)).NotTo(Equal(generator.GenomeKey(other)))
		Expect(generator.GenomeKey(in)).To(HavePrefix("genome:"))
	})

	It("should not cache failures", func() {
		inner.err = apperrors.Generation(errors.New("boom"), "analyze")

		_, err := gen.AnalyzeIntent(ctx, in)
		Expect(apperrors.IsGeneration(err)).To(BeTrue())

		inner.err = nil
		_, err = gen.AnalyzeIntent(ctx, in)
		Expect(err).NotTo(HaveOccurred())
		Expect(inner.Calls()).To(Equal(2))
	})

	It("should fall back to direct generation when the cache is down", func() {
		cache.err = errors.New("connection refused")

		genome, err := gen.AnalyzeIntent(ctx, in)

		Expect(err).NotTo(HaveOccurred())
		Expect(genome.Profile.Primary).To(Equal([]string{"hopeful"}))
		Expect(inner.Calls()).To(Equal(1))
	})
})
