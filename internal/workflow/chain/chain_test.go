package chain_test

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/workflow/chain"
	wfmodel "story-loop-api/internal/workflow/model"
)

func chapterVars() map[string]any {
	return map[string]any{
		"chapter_number":  1,
		"chapter_title":   "Dawn",
		"chapter_summary": "The swimmer returns to the sea.",
		"book_title":      "Tide",
		"book_synopsis":   "A story of return.",
		"outline_block":   "> 1. Dawn",
		"emphasis":        "hope, sea",
		"style":           "warm, emotional",
		"target_words":    500,
	}
}

func refineVars() map[string]any {
	return map[string]any{
		"intent":         "a book about coming home",
		"cover_style":    "warm",
		"cover_mood":     "emotional",
		"weights_block":  "hope (3)",
		"approved_block": "(none)",
		"denied_block":   "(none)",
		"exclude_block":  "(none)",
	}
}

var _ = Describe("PromptChain", func() {
	var (
		ctx     context.Context
		chat    *fakeChatModel
		factory *fakeFactory
	)

	BeforeEach(func() {
		ctx = context.Background()
		chat = &fakeChatModel{}
		factory = &fakeFactory{model: chat}
	})

	It("should render the template and pass model options", func() {
		temp := float32(0.4)
		maxTokens := 1000
		c := chain.NewPromptChain(factory, nil, chain.ChapterSpec)

		msg, err := c.Invoke(ctx, &chain.Request{
			Vars:       chapterVars(),
			LLMOptions: wfmodel.LLMOptions{Provider: "openai", Model: "gpt-x", Temperature: &temp, MaxTokens: &maxTokens},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Content).To(Equal("ok"))
		Expect(factory.provider).To(Equal("openai"))

		calls := chat.Calls()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].messages).To(HaveLen(2))
		Expect(calls[0].messages[0].Role).To(Equal(schema.System))
		Expect(calls[0].messages[1].Content).To(ContainSubstring("Dawn"))
		Expect(calls[0].messages[1].Content).To(ContainSubstring("500"))

		common := model.GetCommonOptions(nil, calls[0].opts...)
		Expect(*common.Temperature).To(Equal(temp))
		Expect(*common.MaxTokens).To(Equal(maxTokens))
		Expect(*common.Model).To(Equal("gpt-x"))
	})

	It("should fall back to prompt-only when json_schema is rejected", func() {
		chat.replies = []func() (*schema.Message, error){
			func() (*schema.Message, error) { return nil, errors.New("unknown parameter: response_format") },
			func() (*schema.Message, error) { return schema.AssistantMessage(`{"title":"Tide"}`, nil), nil },
		}
		c := chain.NewPromptChain(factory, nil, chain.PitchRefineSpec)

		msg, err := c.Invoke(ctx, &chain.Request{Vars: refineVars()})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Content).To(ContainSubstring("Tide"))
		calls := chat.Calls()
		Expect(calls).To(HaveLen(2))
		Expect(len(calls[0].opts)).To(Equal(len(calls[1].opts) + 1))
	})

	It("should not retry on unrelated model errors", func() {
		chat.replies = []func() (*schema.Message, error){
			func() (*schema.Message, error) { return nil, errors.New("upstream timeout") },
		}
		c := chain.NewPromptChain(factory, nil, chain.PitchRefineSpec)

		_, err := c.Invoke(ctx, &chain.Request{Vars: refineVars()})

		Expect(err).To(MatchError(ContainSubstring("upstream timeout")))
		Expect(chat.Calls()).To(HaveLen(1))
	})

	It("should surface factory errors", func() {
		factory.err = errors.New("provider missing")
		c := chain.NewPromptChain(factory, nil, chain.ChapterSpec)

		_, err := c.Invoke(ctx, &chain.Request{Vars: chapterVars()})

		Expect(err).To(MatchError(ContainSubstring("provider missing")))
	})

	It("should reject a nil request", func() {
		c := chain.NewPromptChain(factory, nil, chain.ChapterSpec)

		_, err := c.Invoke(ctx, nil)

		Expect(err).To(HaveOccurred())
	})
})
