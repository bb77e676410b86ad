package pagination_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/application/pagination"
	apperrors "story-loop-api/pkg/errors"
)

func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

var _ = Describe("Paginator", func() {
	var p *pagination.Paginator

	BeforeEach(func() {
		p = pagination.New(250)
	})

	It("should split 625 words into pages of 250, 250 and 125", func() {
		src := words(625)
		pages, next, err := p.Paginate(strings.Join(src, " "), 1, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(HaveLen(3))
		Expect(next).To(Equal(4))

		sizes := []int{}
		for _, pg := range pages {
			sizes = append(sizes, len(strings.Fields(pg.Text)))
		}
		Expect(sizes).To(Equal([]int{250, 250, 125}))
	})

	It("should reproduce the original word sequence when pages are joined", func() {
		src := words(625)
		text := "  " + strings.Join(src[:10], "\n\n") + "\t" + strings.Join(src[10:], "  ") + "\n"
		pages, _, err := p.Paginate(text, 2, 7)
		Expect(err).NotTo(HaveOccurred())

		texts := make([]string, len(pages))
		for i, pg := range pages {
			texts[i] = pg.Text
		}
		Expect(strings.Fields(strings.Join(texts, " "))).To(Equal(src))
	})

	It("should continue numbering from the start page and tag the chapter", func() {
		pages, next, err := p.Paginate(strings.Join(words(300), " "), 3, 10)

		Expect(err).NotTo(HaveOccurred())
		Expect(pages[0].Number).To(Equal(10))
		Expect(pages[1].Number).To(Equal(11))
		Expect(pages[0].Chapter).To(Equal(3))
		Expect(pages[1].Chapter).To(Equal(3))
		Expect(next).To(Equal(12))
	})

	It("should yield no pages for blank text", func() {
		pages, next, err := p.Paginate(" \n\t ", 1, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(BeEmpty())
		Expect(next).To(Equal(5))
	})

	It("should reject a negative start page", func() {
		_, _, err := p.Paginate("a b c", 1, -1)

		Expect(apperrors.IsValidation(err)).To(BeTrue())
	})

	It("should reject a chapter number below one", func() {
		_, _, err := p.Paginate("a b c", 0, 1)

		Expect(apperrors.IsValidation(err)).To(BeTrue())
	})

	It("should fall back to the default page size", func() {
		Expect(pagination.New(0).WordsPerPage).To(Equal(pagination.DefaultWordsPerPage))
		Expect(pagination.New(0).EstimatePages(strings.Join(words(251), " "))).To(Equal(2))
	})
})
