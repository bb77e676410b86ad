package dto_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"story-loop-api/internal/domain/entity"
	"story-loop-api/internal/interfaces/http/dto"
)

var _ = Describe("PageRequest", func() {
	DescribeTable("Window",
		func(req dto.PageRequest, total, wantStart, wantEnd int) {
			start, end := req.Window(total)
			Expect(start).To(Equal(wantStart))
			Expect(end).To(Equal(wantEnd))
		},
		Entry("first page", dto.PageRequest{Page: 1, PageSize: 2}, 5, 0, 2),
		Entry("partial last page", dto.PageRequest{Page: 3, PageSize: 2}, 5, 4, 5),
		Entry("past the end", dto.PageRequest{Page: 4, PageSize: 2}, 5, 5, 5),
		Entry("no records", dto.PageRequest{Page: 1, PageSize: 10}, 0, 0, 0),
		Entry("page number that would overflow the offset", dto.PageRequest{Page: 1<<60 + 2, PageSize: 8}, 2, 2, 2),
		Entry("largest page number", dto.PageRequest{Page: math.MaxInt, PageSize: 96}, 3, 3, 3),
		Entry("largest page size", dto.PageRequest{Page: 2, PageSize: math.MaxInt}, 3, 3, 3),
	)

	It("should return an empty slice for an out of range page", func() {
		pages := []entity.Page{{Number: 1}, {Number: 2}}

		Expect(func() {
			Expect(dto.PageSlice(pages, dto.PageRequest{Page: 1<<60 + 2, PageSize: 8})).To(BeEmpty())
		}).NotTo(Panic())
	})

	It("should clamp page size on normalize", func() {
		req := dto.PageRequest{Page: 0, PageSize: 1000}
		req.Normalize()

		Expect(req.Page).To(Equal(1))
		Expect(req.PageSize).To(Equal(dto.MaxPageSize))
	})
})
