// Package pagination 将章节正文切分为固定词数的页面
package pagination

import (
	"strings"

	"story-loop-api/internal/domain/entity"
	apperrors "story-loop-api/pkg/errors"
)

// DefaultWordsPerPage 默认每页词数
const DefaultWordsPerPage = 250

// Paginator 分页器
type Paginator struct {
	WordsPerPage int
}

// New 创建分页器，wordsPerPage <= 0 时使用默认值
func New(wordsPerPage int) *Paginator {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}
	return &Paginator{WordsPerPage: wordsPerPage}
}

// Paginate 按空白切词，每 WordsPerPage 个词一页，最后一页可以更短
// 页码从 startPage 开始连续递增，返回下一个可用页码。
func (p *Paginator) Paginate(text string, chapter, startPage int) ([]entity.Page, int, error) {
	if startPage < 0 {
		return nil, startPage, apperrors.Validation("start page must not be negative, got %d", startPage)
	}
	if chapter < 1 {
		return nil, startPage, apperrors.Validation("chapter number must be positive, got %d", chapter)
	}

	size := p.WordsPerPage
	if size <= 0 {
		size = DefaultWordsPerPage
	}

	words := strings.Fields(text)
	pages := make([]entity.Page, 0, (len(words)+size-1)/size)
	next := startPage
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		pages = append(pages, entity.Page{
			Number:  next,
			Chapter: chapter,
			Text:    strings.Join(words[i:end], " "),
		})
		next++
	}
	return pages, next, nil
}

// EstimatePages 估算文本所需页数
func (p *Paginator) EstimatePages(text string) int {
	size := p.WordsPerPage
	if size <= 0 {
		size = DefaultWordsPerPage
	}
	n := len(strings.Fields(text))
	return (n + size - 1) / size
}
