// Package port 定义工作流层对外部协作者的最小依赖
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// ChapterWriter 章节正文生成
type ChapterWriter interface {
	WriteChapter(ctx context.Context, in *wfmodel.ChapterInput) (string, error)
}

// ContentGenerator 不透明的内容生成协作者
// 所有方法在上游失败或输出不符合约定时返回 GenerationError。
type ContentGenerator interface {
	ChapterWriter

	// AnalyzeIntent 由封面与意图生成 Genome
	AnalyzeIntent(ctx context.Context, in *wfmodel.IntentInput) (*entity.Genome, error)

	// GeneratePitches 生成初始 pitch 池
	GeneratePitches(ctx context.Context, in *wfmodel.PitchInput) ([]*entity.Candidate, error)

	// RefinePitch 根据词云与已有决定生成一个替补 pitch
	RefinePitch(ctx context.Context, in *wfmodel.RefineInput) (*entity.Candidate, error)

	// CreateStructure 由通过的 pitch 生成章节结构
	CreateStructure(ctx context.Context, in *wfmodel.StructureInput) (*entity.Structure, error)
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, evt *wfmodel.Event) error
}
