package router_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
)

// scriptedGenerator 生成确定性的 Genome、pitch、结构与正文
type scriptedGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *scriptedGenerator) pitch() *entity.Candidate {
	g.next++
	return &entity.Candidate{
		Title:        fmt.Sprintf("Pitch %d", g.next),
		Synopsis:     "A keeper and the sea.",
		Keywords:     []string{"sea", fmt.Sprintf("k%d", g.next)},
		Demographics: []string{"adult"},
		Core:         []string{fmt.Sprintf("core%d", g.next)},
	}
}

func (g *scriptedGenerator) AnalyzeIntent(context.Context, *wfmodel.IntentInput) (*entity.Genome, error) {
	return &entity.Genome{
		Profile: entity.Profile{Primary: []string{"sea"}, Secondary: []string{"hope"}},
		Tracks:  []*entity.Candidate{{ID: "track_1", Title: "Undertow", AttributeTags: []string{"sea"}}},
	}, nil
}

func (g *scriptedGenerator) GeneratePitches(_ context.Context, in *wfmodel.PitchInput) ([]*entity.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*entity.Candidate, in.Count)
	for i := range out {
		out[i] = g.pitch()
	}
	return out, nil
}

func (g *scriptedGenerator) RefinePitch(context.Context, *wfmodel.RefineInput) (*entity.Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pitch(), nil
}

func (g *scriptedGenerator) CreateStructure(context.Context, *wfmodel.StructureInput) (*entity.Structure, error) {
	return &entity.Structure{
		Title: "Tide Lines",
		Chapters: []entity.Chapter{
			{Number: 1, Title: "Low Water", TargetPages: 2},
			{Number: 2, Title: "High Tide", TargetPages: 3},
		},
	}, nil
}

func (g *scriptedGenerator) WriteChapter(_ context.Context, in *wfmodel.ChapterInput) (string, error) {
	return strings.TrimSpace(strings.Repeat("wave ", in.TargetWords)), nil
}
