package workflow_test

import (
	"context"
	"fmt"
	"sync"

	"story-loop-api/internal/application/generation"
	"story-loop-api/internal/domain/entity"
	wfmodel "story-loop-api/internal/workflow/model"
)

type mockGenerator struct {
	mu           sync.Mutex
	refineCalls  []*wfmodel.RefineInput
	next         int
	analyzeFn    func(ctx context.Context, in *wfmodel.IntentInput) (*entity.Genome, error)
	pitchesFn    func(ctx context.Context, in *wfmodel.PitchInput) ([]*entity.Candidate, error)
	refineFn     func(ctx context.Context, in *wfmodel.RefineInput) (*entity.Candidate, error)
	structureFn  func(ctx context.Context, in *wfmodel.StructureInput) (*entity.Structure, error)
	lastPitchIn  *wfmodel.PitchInput
	lastStructIn *wfmodel.StructureInput
}

func (m *mockGenerator) pitch() *entity.Candidate {
	m.next++
	return &entity.Candidate{
		ID:           fmt.Sprintf("p%d", m.next),
		Title:        fmt.Sprintf("Pitch %d", m.next),
		Keywords:     []string{"hope", fmt.Sprintf("k%d", m.next)},
		Demographics: []string{"millennial"},
		Core:         []string{fmt.Sprintf("core%d", m.next)},
	}
}

func (m *mockGenerator) AnalyzeIntent(ctx context.Context, in *wfmodel.IntentInput) (*entity.Genome, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, in)
	}
	return &entity.Genome{
		Profile: entity.Profile{Primary: []string{"hope"}, Secondary: []string{"k1"}},
		Tracks: []*entity.Candidate{
			{ID: "t1", Title: "Quiet", AttributeTags: []string{"x"}},
			{ID: "t2", Title: "Bright", AttributeTags: []string{"hope"}},
		},
	}, nil
}

func (m *mockGenerator) GeneratePitches(ctx context.Context, in *wfmodel.PitchInput) ([]*entity.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPitchIn = in
	if m.pitchesFn != nil {
		return m.pitchesFn(ctx, in)
	}
	out := make([]*entity.Candidate, in.Count)
	for i := range out {
		out[i] = m.pitch()
	}
	return out, nil
}

func (m *mockGenerator) RefinePitch(ctx context.Context, in *wfmodel.RefineInput) (*entity.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refineCalls = append(m.refineCalls, in)
	if m.refineFn != nil {
		return m.refineFn(ctx, in)
	}
	return m.pitch(), nil
}

func (m *mockGenerator) CreateStructure(ctx context.Context, in *wfmodel.StructureInput) (*entity.Structure, error) {
	m.mu.Lock()
	m.lastStructIn = in
	m.mu.Unlock()
	if m.structureFn != nil {
		return m.structureFn(ctx, in)
	}
	return &entity.Structure{
		Title: "Tide Lines",
		Chapters: []entity.Chapter{
			{Number: 1, Title: "Low Water", TargetPages: 2},
			{Number: 2, Title: "High Tide", TargetPages: 3},
		},
	}, nil
}

func (m *mockGenerator) WriteChapter(context.Context, *wfmodel.ChapterInput) (string, error) {
	return "text", nil
}

type mockJobs struct {
	started []*entity.Structure
	opts    []generation.Options
	err     error
}

func (m *mockJobs) StartJob(_ context.Context, s *entity.Structure, opts generation.Options) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.started = append(m.started, s)
	m.opts = append(m.opts, opts)
	return fmt.Sprintf("job-%d", len(m.started)), nil
}
