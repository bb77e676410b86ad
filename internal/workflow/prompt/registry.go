package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptGenomeAttributesV1 PromptID = "genome_attributes_v1"
	PromptGenomeTracksV1     PromptID = "genome_tracks_v1"
	PromptPitchesV1          PromptID = "pitches_v1"
	PromptPitchRefineV1      PromptID = "pitch_refine_v1"
	PromptStructureV1        PromptID = "structure_v1"
	PromptChapterV1          PromptID = "chapter_v1"
)

// All 全部已注册的 prompt
var All = []PromptID{
	PromptGenomeAttributesV1,
	PromptGenomeTracksV1,
	PromptPitchesV1,
	PromptPitchRefineV1,
	PromptStructureV1,
	PromptChapterV1,
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	for _, known := range All {
		if known == id {
			return "templates/" + string(id) + ".system.txt", "templates/" + string(id) + ".user.txt", nil
		}
	}
	return "", "", fmt.Errorf("unknown prompt id: %s", id)
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
