package chain

import workflowprompt "story-loop-api/internal/workflow/prompt"

func str() map[string]any { return map[string]any{"type": "string"} }

func strList() map[string]any {
	return map[string]any{"type": "array", "items": str()}
}

func emotional() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "number"},
	}
}

func object(required []any, props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           props,
	}
}

func pitchSchema() map[string]any {
	return object([]any{"title", "synopsis", "keywords", "demographics", "core"}, map[string]any{
		"title":        str(),
		"synopsis":     str(),
		"keywords":     strList(),
		"demographics": strList(),
		"core":         strList(),
		"music_vibe":   str(),
		"attributes":   strList(),
	})
}

// GenomeAttributesSpec 意图 → 音乐属性
var GenomeAttributesSpec = Spec{
	Workflow:   "genome_attributes",
	Prompt:     workflowprompt.PromptGenomeAttributesV1,
	SchemaName: "genome_attributes",
	Schema: object([]any{"primary", "secondary", "emotional"}, map[string]any{
		"primary":     strList(),
		"secondary":   strList(),
		"vibe":        str(),
		"emotional":   emotional(),
		"genre_hints": strList(),
	}),
}

// GenomeTracksSpec 属性 → 参考曲目
var GenomeTracksSpec = Spec{
	Workflow:   "genome_tracks",
	Prompt:     workflowprompt.PromptGenomeTracksV1,
	SchemaName: "genome_tracks",
	Schema: object([]any{"tracks"}, map[string]any{
		"tracks": map[string]any{
			"type": "array",
			"items": object([]any{"title", "artist"}, map[string]any{
				"title":      str(),
				"artist":     str(),
				"reason":     str(),
				"attributes": strList(),
				"emotional":  emotional(),
			}),
		},
	}),
}

// PitchesSpec 初始 pitch 池
var PitchesSpec = Spec{
	Workflow:   "pitches",
	Prompt:     workflowprompt.PromptPitchesV1,
	SchemaName: "pitches",
	Schema: object([]any{"pitches"}, map[string]any{
		"pitches": map[string]any{"type": "array", "items": pitchSchema()},
	}),
}

// PitchRefineSpec 替补 pitch
var PitchRefineSpec = Spec{
	Workflow:   "pitch_refine",
	Prompt:     workflowprompt.PromptPitchRefineV1,
	SchemaName: "pitch",
	Schema:     pitchSchema(),
}

// StructureSpec 章节结构
var StructureSpec = Spec{
	Workflow:   "structure",
	Prompt:     workflowprompt.PromptStructureV1,
	SchemaName: "book_structure",
	Schema: object([]any{"title", "chapters"}, map[string]any{
		"title":    str(),
		"synopsis": str(),
		"chapters": map[string]any{
			"type": "array",
			"items": object([]any{"number", "title", "summary", "target_pages"}, map[string]any{
				"number":       map[string]any{"type": "integer"},
				"title":        str(),
				"summary":      str(),
				"target_pages": map[string]any{"type": "integer"},
			}),
		},
	}),
}

// ChapterSpec 章节正文，纯文本输出
var ChapterSpec = Spec{
	Workflow: "chapter",
	Prompt:   workflowprompt.PromptChapterV1,
}
