package entity

// CoverOption 封面选项
type CoverOption struct {
	ID      int      `json:"id" mapstructure:"id"`
	Name    string   `json:"name" mapstructure:"name"`
	Style   string   `json:"style" mapstructure:"style"`
	Mood    string   `json:"mood" mapstructure:"mood"`
	Palette []string `json:"palette" mapstructure:"palette"`
}

// DefaultCovers 内置封面目录
func DefaultCovers() []CoverOption {
	return []CoverOption{
		{ID: 1, Name: "Boardroom", Style: "corporate", Mood: "professional", Palette: []string{"#1f2a44", "#c9d1d9"}},
		{ID: 2, Name: "Signal", Style: "modern", Mood: "innovative", Palette: []string{"#5b21b6", "#22d3ee"}},
		{ID: 3, Name: "Whitespace", Style: "clean", Mood: "focused", Palette: []string{"#ffffff", "#111827"}},
		{ID: 4, Name: "Hearth", Style: "warm", Mood: "emotional", Palette: []string{"#b45309", "#fde68a"}},
	}
}
