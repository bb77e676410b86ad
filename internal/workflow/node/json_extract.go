package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个 JSON 对象或数组。
// 模型可能在 JSON 前后夹杂说明文字或 markdown 代码块。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")
	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(raw, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(raw, "]")
	}
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

// DecodeJSON 截取并解码模型输出
func DecodeJSON(s string, out any) error {
	raw := ExtractJSONObject(s)
	if raw == "" {
		return fmt.Errorf("empty llm output")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode llm output: %w", err)
	}
	return nil
}
