package node

import "strings"

// 上游拒绝结构化输出参数时错误信息中出现的片段，每组需全部命中
var responseFormatRejections = [][]string{
	{"response_format"},
	{"response_schema"},
	{"json_schema"},
	{"unknown parameter", "response"},
	{"invalid", "response"},
}

// IsResponseFormatUnsupportedError 上游是否不支持 JSON Schema 输出，调用方据此降级为纯文本提示
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range responseFormatRejections {
		if containsAll(msg, group) {
			return true
		}
	}
	return false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
