package dto

import (
	"github.com/gin-gonic/gin"
)

// 页面列表的分页默认值；上限与单部作品的页数上限一致
const (
	DefaultPageSize = 10
	MaxPageSize     = 96
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 非法或缺省值回落到默认
func (r *PageRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	switch {
	case r.PageSize < 1:
		r.PageSize = DefaultPageSize
	case r.PageSize > MaxPageSize:
		r.PageSize = MaxPageSize
	}
}

// Window 返回 total 条记录中本页的 [start, end) 区间
func (r PageRequest) Window(total int) (int, int) {
	if total <= 0 || r.Page < 1 || r.PageSize < 1 {
		return 0, 0
	}
	// 先按页数比较，避免 (Page-1)*PageSize 溢出
	if r.Page-1 >= (total-1)/r.PageSize+1 {
		return total, total
	}
	start := (r.Page - 1) * r.PageSize
	return start, min(start+r.PageSize, total)
}

// BindPage 绑定查询参数，无法解析的值按缺省处理
func BindPage(c *gin.Context) PageRequest {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		req = PageRequest{}
	}
	req.Normalize()
	return req
}

// BindSessionID 路径中的会话 ID
func BindSessionID(c *gin.Context) string {
	return c.Param("sid")
}

// BindJobID 路径中的任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("jid")
}

// BindUserID 认证中间件注入的会话所有者
func BindUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
