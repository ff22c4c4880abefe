package response

/* ========================================================================
 * Response Types - 响应类型定义
 * ========================================================================
 * 职责: 定义统一信封 {success, message?, data?, count?}
 * ======================================================================== */

// Envelope 统一响应信封
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int64 `json:"count,omitempty"`
}

// Page 列表数据，字段与分页器输出保持一致
type Page struct {
	Docs        []map[string]any `json:"docs"`
	TotalDocs   int64            `json:"totalDocs"`
	Limit       int              `json:"limit"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages"`
	HasPrevPage bool             `json:"hasPrevPage"`
	HasNextPage bool             `json:"hasNextPage"`
	PrevPage    *int             `json:"prevPage"`
	NextPage    *int             `json:"nextPage"`
}

// Reply 操作结果：HTTP 状态码 + 信封
type Reply struct {
	Status int
	Body   Envelope
}
