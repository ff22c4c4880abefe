package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/response"

	"gorm.io/gorm/clause"
)

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 10
	DefaultSort  = "createdAt"
)

// Paginator 分页参数解析
// 排序方向固定为降序，同值时按 id 降序保证顺序稳定
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
	DefaultSort  string
}

// DefaultPaginator limit=10, sort=createdAt
func DefaultPaginator() Paginator {
	return Paginator{
		DefaultLimit: DefaultLimit,
		MaxLimit:     repository.MaxPageSize,
		DefaultSort:  DefaultSort,
	}
}

// PageRequest 解析后的分页请求
type PageRequest struct {
	Page  int
	Limit int
	Sort  entity.Field
}

// Parse 解析 page / limit / sort
// 非数字或非正数的 page、limit 以及未知排序字段返回 InvalidArgument
func (p Paginator) Parse(query map[string]string, fields []entity.Field) (PageRequest, error) {
	p = p.withDefaults()

	page, err := positiveInt(ParamPage, query[ParamPage], DefaultPage)
	if err != nil {
		return PageRequest{}, err
	}
	limit, err := positiveInt(ParamLimit, query[ParamLimit], p.DefaultLimit)
	if err != nil {
		return PageRequest{}, err
	}
	if limit > p.MaxLimit {
		limit = p.MaxLimit
	}

	name := strings.TrimSpace(query[ParamSort])
	if name == "" {
		name = p.DefaultSort
	}
	f, ok := entity.Lookup(fields, name)
	if !ok || !f.Comparable() {
		return PageRequest{}, errors.Validation(fmt.Sprintf("cannot sort by %q", name))
	}

	return PageRequest{Page: page, Limit: limit, Sort: f}, nil
}

func (p Paginator) withDefaults() Paginator {
	if p.DefaultLimit < 1 {
		p.DefaultLimit = DefaultLimit
	}
	if p.MaxLimit < 1 || p.MaxLimit > repository.MaxPageSize {
		p.MaxLimit = repository.MaxPageSize
	}
	if p.DefaultSort == "" {
		p.DefaultSort = DefaultSort
	}
	return p
}

func positiveInt(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.Validation(fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}

// Order 降序排序选项
func (r PageRequest) Order() repository.Option {
	columns := []clause.OrderByColumn{{
		Column: clause.Column{Table: clause.CurrentTable, Name: r.Sort.Column},
		Desc:   true,
	}}
	if r.Sort.Column != repository.ColumnID {
		columns = append(columns, clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: repository.ColumnID},
			Desc:   true,
		})
	}
	return repository.WithOrder(columns...)
}

// NewPage 构造列表数据
func NewPage(docs []map[string]any, total int64, r PageRequest) *response.Page {
	totalPages := int((total + int64(r.Limit) - 1) / int64(r.Limit))
	if totalPages < 1 {
		totalPages = 1
	}

	page := &response.Page{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       r.Limit,
		Page:        r.Page,
		TotalPages:  totalPages,
		HasPrevPage: r.Page > 1,
		HasNextPage: r.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := r.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := r.Page + 1
		page.NextPage = &next
	}
	return page
}
