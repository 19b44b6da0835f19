package dto

// ListResponse 列表响应包装
type ListResponse[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
}

// NewListResponse 创建列表响应，nil 切片输出为空数组
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{List: items, Total: len(items)}
}
