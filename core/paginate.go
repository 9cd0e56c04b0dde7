package core

const (
	DefaultPageSize = 10
	maxPageLinks    = 5
)

// Paginate returns the page-th slice of at most pageSize items.
// page is clamped to 1 and a zero pageSize means DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) []T {
	if len(items) == 0 {
		return []T{}
	}
	page, pageSize = normalizePage(page, pageSize)
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(len(items), start+pageSize)
	return items[start:end]
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return page, pageSize
}

// PageInfo describes a page of a listing, along with the window of page links to render.
type PageInfo struct {
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	StartIndex int   `json:"startIndex"`
	EndIndex   int   `json:"endIndex"`
	Pages      []int `json:"pages"`
}

func NewPageInfo(total, page, pageSize int) PageInfo {
	page, pageSize = normalizePage(page, pageSize)
	totalPages := max(1, (total+pageSize-1)/pageSize)
	start := min(total, (page-1)*pageSize)

	half := maxPageLinks / 2
	first := max(1, page-half)
	last := min(totalPages, first+maxPageLinks-1)
	first = max(1, last-maxPageLinks+1)
	pages := make([]int, 0, maxPageLinks)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}

	return PageInfo{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		StartIndex: start,
		EndIndex:   min(total, start+pageSize),
		Pages:      pages,
	}
}

// Page is a paginated listing.
type Page[T any] struct {
	Results []T      `json:"results"`
	Info    PageInfo `json:"pageInfo"`
}

func NewPage[T any](items []T, page, pageSize int) Page[T] {
	return Page[T]{
		Results: Paginate(items, page, pageSize),
		Info:    NewPageInfo(len(items), page, pageSize),
	}
}
