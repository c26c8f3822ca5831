package catalog

// Page is one page of a filtered result
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// PageCount is the number of pages needed for n items. It is 0 for no items.
func PageCount(n, size int) int {
	if size < 1 || n < 1 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage moves page into [1, pages]. With no pages it is 1.
func ClampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the slice of items for page, after clamping the page number
func Paginate[T any](items []T, page, size int) Page[T] {
	pages := PageCount(len(items), size)
	page = ClampPage(page, pages)

	out := Page[T]{Items: []T{}, Page: page, Pages: pages, Total: len(items)}
	if pages == 0 {
		return out
	}
	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out.Items = items[start:end]
	return out
}
