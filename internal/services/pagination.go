package services

// Pagination describes one page of a topic's flat, newest-first comment list.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalComments int64 `json:"totalComments"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

func NewPagination(total int64, page, limit int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalComments: total,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
}

// offset is the index of the first comment on page.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
