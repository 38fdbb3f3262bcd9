package domain

// ListFilter narrows, orders and pages account listings. Search and sort
// fields are restricted to "name" and "email"; anything else is ignored.
type ListFilter struct {
	SearchField string
	Search      string
	SortField   string
	SortDesc    bool
	Limit       int
	Offset      int
}

// Page wraps one page of a listing together with the original request's
// pagination bookkeeping.
type Page[T any] struct {
	PageNumber  int
	PageSize    int
	Count       int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
	Data        []T
}
