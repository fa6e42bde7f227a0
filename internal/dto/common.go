package dto

import "time"

// PageQuery are the paging parameters shared by list endpoints.
type PageQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	PageToken string `form:"pageToken"`
}

// RangeQuery bounds a listing in time.
type RangeQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListResponse wraps one page of results.
type ListResponse[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"nextToken,omitempty"`
}

// ReasonRequest carries a mandatory reason.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
