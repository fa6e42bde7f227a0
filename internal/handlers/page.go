package handlers

import (
	"net/http"

	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/SscSPs/cashdesk_backoffice/internal/utils/pagination"
	"github.com/gin-gonic/gin"
)

// pageOffset decodes the page token of q, answering 400 when it is malformed.
func pageOffset(c *gin.Context, q dto.PageQuery) (int, bool) {
	offset, err := pagination.DecodeOffsetToken(q.PageToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return 0, false
	}
	return offset, true
}

func listResponse[T any](items []T, q dto.PageQuery, offset int) dto.ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return dto.ListResponse[T]{
		Items:     items,
		NextToken: pagination.NextToken(offset, q.Limit, len(items)),
	}
}
