package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

const MAX_PAGE_SIZE = 100

// ListNotificationsQueryParams holds query parameters for GET /notifications
type ListNotificationsQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListEventTypesQueryParams holds query parameters for GET /event-types
type ListEventTypesQueryParams struct {
	Network string `form:"network"`
}

// ParseListNotificationsQuery parses query parameters for GET /notifications
func ParseListNotificationsQuery(c *gin.Context) (*ListNotificationsQueryParams, error) {
	var params ListNotificationsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return &params, nil
}

// ParseListEventTypesQuery parses query parameters for GET /event-types
func ParseListEventTypesQuery(c *gin.Context) (*ListEventTypesQueryParams, error) {
	var params ListEventTypesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

func (p *ListEventTypesQueryParams) network() domain.Network {
	return domain.Network(p.Network)
}
