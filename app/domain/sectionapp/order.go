package sectionapp

import (
	"github.com/getorbital/orbital/business/sdk/order"
)

var defaultOrderBy = order.NewBy("name", order.ASC)

var orderByFields = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}
