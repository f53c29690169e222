package userapp

import (
	"github.com/getorbital/orbital/business/sdk/order"
)

var defaultOrderBy = order.NewBy("created_at", order.ASC)

var orderByFields = map[string]string{
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}
