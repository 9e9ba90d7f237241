package handlers

import (
	"food-ordering-api/middleware"
	"food-ordering-api/services"
)

// Handler serves the HTTP API on top of the service layer.
type Handler struct {
	users    *services.UserService
	products *services.ProductService
	orders   *services.OrderService
	reports  *services.ReportService
	tokens   *middleware.TokenIssuer
	uploads  *UploadStore
}

type Deps struct {
	Users    *services.UserService
	Products *services.ProductService
	Orders   *services.OrderService
	Reports  *services.ReportService
	Tokens   *middleware.TokenIssuer
	Uploads  *UploadStore
}

func New(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		products: d.Products,
		orders:   d.Orders,
		reports:  d.Reports,
		tokens:   d.Tokens,
		uploads:  d.Uploads,
	}
}
