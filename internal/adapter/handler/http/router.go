package http

import (
	"github.com/gin-gonic/gin"
	"github.com/savorsave/savorsave/internal/adapter/config"
	"github.com/savorsave/savorsave/internal/core/port"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	userHandler *UserHandler,
	orderHandler *OrderHandler,
	expenseHandler *ExpenseHandler,
	budgetHandler *BudgetHandler) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/register", userHandler.RegisterUser)
			user.POST("/login", userHandler.LoginUser)
		}
		api.POST("/session/guest", userHandler.GuestSession)

		orders := api.Group("/orders")
		{
			orders.Use(authCheck(tokenService))
			orders.POST("/checkout", orderHandler.Checkout)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:number", orderHandler.TrackOrder)
			orders.PATCH("/:number/status", orderHandler.TransitionOrder)
			orders.POST("/:number/cancel", orderHandler.CancelOrder)
			orders.POST("/:number/rating", orderHandler.RateOrder)
		}

		expenses := api.Group("/expenses")
		{
			expenses.Use(authCheck(tokenService))
			expenses.POST("", expenseHandler.AddExpense)
			expenses.PATCH("/:id", expenseHandler.UpdateExpense)
			expenses.POST("/:id/cancel", expenseHandler.CancelExpense)
			expenses.DELETE("/:id", expenseHandler.DeleteExpense)
			expenses.GET("/summary", expenseHandler.ExpenseSummary)
		}

		budget := api.Group("/budget")
		{
			budget.Use(authCheck(tokenService))
			budget.GET("/usage", budgetHandler.BudgetUsage)
			budget.PUT("", budgetHandler.SetBudget)
			budget.POST("/precheck", budgetHandler.PreCheckExpense)
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
