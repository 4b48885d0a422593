package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mohyerolo/inflearn-jpa/internal/httpx"
	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
	"github.com/mohyerolo/inflearn-jpa/internal/order"
	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

type services struct {
	members *member.Service
	items   *item.Service
	orders  *order.Service
	queries *order.QueryService
}

func newServices(db *store.DB, log zerolog.Logger) services {
	return services{
		members: member.NewService(db),
		items:   item.NewService(db),
		orders:  order.NewService(db, log),
		queries: order.NewQueryService(db),
	}
}

func newRouter(db *store.DB, svc services, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Recovery(log), httpx.Logger(log))

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "store unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	r.POST("/members", createMemberHandler(svc.members, log))
	r.GET("/members", listMembersHandler(svc.members, log))
	r.GET("/members/:id", getMemberHandler(svc.members, log))
	r.PUT("/members/:id", updateMemberHandler(svc.members, log))

	r.POST("/items", createItemHandler(svc.items, log))
	r.GET("/items", listItemsHandler(svc.items, log))
	r.GET("/items/:id", getItemHandler(svc.items, log))
	r.PUT("/items/:id", updateItemHandler(svc.items, log))

	r.POST("/orders", createOrderHandler(svc.orders, log))
	r.GET("/orders", listOrdersHandler(svc.orders, log))
	r.POST("/orders/:id/cancel", cancelOrderHandler(svc.orders, log))
	r.POST("/orders/:id/complete", completeDeliveryHandler(svc.orders, log))

	q := svc.queries
	api := r.Group("/api")

	api.GET("/v2/simple-orders", readHandler(log, noParams(func(c *gin.Context) ([]order.SimpleOrderDto, error) {
		return q.SimpleOrdersLazy(c.Request.Context())
	})))
	api.GET("/v3/simple-orders", readHandler(log, func(c *gin.Context) ([]order.SimpleOrderDto, bool, error) {
		p, ok := pageParams(c)
		if !ok {
			return nil, false, nil
		}
		out, err := q.SimpleOrdersJoined(c.Request.Context(), p)
		return out, true, err
	}))
	api.GET("/v4/simple-orders", readHandler(log, noParams(func(c *gin.Context) ([]order.SimpleOrderDto, error) {
		return q.SimpleOrdersProjected(c.Request.Context())
	})))

	api.GET("/v2/orders", readHandler(log, func(c *gin.Context) ([]order.OrderDto, bool, error) {
		s, ok := searchParams(c)
		if !ok {
			return nil, false, nil
		}
		out, err := q.OrdersLazy(c.Request.Context(), s)
		return out, true, err
	}))
	api.GET("/v3/orders", readHandler(log, noParams(func(c *gin.Context) ([]order.OrderDto, error) {
		return q.OrdersFetchJoin(c.Request.Context())
	})))
	api.GET("/v3.1/orders", readHandler(log, func(c *gin.Context) ([]order.OrderDto, bool, error) {
		p, ok := pageParams(c)
		if !ok {
			return nil, false, nil
		}
		out, err := q.OrdersPaged(c.Request.Context(), p)
		return out, true, err
	}))
	api.GET("/v4/orders", readHandler(log, noParams(func(c *gin.Context) ([]order.OrderDto, error) {
		return q.OrdersProjectedPerOrder(c.Request.Context())
	})))
	api.GET("/v5/orders", readHandler(log, func(c *gin.Context) ([]order.OrderDto, bool, error) {
		s, ok := searchParams(c)
		if !ok {
			return nil, false, nil
		}
		out, err := q.OrdersProjected(c.Request.Context(), s)
		return out, true, err
	}))
	api.GET("/v6/orders", readHandler(log, noParams(func(c *gin.Context) ([]order.OrderDto, error) {
		return q.OrdersFlat(c.Request.Context())
	})))

	return r
}
