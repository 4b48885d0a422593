package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mohyerolo/inflearn-jpa/internal/httpx"
	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
	"github.com/mohyerolo/inflearn-jpa/internal/order"
)

// statusFor maps domain errors onto HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, member.ErrNotFound),
		errors.Is(err, item.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, member.ErrDuplicateMember),
		errors.Is(err, item.ErrOutOfStock),
		errors.Is(err, order.ErrIllegalState):
		return http.StatusConflict
	case errors.Is(err, member.ErrInvalidName),
		errors.Is(err, item.ErrInvalidItem),
		errors.Is(err, item.ErrInvalidCount),
		errors.Is(err, order.ErrNoLines):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, log zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("rid", httpx.RID(c)).Msg("[http] internal error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "invalid "+key)
		return 0, false
	}
	return n, true
}

func pageParams(c *gin.Context) (order.Page, bool) {
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return order.Page{}, false
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return order.Page{}, false
	}
	return order.Page{Offset: offset, Limit: limit}, true
}

func searchParams(c *gin.Context) (order.Search, bool) {
	s := order.Search{MemberName: c.Query("member_name")}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s.Status = order.Status(strings.ToUpper(raw))
		if !s.Status.Valid() {
			badRequest(c, "invalid status")
			return order.Search{}, false
		}
	}
	return s, true
}

// ---- members ----

type memberRequest struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

type updateMemberRequest struct {
	Name string `json:"name" binding:"required"`
}

func createMemberHandler(svc *member.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req memberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		id, err := svc.Join(c.Request.Context(), &member.Member{
			Name:    req.Name,
			Address: member.Address{City: req.City, Street: req.Street, Zipcode: req.Zipcode},
		})
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func listMembersHandler(svc *member.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := svc.FindMembers(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		if members == nil {
			members = []member.Member{}
		}
		c.JSON(http.StatusOK, gin.H{"count": len(members), "data": members})
	}
}

func getMemberHandler(svc *member.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		m, err := svc.FindOne(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func updateMemberHandler(svc *member.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req updateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		ctx := c.Request.Context()
		if err := svc.Update(ctx, id, req.Name); err != nil {
			fail(c, log, err)
			return
		}
		m, err := svc.FindOne(ctx, id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// ---- items ----

type itemRequest struct {
	Kind          string `json:"kind"`
	Name          string `json:"name" binding:"required"`
	Price         int    `json:"price" binding:"min=0"`
	StockQuantity int    `json:"stock_quantity" binding:"min=0"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Artist        string `json:"artist"`
	Etc           string `json:"etc"`
	Director      string `json:"director"`
	Actor         string `json:"actor"`
}

func (r itemRequest) variant() (item.Variant, bool) {
	switch item.Kind(strings.ToUpper(r.Kind)) {
	case "", item.KindBook:
		return item.Book{Author: r.Author, ISBN: r.ISBN}, true
	case item.KindAlbum:
		return item.Album{Artist: r.Artist, Etc: r.Etc}, true
	case item.KindMovie:
		return item.Movie{Director: r.Director, Actor: r.Actor}, true
	}
	return nil, false
}

type updateItemRequest struct {
	Name          string `json:"name" binding:"required"`
	Price         int    `json:"price" binding:"min=0"`
	StockQuantity int    `json:"stock_quantity" binding:"min=0"`
}

type itemResponse struct {
	ID            int64        `json:"id"`
	Kind          item.Kind    `json:"kind"`
	Name          string       `json:"name"`
	Price         int          `json:"price"`
	StockQuantity int          `json:"stock_quantity"`
	Details       item.Variant `json:"details,omitempty"`
}

func newItemResponse(it *item.Item) itemResponse {
	return itemResponse{
		ID:            it.ID,
		Kind:          it.Kind(),
		Name:          it.Name,
		Price:         it.Price,
		StockQuantity: it.StockQuantity,
		Details:       it.Variant,
	}
}

func createItemHandler(svc *item.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		v, ok := req.variant()
		if !ok {
			badRequest(c, "invalid kind")
			return
		}
		it := &item.Item{Name: req.Name, Price: req.Price, StockQuantity: req.StockQuantity, Variant: v}
		if _, err := svc.SaveItem(c.Request.Context(), it); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, newItemResponse(it))
	}
}

func listItemsHandler(svc *item.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryInt(c, "limit", 20)
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset", 0)
		if !ok {
			return
		}
		q := item.Query{Q: strings.TrimSpace(c.Query("q")), Limit: limit, Offset: offset}
		items, err := svc.FindItems(c.Request.Context(), q)
		if err != nil {
			fail(c, log, err)
			return
		}
		out := make([]itemResponse, 0, len(items))
		for i := range items {
			out = append(out, newItemResponse(&items[i]))
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
	}
}

func getItemHandler(svc *item.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		it, err := svc.FindOne(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, newItemResponse(it))
	}
}

func updateItemHandler(svc *item.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		it, err := svc.UpdateItem(c.Request.Context(), id, req.Name, req.Price, req.StockQuantity)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, newItemResponse(it))
	}
}

// ---- orders ----

type orderSummary struct {
	ID             int64                `json:"id"`
	MemberName     string               `json:"member_name"`
	Status         order.Status         `json:"status"`
	DeliveryStatus order.DeliveryStatus `json:"delivery_status"`
	OrderDate      time.Time            `json:"order_date"`
	TotalPrice     int                  `json:"total_price"`
}

func createOrderHandler(svc *order.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json")
			return
		}
		lines := make([]order.LineRequest, len(req.Items))
		for i, it := range req.Items {
			lines[i] = order.LineRequest{ItemID: it.ItemID, Count: it.Count}
		}
		id, err := svc.PlaceOrder(c.Request.Context(), req.MemberID, lines)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func listOrdersHandler(svc *order.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		search, ok := searchParams(c)
		if !ok {
			return
		}
		orders, err := svc.FindOrders(c.Request.Context(), search)
		if err != nil {
			fail(c, log, err)
			return
		}
		out := make([]orderSummary, 0, len(orders))
		for _, o := range orders {
			out = append(out, orderSummary{
				ID:             o.ID,
				MemberName:     o.Member.Name,
				Status:         o.Status,
				DeliveryStatus: o.Delivery.Status,
				OrderDate:      o.OrderDate,
				TotalPrice:     o.TotalPrice(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func cancelOrderHandler(svc *order.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.CancelOrder(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func completeDeliveryHandler(svc *order.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.CompleteDelivery(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ---- order reads by strategy ----

// readHandler adapts one QueryService read to a JSON array response.
func readHandler[T any](log zerolog.Logger, read func(c *gin.Context) ([]T, bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, ok, err := read(c)
		if !ok {
			return
		}
		if err != nil {
			fail(c, log, err)
			return
		}
		if out == nil {
			out = []T{}
		}
		c.JSON(http.StatusOK, out)
	}
}

func noParams[T any](read func(c *gin.Context) ([]T, error)) func(c *gin.Context) ([]T, bool, error) {
	return func(c *gin.Context) ([]T, bool, error) {
		out, err := read(c)
		return out, true, err
	}
}
