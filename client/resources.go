package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func imageQuery(includeImage bool) url.Values {
	if !includeImage {
		return nil
	}
	return url.Values{"include_image": {"true"}}
}

// ProductsClient mirrors /products.
type ProductsClient struct {
	c *Client
}

// ProductQuery filters List. Zero values are omitted.
type ProductQuery struct {
	Search       string
	CategoryID   uint
	IncludeImage bool
}

func (p *ProductsClient) List(ctx context.Context, q ProductQuery) (*Result, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.CategoryID != 0 {
		query.Set("category_id", strconv.FormatUint(uint64(q.CategoryID), 10))
	}
	if q.IncludeImage {
		query.Set("include_image", "true")
	}
	return p.c.do(ctx, http.MethodGet, "products", query, nil)
}

func (p *ProductsClient) Get(ctx context.Context, id uint, includeImage bool) (*Result, error) {
	return p.c.do(ctx, http.MethodGet, fmt.Sprintf("products/%d", id), imageQuery(includeImage), nil)
}

func (p *ProductsClient) Create(ctx context.Context, data Payload) (*Result, error) {
	return p.c.do(ctx, http.MethodPost, "products", nil, data)
}

// Replace sends PUT; fields missing from data are reset on the server.
func (p *ProductsClient) Replace(ctx context.Context, id uint, data Payload) (*Result, error) {
	return p.c.do(ctx, http.MethodPut, fmt.Sprintf("products/%d", id), nil, data)
}

// Update sends PATCH; only fields present in data change.
func (p *ProductsClient) Update(ctx context.Context, id uint, data Payload) (*Result, error) {
	return p.c.do(ctx, http.MethodPatch, fmt.Sprintf("products/%d", id), nil, data)
}

func (p *ProductsClient) Delete(ctx context.Context, id uint) (*Result, error) {
	return p.c.do(ctx, http.MethodDelete, fmt.Sprintf("products/%d", id), nil, nil)
}

// CategoriesClient mirrors /categories.
type CategoriesClient struct {
	c *Client
}

func (cc *CategoriesClient) List(ctx context.Context, includeImage bool) (*Result, error) {
	return cc.c.do(ctx, http.MethodGet, "categories", imageQuery(includeImage), nil)
}

func (cc *CategoriesClient) Get(ctx context.Context, id uint, includeImage bool) (*Result, error) {
	return cc.c.do(ctx, http.MethodGet, fmt.Sprintf("categories/%d", id), imageQuery(includeImage), nil)
}

func (cc *CategoriesClient) Create(ctx context.Context, data Payload) (*Result, error) {
	return cc.c.do(ctx, http.MethodPost, "categories", nil, data)
}

func (cc *CategoriesClient) Replace(ctx context.Context, id uint, data Payload) (*Result, error) {
	return cc.c.do(ctx, http.MethodPut, fmt.Sprintf("categories/%d", id), nil, data)
}

func (cc *CategoriesClient) Update(ctx context.Context, id uint, data Payload) (*Result, error) {
	return cc.c.do(ctx, http.MethodPatch, fmt.Sprintf("categories/%d", id), nil, data)
}

// Delete fails with a 400 APIError while products still reference the category.
func (cc *CategoriesClient) Delete(ctx context.Context, id uint) (*Result, error) {
	return cc.c.do(ctx, http.MethodDelete, fmt.Sprintf("categories/%d", id), nil, nil)
}

// RetailersClient mirrors /retailer.
type RetailersClient struct {
	c *Client
}

func (r *RetailersClient) Metrics(ctx context.Context, retailerID uint) (*Result, error) {
	return r.c.do(ctx, http.MethodGet, fmt.Sprintf("retailer/%d", retailerID), nil, nil)
}

// Leaderboard lists top retailers. Empty sortBy and zero limit use the server defaults.
func (r *RetailersClient) Leaderboard(ctx context.Context, sortBy string, limit int) (*Result, error) {
	query := url.Values{}
	if sortBy != "" {
		query.Set("sort_by", sortBy)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return r.c.do(ctx, http.MethodGet, "retailer/leaderboard", query, nil)
}

func (r *RetailersClient) UpdateQuota(ctx context.Context, retailerID uint, quota float64, updatedBy uint) (*Result, error) {
	body := Payload{"daily_quota": quota}
	if updatedBy != 0 {
		body["updated_by"] = updatedBy
	}
	return r.c.do(ctx, http.MethodPatch, fmt.Sprintf("retailer/%d/quota", retailerID), nil, body)
}

func (r *RetailersClient) ResetStreak(ctx context.Context, retailerID uint, adminID uint) (*Result, error) {
	body := Payload{}
	if adminID != 0 {
		body["admin_id"] = adminID
	}
	return r.c.do(ctx, http.MethodPost, fmt.Sprintf("retailer/%d/reset-streak", retailerID), nil, body)
}

// LogsClient mirrors /logs.
type LogsClient struct {
	c *Client
}

type LogQuery struct {
	Entity string
	UserID uint
	Limit  int
}

func (l *LogsClient) List(ctx context.Context, q LogQuery) (*Result, error) {
	query := url.Values{}
	if q.Entity != "" {
		query.Set("entity", q.Entity)
	}
	if q.UserID != 0 {
		query.Set("user_id", strconv.FormatUint(uint64(q.UserID), 10))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	return l.c.do(ctx, http.MethodGet, "logs", query, nil)
}
