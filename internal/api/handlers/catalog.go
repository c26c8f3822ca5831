package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/catalog"
)

// catalogQuery holds the filter changes parsed from one request. A nil field
// leaves that part of the view untouched.
type catalogQuery struct {
	reset      bool
	search     *string
	brands     []string
	hasBrands  bool
	categories []string
	hasCats    bool
	discount   *bool
	minPrice   *decimal.Decimal
	maxPrice   *decimal.Decimal
	page       *int
}

// parseCatalogQuery validates every parameter before any of them is applied
func parseCatalogQuery(c *gin.Context) (catalogQuery, error) {
	q := catalogQuery{reset: c.Query("reset") == "true"}
	if v, ok := c.GetQuery("search"); ok {
		q.search = &v
	}
	if ids, ok := c.GetQueryArray("brand"); ok {
		q.brands, q.hasBrands = splitIDs(ids), true
	}
	if ids, ok := c.GetQueryArray("category"); ok {
		q.categories, q.hasCats = splitIDs(ids), true
	}
	if v, ok := c.GetQuery("discount"); ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return q, errors.New("invalid discount flag")
		}
		q.discount = &on
	}
	if v, ok := c.GetQuery("min_price"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errors.New("invalid min_price")
		}
		q.minPrice = &d
	}
	if v, ok := c.GetQuery("max_price"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errors.New("invalid max_price")
		}
		q.maxPrice = &d
	}
	if v, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("invalid page")
		}
		q.page = &page
	}
	return q, nil
}

func (q catalogQuery) apply(view *catalog.View) {
	if q.reset {
		view.ResetFilters()
	}
	if q.search != nil {
		view.SetSearch(*q.search)
	}
	if q.hasBrands {
		view.SetBrands(q.brands)
	}
	if q.hasCats {
		view.SetCategories(q.categories)
	}
	if q.discount != nil {
		view.SetDiscountOnly(*q.discount)
	}
	if q.minPrice != nil {
		view.SetMinPrice(*q.minPrice)
	}
	if q.maxPrice != nil {
		view.SetMaxPrice(*q.maxPrice)
	}
	if q.page != nil {
		view.SetPage(*q.page)
	}
}

// HandleCatalog handles GET /v1/catalog
//
// Query parameters change the view's filter state and persist across calls:
// search, brand (repeatable), category (repeatable), discount, min_price,
// max_price, page, reset and refresh. A request with any invalid parameter
// is rejected without changing the view.
func HandleCatalog(view *catalog.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseCatalogQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if c.Query("refresh") == "true" || !view.Loaded() {
			if err := view.Refresh(c.Request.Context()); err != nil {
				respondError(c, err, logger)
				return
			}
		}

		q.apply(view)
		c.JSON(http.StatusOK, view.Result())
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(view *catalog.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := view.Product(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"product":         product,
			"effective_price": product.EffectivePrice(),
			"has_discount":    product.HasDiscount(),
		})
	}
}

// splitIDs accepts both brand=a&brand=b and brand=a,b. An empty value clears the predicate.
func splitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
