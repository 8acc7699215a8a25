package repository

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fields a free-text query is matched against.
var productSearchFields = []string{
	"product_name", "category", "product_id", "colour", "gender", "collection", "variants.size",
}

// Query parameters recognized by the catalog listing, echoed back as filters.
var listingParams = []string{
	"category", "gender", "product_id", "q", "newArrival", "bestSeller", "collection", "sort", "order", "limit",
}

const (
	defaultSortField   = "createdAt"
	defaultSearchLimit = 10
	defaultCollLimit   = 20
)

// ProductQuery is a ready-to-run catalog query.
type ProductQuery struct {
	Filter  bson.D
	Sort    bson.D
	Limit   int64
	Applied map[string]string
}

// BuildProductQuery translates listing parameters into a filter and sort.
// Structured filters and q are AND-ed. Limit is capped at maxLimit, which also
// applies when limit is absent or not a positive integer.
func BuildProductQuery(params url.Values, maxLimit int) ProductQuery {
	filter := bson.D{}

	if v := param(params, "category"); v != "" && !strings.EqualFold(v, "all") {
		filter = append(filter, bson.E{Key: "category", Value: exactMatch(v)})
	}
	if v := param(params, "gender"); v != "" {
		filter = append(filter, bson.E{Key: "gender", Value: exactMatch(v)})
	}
	if v := param(params, "product_id"); v != "" {
		filter = append(filter, bson.E{Key: "product_id", Value: exactMatch(v)})
	}
	if v := param(params, "collection"); v != "" {
		filter = append(filter, bson.E{Key: "collection", Value: exactMatch(v)})
	}
	for _, flag := range []string{"newArrival", "bestSeller"} {
		if params.Has(flag) {
			filter = append(filter, bson.E{Key: flag, Value: strings.EqualFold(param(params, flag), "true")})
		}
	}
	if q := param(params, "q"); q != "" {
		filter = append(filter, bson.E{Key: "$or", Value: anyFieldContains(q, productSearchFields)})
	}

	return ProductQuery{
		Filter:  filter,
		Sort:    sortSpec(param(params, "sort"), param(params, "order")),
		Limit:   clampLimit(param(params, "limit"), int64(maxLimit), int64(maxLimit)),
		Applied: applied(params, listingParams),
	}
}

// BuildSearchQuery builds the dedicated search query. ok is false when q is
// blank; callers then return an empty result without querying.
func BuildSearchQuery(params url.Values, maxLimit int) (query ProductQuery, q string, ok bool) {
	q = param(params, "q")
	if q == "" {
		return ProductQuery{}, "", false
	}

	filter := bson.D{{Key: "$or", Value: anyFieldContains(q, productSearchFields)}}
	if v := param(params, "gender"); v != "" {
		filter = append(filter, bson.E{Key: "gender", Value: exactMatch(v)})
	}
	if v := param(params, "category"); v != "" && !strings.EqualFold(v, "all") {
		filter = append(filter, bson.E{Key: "category", Value: exactMatch(v)})
	}

	return ProductQuery{
		Filter: filter,
		Sort:   bson.D{{Key: defaultSortField, Value: -1}},
		Limit:  clampLimit(param(params, "limit"), defaultSearchLimit, int64(maxLimit)),
	}, q, true
}

// Curated collections served under /collections/:name.
const (
	CollectionNewArrivals = "new-arrivals"
	CollectionBestSellers = "best-sellers"
)

// BuildCollectionQuery returns the query for a curated collection, or ok=false
// for an unknown name.
func BuildCollectionQuery(name, limit string, maxLimit int) (ProductQuery, bool) {
	var q ProductQuery
	switch name {
	case CollectionNewArrivals:
		q.Filter = bson.D{{Key: "newArrival", Value: true}}
		q.Sort = bson.D{{Key: "createdAt", Value: -1}}
	case CollectionBestSellers:
		q.Filter = bson.D{{Key: "bestSeller", Value: true}}
		q.Sort = bson.D{{Key: "soldCount", Value: -1}}
	default:
		return ProductQuery{}, false
	}
	q.Limit = clampLimit(strings.TrimSpace(limit), defaultCollLimit, int64(maxLimit))
	return q, true
}

// exactMatch is a case-insensitive whole-value match with v taken literally.
func exactMatch(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

// containsMatch is a case-insensitive substring match with v taken literally.
func containsMatch(v string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
}

func anyFieldContains(q string, fields []string) bson.A {
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.D{{Key: f, Value: containsMatch(q)}})
	}
	return or
}

// sortSpec passes the field through as given; only "asc" sorts ascending.
func sortSpec(field, order string) bson.D {
	if field == "" {
		field = defaultSortField
	}
	dir := -1
	if strings.EqualFold(order, "asc") {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}}
}

// clampLimit parses raw as a positive integer capped at ceiling; anything
// else yields def (also capped).
func clampLimit(raw string, def, ceiling int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		n = def
	}
	if n > ceiling {
		n = ceiling
	}
	if n < 1 {
		n = 1
	}
	return n
}

func param(params url.Values, key string) string {
	return strings.TrimSpace(params.Get(key))
}

func applied(params url.Values, keys []string) map[string]string {
	out := map[string]string{}
	for _, k := range keys {
		if params.Has(k) {
			out[k] = params.Get(k)
		}
	}
	return out
}
