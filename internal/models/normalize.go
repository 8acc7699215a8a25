package models

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var flatVariantKey = regexp.MustCompile(`^variants/(\d+)/(.+)$`)

// Variant field aliases seen in imported catalogs, in preference order.
var (
	variantSizeKeys = []string{"size", "variant_size", "title"}
	variantMRPKeys  = []string{"mrp", "list_price"}
	variantSellKeys = []string{"sell_price", "price"}
)

// ProductFromDocument converts a raw stored document into the canonical
// Product shape. Flattened legacy keys (images/0, variants/0/size) are
// coalesced into ordered sequences; unrecognized fields land in Extra.
func ProductFromDocument(doc map[string]any) Product {
	p := Product{Extra: map[string]any{}}

	for k, v := range doc {
		switch k {
		case "_id":
			if oid, ok := v.(primitive.ObjectID); ok {
				p.ID = oid
			}
		case "product_id":
			p.ProductID = asString(v)
		case "slug":
			p.Slug = asString(v)
		case "product_name":
			p.ProductName = asString(v)
		case "category":
			p.Category = asString(v)
		case "colour":
			p.Colour = asString(v)
		case "gender":
			p.Gender = asString(v)
		case "collection":
			p.Collection = asString(v)
		case "metadata":
			if m, ok := AsMap(v); ok {
				p.Metadata = m
			}
		case "newArrival":
			p.NewArrival = asBool(v)
		case "bestSeller":
			p.BestSeller = asBool(v)
		case "soldCount":
			if f, ok := ToNumber(v); ok {
				p.SoldCount = int(f)
			}
		case "createdAt":
			p.CreatedAt = asTime(v)
		case "updatedAt":
			p.UpdatedAt = asTime(v)
		case "images", "variants", "__v":
		default:
			if strings.HasPrefix(k, "images/") || strings.HasPrefix(k, "variants/") {
				continue
			}
			p.Extra[k] = v
		}
	}

	p.Images = collectImages(doc)
	p.Variants = collectVariants(doc)
	return p
}

// collectImages prefers the images array; otherwise it gathers images/N keys
// in numeric order.
func collectImages(doc map[string]any) []string {
	images := make([]string, 0)
	if raw, ok := doc["images"]; ok {
		if s, isStr := raw.(string); isStr {
			if s = strings.TrimSpace(s); s != "" {
				images = append(images, s)
			}
		} else if list, isList := AsSlice(raw); isList {
			for _, item := range list {
				if u := imageURL(item); u != "" {
					images = append(images, u)
				}
			}
		}
	}
	if len(images) > 0 {
		return images
	}

	type indexed struct {
		idx int
		url string
	}
	var flat []indexed
	for k, v := range doc {
		rest, found := strings.CutPrefix(k, "images/")
		if !found {
			continue
		}
		idx, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if u := imageURL(v); u != "" {
			flat = append(flat, indexed{idx: idx, url: u})
		}
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].idx < flat[j].idx })
	for _, f := range flat {
		images = append(images, f.url)
	}
	return images
}

func imageURL(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if m, ok := AsMap(v); ok {
		for _, k := range []string{"url", "src"} {
			if s := strings.TrimSpace(asString(m[k])); s != "" {
				return s
			}
		}
	}
	return ""
}

// collectVariants prefers the variants array; otherwise it rebuilds variants
// from variants/<i>/<field> keys in index order.
func collectVariants(doc map[string]any) []Variant {
	variants := make([]Variant, 0)
	if list, ok := AsSlice(doc["variants"]); ok && len(list) > 0 {
		for _, item := range list {
			if m, isMap := AsMap(item); isMap {
				variants = append(variants, variantFromMap(m))
			}
		}
		return variants
	}

	grouped := map[int]map[string]any{}
	for k, v := range doc {
		match := flatVariantKey.FindStringSubmatch(k)
		if match == nil {
			continue
		}
		idx, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if grouped[idx] == nil {
			grouped[idx] = map[string]any{}
		}
		field := match[2]
		if attr, isAttr := strings.CutPrefix(field, "attributes/"); isAttr {
			attrs, _ := grouped[idx]["attributes"].(map[string]any)
			if attrs == nil {
				attrs = map[string]any{}
				grouped[idx]["attributes"] = attrs
			}
			attrs[attr] = v
			continue
		}
		grouped[idx][field] = v
	}

	indices := make([]int, 0, len(grouped))
	for idx := range grouped {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		variants = append(variants, variantFromMap(grouped[idx]))
	}
	return variants
}

func variantFromMap(m map[string]any) Variant {
	v := Variant{}
	if oid, ok := m["_id"].(primitive.ObjectID); ok {
		v.ID = oid
	}
	for _, k := range variantSizeKeys {
		if s := strings.TrimSpace(asString(m[k])); s != "" {
			v.Size = NormalizeSize(s)
			break
		}
	}
	v.MRP = firstNumber(m, variantMRPKeys)
	v.SellPrice = firstNumber(m, variantSellKeys)
	if f, ok := ToNumber(m["stock"]); ok {
		v.Stock = int(f)
	}
	if attrs, ok := AsMap(m["attributes"]); ok {
		v.Attributes = attrs
	}
	return v
}

func firstNumber(m map[string]any, keys []string) *float64 {
	for _, k := range keys {
		if p := NumberPtr(m[k]); p != nil {
			return p
		}
	}
	return nil
}

// NormalizeSize trims and upper-cases a variant size.
func NormalizeSize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// LookupPath walks a dotted path ("pricing.price", "prices.0.amount") through
// nested documents and arrays.
func LookupPath(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		if m, ok := AsMap(cur); ok {
			next, present := m[seg]
			if !present {
				return nil, false
			}
			cur = next
			continue
		}
		if list, ok := AsSlice(cur); ok {
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(list) {
				return nil, false
			}
			cur = list[i]
			continue
		}
		return nil, false
	}
	return cur, cur != nil
}

// AsMap views the common document representations as a plain map.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return map[string]any(m), true
	case bson.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return nil, false
}

// AsSlice views the common array representations as a plain slice.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case bson.A:
		return []any(s), true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case int, int32, int64, float64:
		if f, ok := ToNumber(s); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		return t.Time()
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
