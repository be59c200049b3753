package mongo

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stockroom/inventory-api/internal/core/ports"
)

// searchFields are matched by the free-text item search.
var searchFields = []string{"name", "description", "category"}

// searchFilter builds a case-insensitive substring match across searchFields.
// The term is quoted so regex metacharacters match literally.
func searchFilter(term string) bson.M {
	term = strings.TrimSpace(term)
	if term == "" {
		return bson.M{}
	}

	rx := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := make(bson.A, 0, len(searchFields))
	for _, f := range searchFields {
		or = append(or, bson.M{f: rx})
	}
	return bson.M{"$or": or}
}

// updateDocument sets only the supplied fields plus updated_at.
func updateDocument(u ports.ItemUpdate, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt.UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Quantity != nil {
		set["quantity"] = *u.Quantity
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	return bson.M{"$set": set}
}
