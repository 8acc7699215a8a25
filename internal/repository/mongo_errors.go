package repository

import (
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sashvara/storefront_api/internal/utils"
)

var (
	dupKeyPattern   = regexp.MustCompile(`dup key: \{\s*"?([A-Za-z0-9_.]+)"?\s*:`)
	dupIndexPattern = regexp.MustCompile(`index: ([A-Za-z0-9_.]+)`)
)

// asDuplicateKey converts a unique-index violation into *utils.DuplicateKeyError
// naming the offending field.
func asDuplicateKey(err error) (*utils.DuplicateKeyError, bool) {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return nil, false
	}
	return &utils.DuplicateKeyError{Key: duplicateKeyField(err), Err: err}, true
}

// duplicateKeyField extracts the field name from the server message, falling
// back to the index name with its suffix removed.
func duplicateKeyField(err error) string {
	msg := err.Error()
	var we mongo.WriteException
	if errors.As(err, &we) && len(we.WriteErrors) > 0 {
		msg = we.WriteErrors[0].Message
	}
	if m := dupKeyPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := dupIndexPattern.FindStringSubmatch(msg); m != nil {
		name := strings.TrimSuffix(m[1], "_unique")
		name = strings.TrimSuffix(name, "_1")
		return name
	}
	return "unknown"
}
