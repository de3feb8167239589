package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adisatrio/offersession/internal/models"
)

// ErrInvalidToken marks a navigation token that cannot be decoded or is
// missing required search fields. Handlers redirect such requests back to the
// search entry point.
var ErrInvalidToken = errors.New("invalid search token")

// Encode packs a SearchRequest into the opaque URL-safe token carried by the
// results page link.
func Encode(req models.SearchRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode unpacks a navigation token and validates the required fields,
// filling defaults for the optional ones.
func Decode(s string) (models.SearchRequest, error) {
	var req models.SearchRequest

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return req, nil
}
