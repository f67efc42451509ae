package syncer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dkotlyar/snipstash/internal/models"
)

type hashTriple struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// ChangeHash computes a deterministic, order-sensitive digest over the
// (id, title, timestamp) projection of the list. Struct marshalling
// fixes the key order, so the digest is invariant to the key order of
// the inbound JSON and changes exactly when the triples change.
func ChangeHash(snippets []models.Snippet) string {
	triples := make([]hashTriple, len(snippets))
	for i, s := range snippets {
		triples[i] = hashTriple{ID: s.ID, Title: s.Title, Timestamp: s.Timestamp}
	}

	b, err := json.Marshal(triples)
	if err != nil {
		// triples contain only plain fields; Marshal cannot fail
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
