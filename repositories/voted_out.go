package repositories

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// decodeVotedOut normalizes the stored voted_out_players value into an ordered set of ids.
// Older rows hold a JSON array, a JSON string wrapping an array, or a Postgres array literal;
// empty, NULL and unparsable values become an empty set. Invalid ids and repeats are skipped.
func decodeVotedOut(raw []byte) []uuid.UUID {
	return decodeVotedOutDepth(raw, 0)
}

func decodeVotedOutDepth(raw []byte, depth int) []uuid.UUID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || depth > 2 {
		return []uuid.UUID{}
	}

	switch raw[0] {
	case '[':
		var items []interface{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return []uuid.UUID{}
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return parsePlayerIDs(values)
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return []uuid.UUID{}
		}
		return decodeVotedOutDepth([]byte(inner), depth+1)
	case '{':
		var arr pq.StringArray
		if err := arr.Scan(raw); err != nil {
			return []uuid.UUID{}
		}
		return parsePlayerIDs(arr)
	default:
		return []uuid.UUID{}
	}
}

func parsePlayerIDs(values []string) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(values))
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// encodeVotedOut always produces a JSON array, never null.
func encodeVotedOut(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
