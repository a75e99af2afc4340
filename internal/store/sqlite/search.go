package sqlite

import (
	"context"
	"fmt"
	"strings"

	"talesim/internal/store"
)

const defaultSearchLimit = 50

// Search matches query, in web-search syntax, against indexed messages.
// eventName narrows the results to one event when non-empty. Best matches
// come first.
func (c *Client) Search(ctx context.Context, query, eventName string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	sqlQuery := `
	SELECT round, event, message,
		   bm25(messages_fts) AS score,
		   snippet(messages_fts, 0, '**', '**', '...', 16) AS snippet
	FROM messages_fts
	WHERE messages_fts MATCH ?
	  AND (? = '' OR event = ?)
	ORDER BY score ASC, round ASC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, convertWebsearchToFTS5(query), eventName, eventName, limit)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.Round, &r.Event, &r.Message, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		// bm25 ranks better matches lower.
		r.Score = -r.Score
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// convertWebsearchToFTS5 rewrites a web-search style query into FTS5
// syntax. Adjacent terms are joined with AND and a leading minus becomes
// NOT, which FTS5 only accepts as a binary operator.
func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var current strings.Builder
	var inQuote bool

	join := func(op string) {
		if result.Len() == 0 {
			return
		}
		switch lastWord(result.String()) {
		case "AND", "OR", "NOT":
			result.WriteString(" ")
		default:
			result.WriteString(" " + op + " ")
		}
	}

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		switch upper := strings.ToUpper(token); upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		if strings.HasPrefix(token, "-") && len(token) > 1 {
			join("NOT")
			result.WriteString(token[1:])
			return
		}
		join("AND")
		result.WriteString(token)
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				phrase := current.String()
				current.Reset()
				if phrase != "" {
					join("AND")
					result.WriteString(`"` + phrase + `"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}
	flushToken()

	return result.String()
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
