package report

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// MatchesResponse answers GET /api/matches.
type MatchesResponse struct {
	Total   int            `json:"total"`
	Matches []MatchSummary `json:"matches"`
}

// Handler serves the summaries and per-match replays as JSON:
//
//	GET /api/matches?limit=&offset=
//	GET /api/matches/{id}
func (d *DB) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/matches", d.handleMatches)
	mux.HandleFunc("/api/matches/{id}", d.handleMatch)
	return mux
}

func withCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (d *DB) handleMatches(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sums, err := d.MatchSummaries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	limit := parseIntQuery(r, "limit", 1000)
	offset := min(parseIntQuery(r, "offset", 0), len(sums))
	end := min(offset+limit, len(sums))
	writeJSON(w, MatchesResponse{Total: len(sums), Matches: sums[offset:end]})
}

func (d *DB) handleMatch(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	decisions, err := d.MatchDecisions(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(decisions) == 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, decisions)
}
