package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/brensch/lantern/store"
)

func row(match string, round, turn, blue, red int32, nodes int64) store.DecisionRow {
	return store.DecisionRow{
		MatchID:   match,
		Round:     round,
		Turn:      turn,
		BotX:      []int32{1, 2, 3, 4},
		BotY:      []int32{1, 2, 3, 4},
		ScoreBlue: blue,
		ScoreRed:  red,
		Nodes:     nodes,
		ElapsedUs: 10,
		Source:    "test",
	}
}

func TestMatchSummaries(t *testing.T) {
	dir := t.TempDir()
	if _, err := store.WriteBatchParquetAtomic(dir, []store.DecisionRow{
		row("a", 0, 0, 0, 0, 10),
		row("a", 0, 1, 0, 0, 20),
		row("b", 0, 0, 0, 0, 5),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.WriteBatchParquetAtomic(filepath.Join(dir, "more"), []store.DecisionRow{
		row("a", 2, 3, 1, 5, 30),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Staged files are not part of the view.
	if _, err := store.WriteBatchParquetAtomic(filepath.Join(dir, "tmp"), []store.DecisionRow{
		row("staged", 0, 0, 0, 0, 1),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	db, err := Open([]string{dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Fatalf("count=%d want=4", n)
	}

	sums, err := db.MatchSummaries(ctx)
	if err != nil {
		t.Fatalf("MatchSummaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("summaries=%+v want 2", sums)
	}
	a := sums[0]
	if a.MatchID != "a" || a.Decisions != 3 || a.Rounds != 3 || a.ScoreBlue != 1 || a.ScoreRed != 5 || a.MeanNodes != 20 {
		t.Fatalf("a=%+v", a)
	}
	if b := sums[1]; b.MatchID != "b" || b.Decisions != 1 || b.Rounds != 1 {
		t.Fatalf("b=%+v", b)
	}
}

func TestOpen_EmptyRoot(t *testing.T) {
	db, err := Open([]string{t.TempDir(), ""})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	sums, err := db.MatchSummaries(context.Background())
	if err != nil {
		t.Fatalf("MatchSummaries: %v", err)
	}
	if len(sums) != 0 {
		t.Fatalf("summaries=%+v want none", sums)
	}
}

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	r := row("m", 1, 2, 3, 4, 50)
	r.MoveX, r.MoveY, r.Value = 5, 6, -7
	if _, err := store.WriteBatchParquetAtomic(dir, []store.DecisionRow{
		r,
		row("m", 0, 0, 0, 0, 40),
		row("other", 0, 0, 0, 0, 1),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir
}

func TestMatchDecisions(t *testing.T) {
	db, err := Open([]string{writeSample(t)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	got, err := db.MatchDecisions(context.Background(), "m")
	if err != nil {
		t.Fatalf("MatchDecisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decisions=%+v want 2", got)
	}
	if got[0].Round != 0 || got[1].Round != 1 {
		t.Fatalf("not in play order: %+v", got)
	}
	d := got[1]
	if d.Turn != 2 || d.Score != [2]int32{3, 4} || d.MoveX != 5 || d.MoveY != 6 || d.Value != -7 || d.Nodes != 50 {
		t.Fatalf("decision=%+v", d)
	}
	if len(d.BotX) != 4 || d.BotX[3] != 4 || d.BotY[0] != 1 {
		t.Fatalf("bots x=%v y=%v", d.BotX, d.BotY)
	}
}

func TestHandler(t *testing.T) {
	db, err := Open([]string{writeSample(t)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	ts := httptest.NewServer(db.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/matches?limit=1&offset=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var page MatchesResponse
	err = json.NewDecoder(resp.Body).Decode(&page)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || len(page.Matches) != 1 || page.Matches[0].MatchID != "other" {
		t.Fatalf("page=%+v", page)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	resp, err = http.Get(ts.URL + "/api/matches/m")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var decisions []Decision
	err = json.NewDecoder(resp.Body).Decode(&decisions)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("decisions=%d want=2", len(decisions))
	}

	resp, err = http.Get(ts.URL + "/api/matches/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want=404", resp.StatusCode)
	}
}
