// Package dates fills the created_at and completed_at backlog columns from
// git history.
package dates

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Fallback created_at dates for items with no git history.
const (
	OriginalBacklogDate = "2025-12-15"
	CSVConversionDate   = "2026-01-17"
	lastOriginalItem    = 71
)

// Repository-relative locations searched in git history.
const (
	DefaultBacklogPath = ".claude/plans/backlog"
	DefaultPlansPath   = ".claude/plans"
)

const (
	ColCreated   = "created_at"
	ColCompleted = "completed_at"
	idPrefix     = "BACKLOG-"
)

var (
	completionWords = regexp.MustCompile(`complete|completed|done|finish|mark.*complete`)
	prRef           = regexp.MustCompile(`(?i)PR\s*#?(\d+)`)
)

// Change records one filled cell.
type Change struct {
	ID     string
	Column string
	Value  string
	Source string
}

func (c Change) String() string {
	if c.Source == "" {
		return fmt.Sprintf("%s: %s = %s", c.ID, c.Column, c.Value)
	}
	return fmt.Sprintf("%s: %s = %s (%s)", c.ID, c.Column, c.Value, c.Source)
}

// Resolver looks up dates for backlog items.
type Resolver struct {
	Git     GitRunner
	Logger  *zap.Logger
	Workers int
	// BacklogPath and PlansPath are relative to the repository root.
	BacklogPath string
	PlansPath   string
}

// NewResolver creates a Resolver with default paths.
func NewResolver(git GitRunner, workers int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		Git:         git,
		Logger:      logger,
		Workers:     workers,
		BacklogPath: DefaultBacklogPath,
		PlansPath:   DefaultPlansPath,
	}
}

func (r *Resolver) git(ctx context.Context, args ...string) string {
	out, err := r.Git.Git(ctx, args...)
	if err != nil {
		r.Logger.Debug("git lookup failed", zap.Strings("args", args), zap.Error(err))
		return ""
	}
	return out
}

func day(iso string) string {
	if len(iso) < 10 {
		return iso
	}
	return iso[:10]
}

// FallbackDate is the created_at used when git has nothing for id.
func FallbackDate(id string) string {
	if n := model.ItemNumber(id); n >= 1 && n <= lastOriginalItem {
		return OriginalBacklogDate
	}
	return CSVConversionDate
}

// CreatedDate is the date the item file was first added, checking the items
// directory before the legacy flat layout. Empty when never committed.
func (r *Resolver) CreatedDate(ctx context.Context, id string) string {
	for _, p := range []string{
		r.BacklogPath + "/items/" + id + ".md",
		r.BacklogPath + "/" + id + ".md",
	} {
		if out := r.git(ctx, "log", "--follow", "--diff-filter=A", "--format=%aI", "-1", "--", p); out != "" {
			return day(out)
		}
	}
	return ""
}

// logLines splits "date|subject" output.
func logLines(out string) [][2]string {
	var lines [][2]string
	for _, l := range strings.Split(out, "\n") {
		date, msg, ok := strings.Cut(l, "|")
		if !ok {
			continue
		}
		lines = append(lines, [2]string{date, msg})
	}
	return lines
}

// IsDone reports whether status counts as finished.
func IsDone(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "done":
		return true
	}
	return false
}

// CompletedDate tries, in order: a commit naming the id with a completion
// keyword, a sprint completion commit, then the merge of a PR referenced in
// variance.
func (r *Resolver) CompletedDate(ctx context.Context, item model.Record) string {
	if !IsDone(item.Status()) {
		return ""
	}
	id := item.ID()
	lower := strings.ToLower(id)

	out := r.git(ctx, "log", "--all", "--oneline", "--format=%aI|%s", "--grep", id, "--", r.BacklogPath+"/")
	for _, l := range logLines(out) {
		msg := strings.ToLower(l[1])
		if strings.Contains(msg, lower) && completionWords.MatchString(msg) {
			return day(l[0])
		}
	}

	if sprint := item.Sprint(); !model.IsBlank(sprint) {
		out := r.git(ctx, "log", "--all", "--oneline", "--format=%aI|%s",
			"--grep", sprint, "--grep", "complete", "--all-match", "--", r.PlansPath+"/")
		for _, l := range logLines(out) {
			if strings.Contains(strings.ToLower(l[1]), strings.ToLower(sprint)) {
				return day(l[0])
			}
		}
	}

	if m := prRef.FindStringSubmatch(item.Get("variance")); m != nil {
		ref := "#" + m[1]
		out := r.git(ctx, "log", "--all", "--oneline", "--format=%aI|%s", "--grep", ref)
		for _, l := range logLines(out) {
			if strings.Contains(l[1], ref) {
				return day(l[0])
			}
		}
	}
	return ""
}

// EnsureColumns adds created_at and completed_at after variance, or at the
// end when the table has no variance column.
func EnsureColumns(t *csvstore.Table) {
	t.InsertAfter("variance", ColCreated)
	t.InsertAfter(ColCreated, ColCompleted)
}

// Update fills empty date cells in place and drops rows whose id does not
// start with BACKLOG-. Lookups run on at most Workers goroutines.
func (r *Resolver) Update(ctx context.Context, t *csvstore.Table) ([]Change, error) {
	EnsureColumns(t)

	var rows []model.Record
	for _, row := range t.Rows {
		if !strings.HasPrefix(row.ID(), idPrefix) {
			r.Logger.Debug("dropping non-backlog row", zap.String("id", row.ID()))
			continue
		}
		rows = append(rows, row)
	}
	t.Rows = rows

	found := make([][]Change, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[i] = r.resolve(gctx, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changes []Change
	for i, row := range rows {
		for _, c := range found[i] {
			row[c.Column] = c.Value
			changes = append(changes, c)
		}
	}
	return changes, nil
}

func (r *Resolver) resolve(ctx context.Context, row model.Record) []Change {
	var out []Change
	id := row.ID()
	if row.Get(ColCreated) == "" {
		c := Change{ID: id, Column: ColCreated, Value: r.CreatedDate(ctx, id), Source: "from MD file"}
		if c.Value == "" {
			c.Value, c.Source = FallbackDate(id), "fallback"
		}
		out = append(out, c)
	}
	if row.Get(ColCompleted) == "" && IsDone(row.Status()) {
		if d := r.CompletedDate(ctx, row); d != "" {
			out = append(out, Change{ID: id, Column: ColCompleted, Value: d})
		}
	}
	return out
}
