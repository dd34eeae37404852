package filter

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/qbitctl/qbittorrent"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Type-check against a zero torrent so unknown fields are rejected up front.
	env := createRuntimeEnvironment(&qbittorrent.TorrentInfo{})
	maps.Copy(env, c.helperFuncs)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Evaluate evaluates the filter against a torrent
func (f *exprFilter) Evaluate(torrent *qbittorrent.TorrentInfo) bool {
	if torrent == nil {
		return false
	}

	result, err := expr.Run(f.program, createRuntimeEnvironment(torrent))
	if err != nil {
		// Runtime errors (nil dates, bad helper input) skip the torrent.
		return false
	}

	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the torrent-independent helpers
func createHelperFunctions() map[string]any {
	return map[string]any{
		"daysSince": func(t time.Time) int {
			if t.IsZero() {
				return -1
			}
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"now":   time.Now,
		"kib":   func(n float64) int64 { return int64(n * 1024) },
		"mib":   func(n float64) int64 { return int64(n * 1024 * 1024) },
		"gib":   func(n float64) int64 { return int64(n * 1024 * 1024 * 1024) },
	}
}

// createRuntimeEnvironment exposes torrent fields and torrent-bound helpers
func createRuntimeEnvironment(t *qbittorrent.TorrentInfo) map[string]any {
	env := createHelperFunctions()

	lowerTags := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		lowerTags[i] = strings.ToLower(tag)
	}

	env["hasTag"] = func(tag string) bool {
		return slices.Contains(lowerTags, strings.ToLower(tag))
	}
	env["inCategory"] = func(category string) bool {
		return strings.EqualFold(t.Category, category)
	}
	env["isSeeding"] = t.IsActivelySeeding
	env["isComplete"] = t.IsComplete

	env["Hash"] = t.Hash
	env["Name"] = t.Name
	env["State"] = t.State
	env["Category"] = t.Category
	env["Tags"] = t.Tags
	env["Tracker"] = t.Tracker
	env["SavePath"] = t.SavePath
	env["Size"] = t.Size
	env["Progress"] = t.Progress
	env["Ratio"] = t.Ratio
	env["Downloaded"] = t.DownloadedSize
	env["Uploaded"] = t.UploadedSize
	env["DownloadSpeed"] = t.DownloadSpeed
	env["UploadSpeed"] = t.UploadSpeed
	env["Seeds"] = t.Seeds
	env["Leechers"] = t.Leechers
	env["AddedOn"] = t.AddedOn
	env["CompletionOn"] = t.CompletionOn

	return env
}

// ParseAndCreateFilter compiles expression without caching
func ParseAndCreateFilter(expression string) (CompiledFilter, error) {
	return NewExprCompiler().Compile(expression)
}

// sequentialEvaluator keeps torrent order and stops when ctx is cancelled.
type sequentialEvaluator struct{}

// NewEvaluator returns the default Evaluator
func NewEvaluator() Evaluator {
	return sequentialEvaluator{}
}

// Evaluate returns the torrents matching filter
func (sequentialEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, torrents []*qbittorrent.TorrentInfo) ([]*qbittorrent.TorrentInfo, error) {
	matches := make([]*qbittorrent.TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filter.Evaluate(t) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}
