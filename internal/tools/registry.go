package tools

import (
	"context"
	"time"

	"github.com/usagelens/usagelens/internal/analytics"
	"github.com/usagelens/usagelens/internal/dateutil"
)

// Handler computes one tool's rows and optional summary from
// validated arguments. now is the reference time for date
// defaulting, injected so results are a pure function of (store,
// args, now).
type Handler func(
	ctx context.Context, st analytics.Store, args Args, now time.Time,
) (any, map[string]any, error)

// Tool is one registry entry: the parameter schema callers see and
// the handler the dispatcher invokes.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
	handler     Handler
}

// Registry is the static tool set, constructed once and passed to
// the dispatch layer.
type Registry struct {
	tools []Tool
	index map[string]*Tool
	now   func() time.Time
}

// NewRegistry builds the full tool registry.
func NewRegistry() *Registry {
	r := &Registry{now: time.Now}
	r.tools = toolDefs()
	r.index = make(map[string]*Tool, len(r.tools))
	for i := range r.tools {
		r.index[r.tools[i].Name] = &r.tools[i]
	}
	return r
}

// SetClock overrides the reference clock, for tests.
func (r *Registry) SetClock(fn func() time.Time) { r.now = fn }

// Tools returns the registry entries in definition order.
func (r *Registry) Tools() []Tool { return r.tools }

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Invoke validates args, runs the named tool, and wraps the rows
// in the result envelope. Either a complete MetricResult or an
// error is returned; there are no partial results.
func (r *Registry) Invoke(
	ctx context.Context, st analytics.Store, name string, args Args,
) (*MetricResult, error) {
	t, ok := r.index[name]
	if !ok {
		return nil, analytics.InvalidParam("tool", "unknown tool: "+name)
	}
	validated, err := validateArgs(t.Params, args)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	started := time.Now()
	rows, summary, err := t.handler(ctx, st, validated, now)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []any{}
	}
	return &MetricResult{
		Tool:        t.Name,
		Description: t.Description,
		Parameters:  validated,
		ComputedAt:  now,
		QueryTimeMS: time.Since(started).Milliseconds(),
		Data:        rows,
		Summary:     summary,
	}, nil
}

// --- Schema helpers ---

func fptr(v float64) *float64 { return &v }

func rangeParams() []Param {
	return []Param{
		{Name: "start_date", Type: TypeDate},
		{Name: "end_date", Type: TypeDate},
	}
}

func limitParam() Param {
	return Param{
		Name: "limit", Type: TypeInt,
		Default: 100, Min: fptr(1), Max: fptr(1000),
	}
}

func topNParam() Param {
	return Param{
		Name: "top_n", Type: TypeInt,
		Default: 10, Min: fptr(1), Max: fptr(1000),
	}
}

func periodParam() Param {
	return Param{Name: "period", Type: TypeString, Default: "day"}
}

func appParam(required bool) Param {
	return Param{
		Name: "application_name", Type: TypeString, Required: required,
	}
}

func userParam(required bool) Param {
	return Param{Name: "user", Type: TypeString, Required: required}
}

func join(groups ...[]Param) []Param {
	var out []Param
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// argPeriod reads the bucket period, rejecting anything outside
// day/week/month.
func argPeriod(args Args) (string, error) {
	period := argString(args, "period")
	if period == "" {
		period = "day"
	}
	if !dateutil.ValidPeriod(period) {
		return "", analytics.InvalidParam(
			"period", "must be day, week, or month",
		)
	}
	return period, nil
}

// --- Tool definitions ---

func toolDefs() []Tool {
	var defs []Tool
	defs = append(defs, usageToolDefs()...)
	defs = append(defs, trendToolDefs()...)
	defs = append(defs, advancedToolDefs()...)
	defs = append(defs, crossToolDefs()...)
	defs = append(defs, userToolDefs()...)
	defs = append(defs, versionToolDefs()...)
	defs = append(defs, catalogToolDefs()...)
	return defs
}

func usageStatsParams(args Args, now time.Time) (analytics.UsageStatsParams, error) {
	r, err := argRange(args, now)
	if err != nil {
		return analytics.UsageStatsParams{}, err
	}
	return analytics.UsageStatsParams{
		Range:    r,
		User:     argString(args, "user"),
		App:      argString(args, "application_name"),
		Platform: argString(args, "platform"),
		TopN:     argInt(args, "top_n"),
		Limit:    argInt(args, "limit"),
	}, nil
}

func usageToolDefs() []Tool {
	platformParam := Param{Name: "platform", Type: TypeString}
	return []Tool{
		{
			Name:        "usage_time_stats",
			Description: "Per-application usage totals with catalog metadata",
			Params: join(rangeParams(), []Param{
				userParam(false), appParam(false), platformParam,
				limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UsageTimeStats(ctx, st, p)
			},
		},
		{
			Name:        "top_apps_by_usage",
			Description: "Applications ranked by total usage hours",
			Params: join(rangeParams(), []Param{
				platformParam, topNParam(), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.TopAppsByUsage(ctx, st, p)
			},
		},
		{
			Name:        "user_count_stats",
			Description: "Distinct-user counts per application",
			Params: join(rangeParams(), []Param{
				appParam(false), platformParam, limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserCountStats(ctx, st, p)
			},
		},
		{
			Name:        "top_apps_by_users",
			Description: "Applications ranked by distinct-user count",
			Params: join(rangeParams(), []Param{
				platformParam, topNParam(), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.TopAppsByUsers(ctx, st, p)
			},
		},
		{
			Name:        "average_usage_time",
			Description: "Average usage per active day for each user and application",
			Params: join(rangeParams(), []Param{
				userParam(false), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.AverageUsageTime(ctx, st, p)
			},
		},
		{
			Name:        "platform_usage_stats",
			Description: "Usage broken down by platform",
			Params: join(rangeParams(), []Param{
				appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.PlatformUsageStats(ctx, st, p)
			},
		},
		{
			Name:        "total_usage_period",
			Description: "Aggregate usage totals for a date range",
			Params: join(rangeParams(), []Param{
				userParam(false), appParam(false),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := usageStatsParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.TotalUsagePeriod(ctx, st, p)
			},
		},
	}
}

func trendParams(args Args, now time.Time) (analytics.TrendParams, error) {
	r, err := argRange(args, now)
	if err != nil {
		return analytics.TrendParams{}, err
	}
	period, err := argPeriod(args)
	if err != nil {
		return analytics.TrendParams{}, err
	}
	return analytics.TrendParams{
		Range:  r,
		Period: period,
		App:    argString(args, "application_name"),
		User:   argString(args, "user"),
		Limit:  argInt(args, "limit"),
	}, nil
}

func trendToolDefs() []Tool {
	return []Tool{
		{
			Name:        "daily_usage_trend",
			Description: "Day-by-day usage hours, sessions, and users",
			Params: join(rangeParams(), []Param{
				appParam(false), userParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.DailyUsageTrend(ctx, st, p)
			},
		},
		{
			Name:        "usage_trends",
			Description: "Bucketed usage series with period-over-period change",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(false), userParam(false),
				limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UsageTrends(ctx, st, p)
			},
		},
		{
			Name:        "usage_comparison",
			Description: "Per-application usage compared across two date ranges",
			Params: []Param{
				{Name: "first_start", Type: TypeDate, Required: true},
				{Name: "first_end", Type: TypeDate, Required: true},
				{Name: "second_start", Type: TypeDate, Required: true},
				{Name: "second_end", Type: TypeDate, Required: true},
				appParam(false), limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				rangeA, err := resolveExplicitRange(args, "first_start", "first_end", now)
				if err != nil {
					return nil, nil, err
				}
				rangeB, err := resolveExplicitRange(args, "second_start", "second_end", now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UsageComparison(ctx, st, analytics.ComparisonParams{
					RangeA: rangeA,
					RangeB: rangeB,
					App:    argString(args, "application_name"),
					Limit:  argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "active_users_count",
			Description: "Distinct active users per bucket",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.ActiveUsersCount(ctx, st, p)
			},
		},
		{
			Name:        "new_users_count",
			Description: "Users first seen in each bucket",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.NewUsersCount(ctx, st, p)
			},
		},
		{
			Name:        "onboarding_trend",
			Description: "New-user intake per bucket with growth rate",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.OnboardingTrend(ctx, st, p)
			},
		},
	}
}

// resolveExplicitRange resolves a pair of required date params.
func resolveExplicitRange(
	args Args, startKey, endKey string, now time.Time,
) (dateutil.Range, error) {
	r, err := dateutil.ResolveRange(
		argString(args, startKey), argString(args, endKey), now,
	)
	if err != nil {
		return dateutil.Range{}, analytics.InvalidRange(err.Error())
	}
	return r, nil
}

func advancedToolDefs() []Tool {
	return []Tool{
		{
			Name:        "session_length_analysis",
			Description: "Per-application session-length statistics",
			Params: join(rangeParams(), []Param{
				userParam(false), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				r, err := argRange(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.SessionLengthAnalysis(ctx, st, analytics.SessionParams{
					Range: r,
					User:  argString(args, "user"),
					App:   argString(args, "application_name"),
					Limit: argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "median_session_length",
			Description: "Median session length over the filtered sessions",
			Params: join(rangeParams(), []Param{
				userParam(false), appParam(false),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				r, err := argRange(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.MedianSessionLength(ctx, st, analytics.SessionParams{
					Range: r,
					User:  argString(args, "user"),
					App:   argString(args, "application_name"),
				})
			},
		},
		{
			Name:        "heavy_users",
			Description: "Users whose total usage hours exceed a threshold",
			Params: join(rangeParams(), []Param{
				appParam(false),
				{Name: "min_hours", Type: TypeFloat, Default: 40.0, Min: fptr(0)},
				limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				r, err := argRange(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.HeavyUsers(ctx, st, analytics.HeavyUsersParams{
					Range:    r,
					App:      argString(args, "application_name"),
					MinHours: argFloat(args, "min_hours"),
					Limit:    argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "inactive_users",
			Description: "Known users inactive for more than a threshold of days",
			Params: []Param{
				{Name: "min_inactive_days", Type: TypeInt, Default: 30, Min: fptr(0)},
				limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.InactiveUsers(ctx, st, analytics.InactiveUsersParams{
					MinInactiveDays: argInt(args, "min_inactive_days"),
					Today:           today(now),
					Limit:           argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "churn_rate_analysis",
			Description: "Share of previously active users absent after a reference date",
			Params: []Param{
				{Name: "churn_date", Type: TypeDate, Required: true},
				appParam(false),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				res, summary, err := analytics.ChurnRateAnalysis(
					ctx, st,
					argString(args, "churn_date"),
					argString(args, "application_name"),
				)
				if err != nil {
					return nil, nil, err
				}
				return []*analytics.ChurnResult{res}, summary, nil
			},
		},
		{
			Name:        "new_vs_returning_users",
			Description: "Per-bucket split of first-time and returning users",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.NewVsReturningUsers(ctx, st, p)
			},
		},
		{
			Name:        "growth_trend_analysis",
			Description: "User and hours growth series for one application",
			Params: join(rangeParams(), []Param{
				periodParam(), appParam(true), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := trendParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.GrowthTrendAnalysis(ctx, st, p)
			},
		},
	}
}

func crossParams(args Args, now time.Time) (analytics.CrossParams, error) {
	r, err := argRange(args, now)
	if err != nil {
		return analytics.CrossParams{}, err
	}
	return analytics.CrossParams{
		Range:    r,
		User:     argString(args, "user"),
		MinApps:  argInt(args, "min_apps"),
		MinUsers: argInt(args, "min_users"),
		Limit:    argInt(args, "limit"),
	}, nil
}

func crossToolDefs() []Tool {
	return []Tool{
		{
			Name:        "multi_app_users",
			Description: "Users active in a minimum number of distinct applications",
			Params: join(rangeParams(), []Param{
				{Name: "min_apps", Type: TypeInt, Default: 2, Min: fptr(1)},
				limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := crossParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.MultiAppUsers(ctx, st, p)
			},
		},
		{
			Name:        "common_app_combinations",
			Description: "Application pairs sharing a minimum number of users",
			Params: join(rangeParams(), []Param{
				{Name: "min_users", Type: TypeInt, Default: 2, Min: fptr(1)},
				limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := crossParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.CommonAppCombinations(ctx, st, p)
			},
		},
		{
			Name:        "usage_percentage_breakdown",
			Description: "Each application's share of total usage hours",
			Params: join(rangeParams(), []Param{
				userParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := crossParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UsagePercentageBreakdown(ctx, st, p)
			},
		},
		{
			Name:        "user_app_matrix",
			Description: "User-by-application hours matrix",
			Params: join(rangeParams(), []Param{
				userParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := crossParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserAppMatrix(ctx, st, p)
			},
		},
	}
}

func userParams(args Args, now time.Time) (analytics.UserParams, error) {
	r, err := argRange(args, now)
	if err != nil {
		return analytics.UserParams{}, err
	}
	return analytics.UserParams{
		Range: r,
		User:  argString(args, "user"),
		App:   argString(args, "application_name"),
		TopN:  argInt(args, "top_n"),
		Limit: argInt(args, "limit"),
	}, nil
}

func userToolDefs() []Tool {
	return []Tool{
		{
			Name:        "app_users",
			Description: "Users of one application ranked by hours",
			Params: join(rangeParams(), []Param{
				appParam(true), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := userParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.AppUsers(ctx, st, p)
			},
		},
		{
			Name:        "user_applications",
			Description: "Applications one user has used, ranked by hours",
			Params: join(rangeParams(), []Param{
				userParam(true), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := userParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserApplications(ctx, st, p)
			},
		},
		{
			Name:        "user_top_apps",
			Description: "One user's most-used applications",
			Params: join(rangeParams(), []Param{
				userParam(true), topNParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := userParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserTopApps(ctx, st, p)
			},
		},
		{
			Name:        "user_total_hours",
			Description: "One user's aggregate usage for a range",
			Params:      join(rangeParams(), []Param{userParam(true)}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := userParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserTotalHours(ctx, st, p)
			},
		},
		{
			Name:        "user_app_hours",
			Description: "One user's usage of one application",
			Params: join(rangeParams(), []Param{
				userParam(true), appParam(true),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := userParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.UserAppHours(ctx, st, p)
			},
		},
		{
			Name:        "user_last_active",
			Description: "When a user was last seen",
			Params:      []Param{userParam(true)},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.UserLastActive(
					ctx, st, argString(args, "user"), today(now),
				)
			},
		},
		{
			Name:        "user_last_app",
			Description: "The application a user most recently used",
			Params:      []Param{userParam(true)},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.UserLastApp(
					ctx, st, argString(args, "user"), today(now),
				)
			},
		},
	}
}

func versionParams(args Args, now time.Time) (analytics.VersionParams, error) {
	r, err := argRange(args, now)
	if err != nil {
		return analytics.VersionParams{}, err
	}
	return analytics.VersionParams{
		Range:      r,
		App:        argString(args, "application_name"),
		MinDaysOld: argInt(args, "min_days_old"),
		Today:      today(now),
		Limit:      argInt(args, "limit"),
	}, nil
}

func versionToolDefs() []Tool {
	return []Tool{
		{
			Name:        "version_distribution",
			Description: "Usage broken down by reported application version",
			Params: join(rangeParams(), []Param{
				appParam(false), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := versionParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.VersionDistribution(ctx, st, p)
			},
		},
		{
			Name:        "outdated_versions",
			Description: "Stale versions still in use, judged against the catalog",
			Params: []Param{
				appParam(false),
				{Name: "min_days_old", Type: TypeInt, Default: 30, Min: fptr(0)},
				limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.OutdatedVersions(ctx, st, analytics.VersionParams{
					App:        argString(args, "application_name"),
					MinDaysOld: argInt(args, "min_days_old"),
					Today:      today(now),
					Limit:      argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "version_usage_breakdown",
			Description: "One application's usage hours per version",
			Params: join(rangeParams(), []Param{
				appParam(true), limitParam(),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := versionParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.VersionUsageBreakdown(ctx, st, p)
			},
		},
		{
			Name:        "legacy_vs_modern",
			Description: "Usage split between legacy-flagged and modern applications",
			Params: join(rangeParams(), []Param{
				appParam(false),
			}),
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				p, err := versionParams(args, now)
				if err != nil {
					return nil, nil, err
				}
				return analytics.LegacyVsModern(ctx, st, p)
			},
		},
	}
}

func catalogToolDefs() []Tool {
	return []Tool{
		{
			Name:        "list_applications",
			Description: "Catalog entries matching optional filters",
			Params: []Param{
				appParam(false),
				{Name: "app_type", Type: TypeString},
				{Name: "publisher", Type: TypeString},
				{Name: "tracking_only", Type: TypeBool, Default: false},
				limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.ListApplications(ctx, st, analytics.CatalogParams{
					App:          argString(args, "application_name"),
					AppType:      argString(args, "app_type"),
					Publisher:    argString(args, "publisher"),
					TrackingOnly: argBool(args, "tracking_only"),
					Limit:        argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "app_details",
			Description: "Catalog metadata and lifetime usage for one application",
			Params:      []Param{appParam(true)},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.AppDetailsFor(
					ctx, st, argString(args, "application_name"),
				)
			},
		},
		{
			Name:        "app_versions",
			Description: "Observed versions next to the catalog's current version",
			Params:      []Param{appParam(true)},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.AppVersionsFor(
					ctx, st, argString(args, "application_name"),
				)
			},
		},
		{
			Name:        "legacy_apps",
			Description: "Applications flagged legacy in the usage log",
			Params:      []Param{limitParam()},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.LegacyApps(ctx, st, analytics.CatalogParams{
					Limit: argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "recent_releases",
			Description: "Catalog entries released within a trailing window",
			Params: []Param{
				{Name: "days", Type: TypeInt, Default: 90, Min: fptr(1)},
				limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.RecentReleases(ctx, st, analytics.CatalogParams{
					Days:  argInt(args, "days"),
					Today: today(now),
					Limit: argInt(args, "limit"),
				})
			},
		},
		{
			Name:        "top_publishers",
			Description: "Publishers ranked by usage hours across their applications",
			Params:      []Param{topNParam()},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.TopPublishers(ctx, st, analytics.CatalogParams{
					TopN: argInt(args, "top_n"),
				})
			},
		},
		{
			Name:        "tracking_status",
			Description: "Tracking configuration per catalog entry",
			Params: []Param{
				appParam(false), limitParam(),
			},
			handler: func(ctx context.Context, st analytics.Store, args Args, now time.Time) (any, map[string]any, error) {
				return analytics.TrackingStatus(ctx, st, analytics.CatalogParams{
					App:   argString(args, "application_name"),
					Limit: argInt(args, "limit"),
				})
			},
		},
	}
}
