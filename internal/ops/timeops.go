package ops

import (
	"context"
	"time"
)

// Timestamp-producing operators: date, today, timedelta, naive.
// Naive and aware timestamps are distinct kinds; the only sanctioned
// demotion path is the naive operator.

func registerTime(r *Registry) {
	r.MustRegister(&Definition{
		Name: "date", MinArgs: 1, MaxArgs: 2, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "tz", Kind: KindString},
		},
		Eval: evalDate,
	})
	r.MustRegister(&Definition{
		Name: "today", MinArgs: 0, MaxArgs: 0, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "naive", Kind: KindBool, Default: Bool(false)},
			{Name: "tz", Kind: KindString, Default: Str("UTC")},
		},
		Eval: evalToday,
	})
	r.MustRegister(&Definition{
		Name: "timedelta", MinArgs: 1, MaxArgs: 1, Commutative: true,
		Kwargs: []KwargSpec{
			{Name: "years", Kind: KindNumber, Default: Number(0)},
			{Name: "months", Kind: KindNumber, Default: Number(0)},
			{Name: "weeks", Kind: KindNumber, Default: Number(0)},
			{Name: "days", Kind: KindNumber, Default: Number(0)},
			{Name: "hours", Kind: KindNumber, Default: Number(0)},
			{Name: "minutes", Kind: KindNumber, Default: Number(0)},
		},
		Eval: evalTimedelta,
	})
	r.MustRegister(&Definition{
		Name: "naive", MinArgs: 3, MaxArgs: 3, Commutative: true,
		Eval: evalNaive,
	})
}

// timestampLayouts are tried in order; the non-padded fields accept
// both "2019-1-2" and "2019-01-02".
var timestampLayouts = []string{
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2 15:04:05",
	"2006-1-2",
}

func parseTimestamp(op, text string, loc *time.Location) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &TypeMismatchError{Op: op, Msg: "cannot parse timestamp `" + text + "`"}
}

// evalDate parses a timestamp literal. The timezone comes from an
// optional second positional argument or #:tz; nil means naive,
// absent means UTC.
func evalDate(ctx context.Context, env *Env) (Value, error) {
	text, err := env.argString(0)
	if err != nil {
		return nil, err
	}

	tzname := "UTC"
	aware := true
	if len(env.Args) == 2 {
		switch tz := env.Args[1].(type) {
		case Str:
			tzname = string(tz)
		case Nil:
			aware = false
		default:
			return nil, &TypeMismatchError{
				Op: env.Op, What: "argument 2", Want: KindString, Got: KindOf(env.Args[1]),
			}
		}
	} else if tz, ok := env.kwString("tz"); ok {
		tzname = tz
	}

	loc := time.UTC
	if aware {
		if loc, err = time.LoadLocation(tzname); err != nil {
			return nil, &TypeMismatchError{Op: env.Op, Msg: "unknown timezone `" + tzname + "`"}
		}
	}
	t, err := parseTimestamp(env.Op, text, loc)
	if err != nil {
		return nil, err
	}
	if !aware {
		return Time{T: asNaive(t), Aware: false}, nil
	}
	return Time{T: t, Aware: true}, nil
}

// evalToday returns the current day at midnight in the requested
// timezone, naive when asked.
func evalToday(ctx context.Context, env *Env) (Value, error) {
	tzname, _ := env.kwString("tz")
	naive, _ := env.kwBool("naive")

	loc, err := time.LoadLocation(tzname)
	if err != nil {
		return nil, &TypeMismatchError{Op: env.Op, Msg: "unknown timezone `" + tzname + "`"}
	}
	now := time.Now().In(loc)
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if naive {
		return Time{T: asNaive(day), Aware: false}, nil
	}
	return Time{T: day, Aware: true}, nil
}

// evalTimedelta shifts a timestamp by the keyword offsets,
// preserving its awareness.
func evalTimedelta(ctx context.Context, env *Env) (Value, error) {
	base, ok := env.Args[0].(Time)
	if !ok {
		return nil, &TypeMismatchError{
			Op: env.Op, What: "argument 1", Want: KindTime, Got: KindOf(env.Args[0]),
		}
	}
	years, _ := env.kwNumber("years")
	months, _ := env.kwNumber("months")
	weeks, _ := env.kwNumber("weeks")
	days, _ := env.kwNumber("days")
	hours, _ := env.kwNumber("hours")
	minutes, _ := env.kwNumber("minutes")

	t := base.T.AddDate(int(years), int(months), int(weeks)*7+int(days))
	t = t.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
	return Time{T: t, Aware: base.Aware}, nil
}

// evalNaive demotes an aware series (or timestamp) to naive local
// time: (naive <series|timestamp> <country> <timezone>). The country
// code is required alongside the timezone because a naive local time
// is ambiguous without the market it belongs to.
func evalNaive(ctx context.Context, env *Env) (Value, error) {
	country, err := env.argString(1)
	if err != nil {
		return nil, err
	}
	if len(country) != 2 {
		return nil, &TypeMismatchError{
			Op: env.Op, Msg: "country must be a two-letter code, got `" + country + "`",
		}
	}
	tzname, err := env.argString(2)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tzname)
	if err != nil {
		return nil, &TypeMismatchError{Op: env.Op, Msg: "unknown timezone `" + tzname + "`"}
	}

	switch v := env.Args[0].(type) {
	case SeriesVal:
		if !v.S.TZAware {
			return nil, &TypeMismatchError{Op: env.Op, Msg: "series is already tznaive"}
		}
		out := v.S.Clone()
		out.TZAware = false
		for i, t := range out.Times {
			out.Times[i] = asNaive(t.In(loc))
		}
		v.S = out
		return v, nil
	case Time:
		if !v.Aware {
			return nil, &TypeMismatchError{Op: env.Op, Msg: "timestamp is already naive"}
		}
		return Time{T: asNaive(v.T.In(loc)), Aware: false}, nil
	}
	return nil, &TypeMismatchError{
		Op: env.Op, What: "argument 1", Want: KindSeries, Got: KindOf(env.Args[0]),
	}
}

// asNaive re-anchors wall-clock fields in UTC, the internal
// convention for naive timestamps.
func asNaive(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
