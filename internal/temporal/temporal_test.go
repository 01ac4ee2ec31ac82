package temporal

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/smart-worklog/internal/models"
)

var moscow = time.FixedZone("MSK", 3*60*60)

// Thursday, 15 October 2026, noon in Moscow
var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, moscow)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(moscow, time.UTC, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return r
}

func msk(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, moscow)
}

func TestNewResolver(t *testing.T) {
	t.Parallel()

	_, err := NewResolver(nil, time.UTC)
	require.Error(t, err)

	_, err = NewResolver(moscow, nil)
	require.Error(t, err)

	r, err := NewResolver(moscow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, moscow, r.Reference())
	assert.Equal(t, time.UTC, r.Storage())
}

func TestResolveStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "explicit clock", raw: "10:30", want: msk(15, 10, 30)},
		{name: "explicit clock with dot", raw: "10.30", want: msk(15, 10, 30)},
		{name: "explicit clock ignores afternoon heuristic", raw: "7:00", want: msk(15, 7, 0)},
		{name: "today", raw: "сегодня 10:30", want: msk(15, 10, 30)},
		{name: "yesterday half past", raw: "вчера пол второго", want: msk(14, 13, 30)},
		{name: "compact half past", raw: "вчера полвторого", want: msk(14, 13, 30)},
		{name: "day before yesterday russian", raw: "позавчера в 9", want: msk(13, 9, 0)},
		{name: "day before yesterday english", raw: "day before yesterday 9:15", want: msk(13, 9, 15)},
		{name: "iso date", raw: "2026-10-01 09:15", want: msk(1, 9, 15)},
		{name: "local date", raw: "01.10.2026 9.15", want: msk(1, 9, 15)},
		{name: "short date next to colon clock", raw: "14.10 10:30", want: msk(14, 10, 30)},
		{name: "weekday earlier in the week", raw: "в понедельник в 10", want: msk(12, 10, 0)},
		{name: "weekday with meridiem", raw: "вторник 3 дня", want: msk(13, 15, 0)},
		{name: "weekday today", raw: "thursday 9:00", want: msk(15, 9, 0)},
		{name: "number words with meridiem", raw: "в десять утра", want: msk(15, 10, 0)},
		{name: "number words hour and minute", raw: "десять тридцать", want: msk(15, 10, 30)},
		{name: "bare hour word", raw: "вчера в час", want: msk(14, 13, 0)},
		{name: "hour word with minutes", raw: "вчера час тридцать", want: msk(14, 13, 30)},
		{name: "hour words stripped", raw: "в 10 часов 15 минут", want: msk(15, 10, 15)},
		{name: "midnight am", raw: "12 am", want: msk(15, 0, 0)},
		{name: "future time rolls back a day", raw: "в 3", want: msk(14, 15, 0)},
		{name: "future clock rolls back a day", raw: "12:10", want: msk(14, 12, 10)},
		{name: "within skew tolerance", raw: "12:04", want: msk(15, 12, 4)},
		{name: "explicit today never rolls back", raw: "сегодня 15:00", want: msk(15, 15, 0)},
		{name: "evening rolls back", raw: "7 вечера", want: msk(14, 19, 0)},
		{name: "english pm", raw: "at 8 pm yesterday", want: msk(14, 20, 0)},
		{name: "english half past", raw: "yesterday half past two", want: msk(14, 14, 30)},
	}

	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.ResolveStart(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestResolveStartErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		kind error
	}{
		{name: "empty", raw: "", kind: models.ErrTimeParse},
		{name: "project name is not a time", raw: "Apollo 17", kind: models.ErrTimeParse},
		{name: "date without time", raw: "вчера", kind: models.ErrTimeParse},
		{name: "impossible date", raw: "31.02.2026 10:00", kind: models.ErrTimeParse},
		{name: "hour out of range", raw: "25:00", kind: models.ErrTimeParse},
		{name: "future weekday russian", raw: "в пятницу в 10", kind: models.ErrFutureWeekday},
		{name: "future weekday english", raw: "sunday 10:00", kind: models.ErrFutureWeekday},
		{name: "future weekday genitive", raw: "субботы 9:00", kind: models.ErrFutureWeekday},
	}

	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.ResolveStart(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "unexpected error %v", err)
		})
	}
}

func TestFutureWeekdayMessage(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	_, err := r.ResolveStart("friday 10:00")

	var ce *models.CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Извини, я могу заносить записи только за прошедшую часть текущей недели.", ce.Message)
}

func TestExplicitClockIsExact(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 7, 30, 59} {
			raw := time.Date(2026, time.October, 13, hour, minute, 0, 0, moscow).Format("2006-01-02 15:04")
			got, err := r.ResolveStart(raw)
			require.NoError(t, err, raw)

			local := got.In(moscow)
			assert.Equal(t, hour, local.Hour(), raw)
			assert.Equal(t, minute, local.Minute(), raw)
		}
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int
	}{
		{raw: "1h 30m", want: 90},
		{raw: "1h30m", want: 90},
		{raw: "2h", want: 120},
		{raw: "90 min", want: 90},
		{raw: "45", want: 45},
		{raw: "45m", want: 45},
		{raw: "1 час 30 минут", want: 90},
		{raw: "1 час 30", want: 90},
		{raw: "час тридцать", want: 90},
		{raw: "час", want: 60},
		{raw: "1,5 часа", want: 90},
		{raw: "1.5ч", want: 90},
		{raw: "полтора часа", want: 90},
		{raw: "полчаса", want: 30},
		{raw: "half an hour", want: 30},
		{raw: "два часа", want: 120},
		{raw: "сорок пять минут", want: 45},
		{raw: "примерно 2 часа", want: 120},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDuration(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationErrors(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"", "10:30", "1.30", "abc", "0", "0m", "Apollo 17",
		"-5", "-1h", "1h -30m", "1:30 часа", "1:30h", "- 45",
	} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDuration(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrDurationParse))
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	t.Parallel()

	for minutes := 1; minutes <= 600; minutes++ {
		formatted := FormatMinutes(minutes)
		got, err := ParseDuration(formatted)
		require.NoError(t, err, formatted)
		require.Equal(t, minutes, got, formatted)

		h, m := minutes/60, minutes%60
		if h > 0 && m > 0 {
			raw := strconv.Itoa(h) + " ч " + strconv.Itoa(m) + " мин"
			got, err := ParseDuration(raw)
			require.NoError(t, err, raw)
			require.Equal(t, minutes, got, raw)
		}
	}

	assert.Equal(t, "1h 30m", FormatMinutes(90))
	assert.Equal(t, "2h", FormatMinutes(120))
	assert.Equal(t, "45m", FormatMinutes(45))
}

func TestClassifier(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	assert.True(t, r.IsTime("10:30"))
	assert.True(t, r.IsTime("пятница 10:00"))
	assert.False(t, r.IsTime("Apollo 17"))
	assert.False(t, r.IsTime("1h 30m"))
	assert.False(t, r.IsTime("45"))

	assert.True(t, r.IsDuration("45"))
	assert.True(t, r.IsDuration("1h 30m"))
	assert.False(t, r.IsDuration("10:30"))
	assert.False(t, r.IsDuration("Apollo 17"))
}

func TestAt(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	got, err := r.At("2026-10-14", "13:30")
	require.NoError(t, err)
	assert.True(t, msk(14, 13, 30).Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	_, err = r.At("2026-14-01", "13:30")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTimeParse))
}

func TestHasExplicitDateReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{text: "проект Apollo работа отчет начало вчера 10:30", want: true},
		{text: "в пятницу в 10", want: true},
		{text: "Day before yesterday at 9", want: true},
		{text: "Monday 10:00", want: true},
		{text: "сегодня 10:30", want: false},
		{text: "Apollo 17 report 10:30 1h", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasExplicitDateReference(tt.text))
		})
	}
}
