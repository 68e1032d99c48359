package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brensch/lantern/game"
)

// PrettyJSONHandler is a slog.Handler that prints every record as an
// indented JSON object, keys in the order they were logged. It is meant for
// reading match logs by eye.
//
// Board values are rendered compactly: a game.Cell or game.Shape is an [x,y]
// pair and a []game.Cell a list of pairs.
type PrettyJSONHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	addSource bool

	attrs  []groupedAttr
	groups []string
}

// groupedAttr remembers the groups that were open when WithAttrs was called.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	h := &PrettyJSONHandler{w: w, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

func (h *PrettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}

	root := &object{}
	root.set(slog.TimeKey, when.Format(time.RFC3339Nano))
	root.set(slog.LevelKey, r.Level.String())
	root.set(slog.MessageKey, r.Message)
	if h.addSource {
		if src := sourceFromPC(r.PC); src != "" {
			root.set(slog.SourceKey, src)
		}
	}

	for _, ga := range h.attrs {
		root.add(ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		root.add(h.groups, a)
		return true
	})

	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]groupedAttr(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	return &clone
}

func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

type field struct {
	key string
	val any
}

// object is a JSON object that keeps insertion order. Setting a key again
// replaces its value in place.
type object struct {
	fields []field
}

func (o *object) set(key string, val any) {
	for i := range o.fields {
		if o.fields[i].key == key {
			o.fields[i].val = val
			return
		}
	}
	o.fields = append(o.fields, field{key: key, val: val})
}

func (o *object) child(key string) *object {
	for _, f := range o.fields {
		if f.key == key {
			if c, ok := f.val.(*object); ok {
				return c
			}
		}
	}
	c := &object{}
	o.set(key, c)
	return c
}

// add places attr under the given group path. Empty attrs are dropped,
// matching the stdlib handlers.
func (o *object) add(groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	dst := o
	for _, g := range groups {
		dst = dst.child(g)
	}
	dst.put(attr)
}

func (o *object) put(attr slog.Attr) {
	v := attr.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		o.set(attr.Key, render(v))
		return
	}
	// An unnamed group is inlined.
	dst := o
	if attr.Key != "" {
		dst = o.child(attr.Key)
	}
	for _, ga := range v.Group() {
		ga.Value = ga.Value.Resolve()
		if ga.Key != "" || ga.Value.Kind() == slog.KindGroup {
			dst.put(ga)
		}
	}
}

func (o *object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(f.key)
		b.Write(k)
		b.WriteByte(':')
		v, err := json.Marshal(f.val)
		if err != nil {
			// Values json cannot encode fall back to their fmt form.
			v, _ = json.Marshal(fmt.Sprint(f.val))
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func render(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	}

	switch x := v.Any().(type) {
	case game.Cell:
		return [2]int32{x.X, x.Y}
	case game.Shape:
		return [2]int32{x.Width, x.Height}
	case []game.Cell:
		out := make([][2]int32, len(x))
		for i, c := range x {
			out[i] = [2]int32{c.X, c.Y}
		}
		return out
	case error:
		return x.Error()
	default:
		return x
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
