// Package template implements the tag scanner, expression evaluator, and
// renderer (§4): a single forward pass over the template text that copies
// literal bytes straight to the output sink and dispatches recognized tags
// in place, grounded in the teacher's lexer.Scanner cursor and
// parser.parseBinary(minPrec) precedence-climbing loop.
package template

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/google/uuid"

	"qentem/internal/digit"
	"qentem/internal/errors"
	"qentem/internal/reserver"
	"qentem/internal/sink"
	"qentem/internal/value"
)

// scratchCellSize and scratchBlockCells size the Renderer's private
// Reserver: scratch buffers are short strings (an svar argument's rendered
// text), so one byte per cell keeps Bytes() usable directly, and a
// 4096-cell default block comfortably covers a tag's rendered text without
// growing on the common path.
const (
	scratchCellSize   = 1
	scratchBlockCells = 4096
)

// Renderer holds the Options a template is rendered with, plus the Reserver
// every scratch buffer created during rendering allocates through (§2).
type Renderer struct {
	Options Options
	scratch *reserver.Reserver
}

// New returns a Renderer configured with opts.
func New(opts Options) *Renderer {
	return &Renderer{Options: opts, scratch: reserver.New(scratchCellSize, scratchBlockCells)}
}

// Render renders tmpl against root and returns the result as a string.
func (r *Renderer) Render(tmpl string, root value.Value) (string, error) {
	buf := sink.NewBuffer(len(tmpl))
	err := r.RenderTo(tmpl, root, buf)
	return buf.String(), err
}

// RenderTo renders tmpl against root, writing straight into out (§4.8).
func (r *Renderer) RenderTo(tmpl string, root value.Value, out sink.Sink) error {
	return r.renderSection(tmpl, nil, root, 0, out)
}

func (r *Renderer) renderSection(s string, sc *scope, root value.Value, depth int, out sink.Sink) error {
	if depth > r.Options.MaxDepth {
		return errors.NewFatal("template nesting exceeds max depth", nil)
	}
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '{' && c != '<' {
			out.Append([]byte{c})
			i++
			continue
		}
		if c == '{' {
			kw, kwLen, ok := matchBraceKeyword(s, i)
			if !ok {
				out.Append([]byte{'{'})
				i++
				continue
			}
			closeIdx := findMatchingBrace(s, i+1)
			if closeIdx < 0 {
				out.Append([]byte{'{'})
				i++
				continue
			}
			inner := s[i+kwLen : closeIdx]
			var handled bool
			var err error
			switch kw {
			case "var":
				handled = r.renderVar(inner, sc, root, false, out)
			case "raw":
				handled = r.renderVar(inner, sc, root, true, out)
			case "math":
				handled = r.renderMath(inner, sc, root, out)
			case "svar":
				handled, err = r.renderSVar(inner, sc, root, depth, out)
			case "if":
				handled, err = r.renderInlineIf(inner, sc, root, depth, out)
			}
			if err != nil {
				return err
			}
			if !handled {
				out.Append([]byte(s[i : closeIdx+1]))
			}
			i = closeIdx + 1
			continue
		}
		// c == '<'
		if name, ok := matchAngleKeyword(s, i); ok {
			switch name {
			case "loop":
				consumed, err := r.renderLoopTag(s, i, sc, root, depth, out)
				if err != nil {
					return err
				}
				if consumed < 0 {
					out.Append([]byte{'<'})
					i++
					continue
				}
				i = consumed
				continue
			case "if":
				consumed, err := r.renderIfTag(s, i, sc, root, depth, out)
				if err != nil {
					return err
				}
				if consumed < 0 {
					out.Append([]byte{'<'})
					i++
					continue
				}
				i = consumed
				continue
			}
		}
		out.Append([]byte{'<'})
		i++
	}
	return nil
}

// renderVar renders a {var:PATH} or {raw:PATH} tag (§4.3). It reports
// whether the tag was handled; Array/Object/Undefined results are not, so
// the caller falls back to emitting the tag's original text.
func (r *Renderer) renderVar(pathText string, sc *scope, root value.Value, raw bool, out sink.Sink) bool {
	path := strings.TrimSpace(pathText)
	v := resolvePath(sc, root, path)
	switch v.Kind() {
	case value.KindArray, value.KindObject, value.KindUndefined:
		return false
	}
	text := stringifyScalar(v)
	if !raw && r.Options.AutoEscapeHTML {
		text = escapeHTML(text)
	}
	out.Append([]byte(text))
	return true
}

func stringifyScalar(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.KindUInt64:
		buf := sink.NewBuffer(20)
		digit.FormatUint(buf, v.AsUInt64())
		return buf.String()
	case value.KindInt64:
		buf := sink.NewBuffer(20)
		digit.FormatInt(buf, v.AsInt64())
		return buf.String()
	case value.KindReal64:
		buf := sink.NewBuffer(32)
		digit.FormatReal(buf, v.AsReal64(), digit.FormatDefault, digit.DefaultPrecision)
		return buf.String()
	case value.KindString:
		return v.AsString()
	default:
		return ""
	}
}

// escapeHTML escapes the five reserved characters. It never special-cases
// an already-escaped entity, so re-escaping a pre-escaped string produces a
// doubled escape rather than being left alone (§4.3 open-question
// resolution: double-escaping is the intended behavior).
func escapeHTML(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// renderMath renders a {math:EXPR} tag (§4.4).
func (r *Renderer) renderMath(inner string, sc *scope, root value.Value, out sink.Sink) bool {
	v, ok := r.evalExpression(inner, sc, root)
	if !ok {
		return false
	}
	switch v.kind {
	case exprBool:
		if v.b {
			out.Append([]byte("true"))
		} else {
			out.Append([]byte("false"))
		}
	case exprInt:
		digit.FormatInt(out, v.i)
	case exprReal:
		digit.FormatReal(out, v.f, digit.FormatDefault, digit.DefaultPrecision)
	case exprString:
		out.Append([]byte(v.s))
	case exprNull:
		out.Append([]byte("null"))
	}
	return true
}

// evalExpression substitutes nested {var:}/{raw:} tags with their rendered
// text, then tokenizes and parses what remains (§4.4). A container result
// from a nested resolution is left as unreplaced tag text, which cannot
// parse, causing the whole expression to fail.
func (r *Renderer) evalExpression(raw string, sc *scope, root value.Value) (exprValue, bool) {
	substituted := substituteNested(raw, sc, root)
	if strings.Contains(substituted, "{var:") || strings.Contains(substituted, "{raw:") {
		return exprValue{}, false
	}
	p := &exprParser{toks: tokenizeExpr(substituted)}
	v, err := p.parseBinary(0)
	if err != nil || p.peek().kind != tokEOF {
		return exprValue{}, false
	}
	return v, true
}

func substituteNested(s string, sc *scope, root value.Value) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '{' && (strings.HasPrefix(s[i:], "{var:") || strings.HasPrefix(s[i:], "{raw:")) {
			closeIdx := findMatchingBrace(s, i+1)
			if closeIdx < 0 {
				out.WriteByte(s[i])
				i++
				continue
			}
			inner := s[i+5 : closeIdx]
			v := resolvePath(sc, root, strings.TrimSpace(inner))
			if v.IsContainer() {
				out.WriteString(s[i : closeIdx+1])
				i = closeIdx + 1
				continue
			}
			out.WriteString(stringifyScalar(v))
			i = closeIdx + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// renderSVar renders a {svar:PATH, A1, A2, …} tag (§4.3).
func (r *Renderer) renderSVar(inner string, sc *scope, root value.Value, depth int, out sink.Sink) (bool, error) {
	parts := splitTopLevelCommas(inner)
	if len(parts) == 0 {
		return false, nil
	}
	fmtVal := resolvePath(sc, root, strings.TrimSpace(parts[0]))
	if fmtVal.Kind() != value.KindString {
		return false, nil
	}
	args := make([]string, 0, len(parts)-1)
	for _, a := range parts[1:] {
		buf := sink.NewReserverBuffer(r.scratch, len(a))
		if err := r.renderSection(a, sc, root, depth+1, buf); err != nil {
			buf.Release()
			return false, err
		}
		args = append(args, strings.TrimSpace(buf.String()))
		buf.Release()
	}
	out.Append([]byte(substituteSVarPlaceholders(fmtVal.AsString(), args, r.Options.AutoEscapeHTML)))
	return true, nil
}

func substituteSVarPlaceholders(format string, args []string, escape bool) string {
	var b strings.Builder
	i := 0
	for i < len(format) {
		if format[i] == '{' {
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			if j > i+1 && j < len(format) && format[j] == '}' {
				n, _ := strconv.Atoi(format[i+1 : j])
				if n >= 0 && n <= 11 && n < len(args) {
					arg := args[n]
					if escape {
						arg = escapeHTML(arg)
					}
					b.WriteString(arg)
					i = j + 1
					continue
				}
			}
		}
		b.WriteByte(format[i])
		i++
	}
	return b.String()
}

// renderInlineIf renders a {if case="E" true="A" false="B"} tag (§4.7).
func (r *Renderer) renderInlineIf(inner string, sc *scope, root value.Value, depth int, out sink.Sink) (bool, error) {
	attrs := parseAttrs(inner)
	caseExpr, hasCase := attrs["case"]
	if !hasCase {
		return false, nil
	}
	v, ok := r.evalExpression(caseExpr, sc, root)
	if !ok {
		return false, nil
	}
	var branch string
	var hasBranch bool
	if exprTruthy(v) {
		branch, hasBranch = attrs["true"]
	} else {
		branch, hasBranch = attrs["false"]
	}
	if !hasBranch {
		return true, nil
	}
	return true, r.renderSection(branch, sc, root, depth+1, out)
}

// renderLoopTag renders a <loop …>…</loop> block (§4.5). It returns the
// index just past the closing tag, or -1 if the tag is malformed (no
// closing '>' or no matching </loop>), signalling the caller to fall back
// to treating '<' as literal text.
func (r *Renderer) renderLoopTag(s string, i int, sc *scope, root value.Value, depth int, out sink.Sink) (int, error) {
	gt := findTagEnd(s, i)
	if gt < 0 {
		return -1, nil
	}
	attrs := parseAttrs(s[i+len("<loop") : gt])
	closeStart := findMatchingTag(s, gt+1, "<loop", "</loop>")
	if closeStart < 0 {
		return -1, nil
	}
	body := s[gt+1 : closeStart]
	after := closeStart + len("</loop>")

	source := currentValue(sc, root)
	if setPath, ok := attrs["set"]; ok {
		source = resolvePath(sc, root, strings.TrimSpace(setPath))
	}
	valueName, hasName := attrs["value"]
	valueName = strings.TrimSpace(valueName)
	if !hasName || valueName == "" {
		valueName = uuid.NewString()
	}
	groupKey, hasGroup := attrs["group"]
	sortDir := strings.TrimSpace(attrs["sort"])

	if !source.IsContainer() {
		child := sc.bind(valueName, source)
		return after, r.renderSection(body, child, root, depth+1, out)
	}

	if hasGroup {
		return after, r.renderGroupedLoop(body, source, strings.TrimSpace(groupKey), valueName, sortDir, sc, root, depth, out)
	}
	return after, r.renderPlainLoop(body, source, valueName, sortDir, sc, root, depth, out)
}

func (r *Renderer) renderPlainLoop(body string, source value.Value, valueName, sortDir string, sc *scope, root value.Value, depth int, out sink.Sink) error {
	var elements []value.Value
	switch source.Kind() {
	case value.KindArray:
		elements = append(elements, source.AsArray()...)
	case value.KindObject:
		source.AsObject().Each(func(_ string, v value.Value) bool {
			elements = append(elements, v)
			return true
		})
	}
	if sortDir == "ascend" || sortDir == "descend" {
		slices.SortStableFunc(elements, func(a, b value.Value) int {
			return compareKeys(stringifyScalar(a), stringifyScalar(b), sortDir == "ascend")
		})
	}
	for _, el := range elements {
		child := sc.bind(valueName, el)
		if err := r.renderSection(body, child, root, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderGroupedLoop(body string, source value.Value, groupKey, valueName, sortDir string, sc *scope, root value.Value, depth int, out sink.Sink) error {
	type bucket struct {
		key   string
		items []value.Value
	}
	var buckets []bucket
	order := map[string]int{}
	add := func(key string, v value.Value) {
		if idx, ok := order[key]; ok {
			buckets[idx].items = append(buckets[idx].items, v)
			return
		}
		order[key] = len(buckets)
		buckets = append(buckets, bucket{key: key, items: []value.Value{v}})
	}

	switch source.Kind() {
	case value.KindArray:
		for _, el := range source.AsArray() {
			add(stringifyScalar(value.Resolve(el, groupKey)), el)
		}
	case value.KindObject:
		source.AsObject().Each(func(_ string, el value.Value) bool {
			add(stringifyScalar(value.Resolve(el, groupKey)), el)
			return true
		})
	}

	if sortDir == "ascend" || sortDir == "descend" {
		slices.SortFunc(buckets, func(a, b bucket) int {
			return compareKeys(a.key, b.key, sortDir == "ascend")
		})
	}

	for _, bk := range buckets {
		child := sc.bind(valueName, value.Array(bk.items))
		if err := r.renderSection(body, child, root, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func compareKeys(a, b string, ascending bool) int {
	switch {
	case a < b:
		if ascending {
			return -1
		}
		return 1
	case a > b:
		if ascending {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// ifClause is one segment of a <if>/<elseif>/<else> chain (§4.6).
type ifClause struct {
	caseExpr string
	body     string
	isElse   bool
}

// renderIfTag renders a <if case="…">…</if> block, including any
// <elseif case="…"/> and <else/> markers in its body.
func (r *Renderer) renderIfTag(s string, i int, sc *scope, root value.Value, depth int, out sink.Sink) (int, error) {
	gt := findTagEnd(s, i)
	if gt < 0 {
		return -1, nil
	}
	attrs := parseAttrs(s[i+len("<if") : gt])
	caseExpr, hasCase := attrs["case"]
	if !hasCase {
		return -1, nil
	}
	closeStart := findMatchingTag(s, gt+1, "<if", "</if>")
	if closeStart < 0 {
		return -1, nil
	}
	body := s[gt+1 : closeStart]
	after := closeStart + len("</if>")

	for _, cl := range splitIfClauses(body, caseExpr) {
		if cl.isElse {
			return after, r.renderSection(cl.body, sc, root, depth+1, out)
		}
		v, ok := r.evalExpression(cl.caseExpr, sc, root)
		if ok && exprTruthy(v) {
			return after, r.renderSection(cl.body, sc, root, depth+1, out)
		}
	}
	return after, nil
}

func splitIfClauses(body, firstCase string) []ifClause {
	type marker struct {
		start, end int
		kind       string
		caseExpr   string
	}
	var markers []marker
	depth := 0
	i := 0
	for i < len(body) {
		switch {
		case hasTokenAt(body, i, "<if"):
			depth++
			i++
		case hasTokenAt(body, i, "<loop"):
			depth++
			i++
		case strings.HasPrefix(body[i:], "</if>"):
			if depth > 0 {
				depth--
			}
			i += len("</if>")
		case strings.HasPrefix(body[i:], "</loop>"):
			if depth > 0 {
				depth--
			}
			i += len("</loop>")
		case depth == 0 && hasTokenAt(body, i, "<elseif"):
			gt := findTagEnd(body, i)
			if gt < 0 {
				i++
				continue
			}
			attrs := parseAttrs(body[i+len("<elseif") : gt])
			markers = append(markers, marker{start: i, end: gt + 1, kind: "elseif", caseExpr: attrs["case"]})
			i = gt + 1
		case depth == 0 && hasTokenAt(body, i, "<else"):
			gt := findTagEnd(body, i)
			if gt < 0 {
				i++
				continue
			}
			markers = append(markers, marker{start: i, end: gt + 1, kind: "else"})
			i = gt + 1
		default:
			i++
		}
	}

	var clauses []ifClause
	segStart := 0
	curCase := firstCase
	for _, m := range markers {
		clauses = append(clauses, ifClause{caseExpr: curCase, body: body[segStart:m.start]})
		curCase = m.caseExpr
		segStart = m.end
	}
	last := ifClause{caseExpr: curCase, body: body[segStart:]}
	if len(markers) > 0 && markers[len(markers)-1].kind == "else" {
		last.isElse = true
	}
	clauses = append(clauses, last)
	return clauses
}
