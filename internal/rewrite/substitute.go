package rewrite

import (
	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/cursor"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/scan"
	"github.com/jeroenrinzema/pqodbc/pkg/buffer"
)

// ValueFunc supplies the resolved value for the nth bare '?' marker
// (1-based) encountered in a Substitute pass.
type ValueFunc func(n int) (param.Value, error)

// Substitute performs the second rewrite pass: it walks text (already
// escape-expanded by Rewrite) and replaces every bare '?' marker with the
// resolver's rendering for mode, copying everything else through verbatim.
// Text inside literals, dquoted identifiers, dollar-quotes and comments is
// never inspected for '?', matching component B's lexical-state rules.
func Substitute(text string, enc chartab.Encoding, resolver *param.Resolver, mode param.Mode, counter *param.Counter, values ValueFunc) (string, error) {
	c := cursor.New([]byte(text), enc)
	sc := &scan.Scanner{}
	out := buffer.NewBuilder()

	paramN := 0

	for !c.Done() {
		state, bytes := sc.Step(c)
		if state != scan.Idle {
			out.AddBytes(bytes)
			continue
		}

		if bytes[0] != '?' {
			out.AddByte(bytes[0])
			continue
		}

		paramN++
		v, err := values(paramN)
		if err != nil {
			return "", err
		}

		rest := text[c.Pos():]
		if err := resolver.Resolve(out, mode, counter, v, rest); err != nil {
			return "", err
		}
	}

	if out.Error() != nil {
		return "", out.Error()
	}
	return out.String(), nil
}
