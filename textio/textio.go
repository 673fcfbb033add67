// Package textio reads initial conditions and writes final states in the
// plain text universe format:
//
//	N
//	R
//	px py vx vy mass label    (N lines)
//
// Tokens are whitespace separated; line breaks carry no meaning.
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/quillaja/nbody2d/physics"
)

// Input is a parsed universe file.
type Input struct {
	N      int
	Radius float64
	Bodies []physics.Body
}

// ParseError describes malformed or short input.
type ParseError struct {
	Token int    // 1-based index of the offending token
	Field string // what the token should have been, e.g. "body 3 mass"
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: token %d (%s): %v", e.Token, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const maxPrealloc = 1024

// fields of each body line, in order.
var bodyFields = [...]string{"x position", "y position", "x velocity", "y velocity", "mass"}

// Read parses a universe from r. Anything after the last body is ignored.
// Semantic checks such as positive masses are left to the engine, except
// that a negative body count is rejected here.
func Read(r io.Reader) (Input, error) {
	sc := tokens{s: bufio.NewScanner(r)}
	sc.s.Split(bufio.ScanWords)

	var in Input
	tok, err := sc.next("body count")
	if err != nil {
		return in, err
	}
	in.N, err = strconv.Atoi(tok)
	if err != nil {
		return in, sc.fail("body count", err)
	}
	if in.N < 0 {
		return in, sc.fail("body count", fmt.Errorf("negative count %d", in.N))
	}

	if in.Radius, err = sc.float("radius"); err != nil {
		return in, err
	}

	// the count is untrusted, so grow as bodies actually arrive.
	in.Bodies = make([]physics.Body, 0, min(in.N, maxPrealloc))
	for i := 0; i < in.N; i++ {
		var v [len(bodyFields)]float64
		for f := range bodyFields {
			if v[f], err = sc.float(fmt.Sprintf("body %d %s", i, bodyFields[f])); err != nil {
				return in, err
			}
		}
		label, err := sc.next(fmt.Sprintf("body %d label", i))
		if err != nil {
			return in, err
		}
		in.Bodies = append(in.Bodies, physics.Body{
			Label: label,
			Pos:   mgl64.Vec2{v[0], v[1]},
			Vel:   mgl64.Vec2{v[2], v[3]},
			Mass:  v[4],
		})
	}
	return in, nil
}

// Write prints u in the universe format, numbers in scientific notation.
func Write(w io.Writer, u physics.Universe) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", u.Len())
	fmt.Fprintf(bw, "%.2e\n", u.Radius)
	for _, b := range u.Bodies {
		fmt.Fprintf(bw, "%11.4e %11.4e %11.4e %11.4e %11.4e %12s\n",
			b.Pos[0], b.Pos[1], b.Vel[0], b.Vel[1], b.Mass, b.Label)
	}
	return bw.Flush()
}

// tokens counts what it scans so errors can point at the bad token.
type tokens struct {
	s     *bufio.Scanner
	count int
}

func (t *tokens) next(field string) (string, error) {
	if !t.s.Scan() {
		err := t.s.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		t.count++
		return "", t.fail(field, err)
	}
	t.count++
	return t.s.Text(), nil
}

func (t *tokens) float(field string) (float64, error) {
	tok, err := t.next(field)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			err = ne.Err
		}
		return 0, t.fail(field, fmt.Errorf("%q: %w", tok, err))
	}
	return f, nil
}

func (t *tokens) fail(field string, err error) *ParseError {
	return &ParseError{Token: t.count, Field: field, Err: err}
}
